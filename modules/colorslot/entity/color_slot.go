package entity

import "strings"

// LabelMarker is the chat prefix users put in front of client tags
// (e.g. "#Acme" in a message body).
const LabelMarker = "#"

// ColorSlot is one row of the shared color table. Slots are provisioned by
// an operator ahead of time; the resolver only ever fills an empty Label
// cell, exactly once per slot, and never clears or rewrites it.
type ColorSlot struct {
	SlotID     int    `json:"slot_id" db:"id"`
	Label      string `json:"label" db:"label"`
	Background string `json:"background" db:"background"`
	Foreground string `json:"foreground" db:"foreground"`

	// RowIndex is the 1-based sheet row the slot was read from. Zero for
	// backends that address rows by key instead of position.
	RowIndex int `json:"row_index,omitempty" db:"-"`
}

// Assigned reports whether the slot is already bound to a label.
func (s ColorSlot) Assigned() bool {
	return strings.TrimSpace(s.Label) != ""
}

// NormalizeLabel derives the equality key used for matching and for the
// persisted cell value: surrounding whitespace is trimmed and one leading
// marker character is stripped. Two raw labels that normalize identically
// refer to the same slot.
func NormalizeLabel(raw string) string {
	label := strings.TrimSpace(raw)
	label = strings.TrimPrefix(label, LabelMarker)
	return strings.TrimSpace(label)
}
