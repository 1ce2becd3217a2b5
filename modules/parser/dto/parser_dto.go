package dto

// ParsedEvent is the structured form the language model extracts from a
// free-form scheduling message. Start/End are RFC 3339 timestamps, or bare
// YYYY-MM-DD dates when AllDay is set.
type ParsedEvent struct {
	Title    string `json:"title"`
	Start    string `json:"start"`
	End      string `json:"end"`
	AllDay   bool   `json:"all_day"`
	Location string `json:"location"`
	Label    string `json:"label"`
}
