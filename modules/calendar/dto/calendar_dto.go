package dto

type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// CalendarEvent is the insert payload. ColorID carries the resolved color
// slot id as an opaque string; empty means the calendar default.
type CalendarEvent struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	ColorID     string    `json:"colorId,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

type InsertedEvent struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	HTMLLink string    `json:"htmlLink"`
	Status   string    `json:"status"`
	Start    EventTime `json:"start"`
	End      EventTime `json:"end"`
}
