package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatcal-api/modules/calendar/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalendar(t *testing.T, handler http.HandlerFunc) *CalendarService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &CalendarService{
		client:     srv.Client(),
		baseURL:    srv.URL,
		calendarID: "team@example.com",
	}
}

func TestInsertEventPassesColorThrough(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	svc := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "evt-1",
			"summary":  "Kickoff",
			"htmlLink": "https://calendar.example/evt-1",
			"status":   "confirmed",
		})
	})

	inserted, appErr := svc.InsertEvent(context.Background(), &dto.CalendarEvent{
		Summary: "Kickoff",
		ColorID: "3",
		Start:   dto.EventTime{DateTime: "2026-08-24T10:00:00+09:00"},
		End:     dto.EventTime{DateTime: "2026-08-24T11:00:00+09:00"},
	})
	require.Nil(t, appErr)
	require.NotNil(t, inserted)

	assert.Equal(t, "/calendar/v3/calendars/team@example.com/events", gotPath)
	assert.Equal(t, "3", gotBody["colorId"])
	assert.Equal(t, "evt-1", inserted.ID)
}

func TestInsertEventOmitsColorWhenUnset(t *testing.T) {
	var gotBody map[string]any

	svc := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "evt-2"})
	})

	_, appErr := svc.InsertEvent(context.Background(), &dto.CalendarEvent{
		Summary: "No color",
		Start:   dto.EventTime{Date: "2026-08-25"},
		End:     dto.EventTime{Date: "2026-08-26"},
	})
	require.Nil(t, appErr)

	_, present := gotBody["colorId"]
	assert.False(t, present, "colorId must be omitted, not sent empty")
}

func TestInsertEventAPIError(t *testing.T) {
	svc := newTestCalendar(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, appErr := svc.InsertEvent(context.Background(), &dto.CalendarEvent{Summary: "x"})
	require.NotNil(t, appErr)
}
