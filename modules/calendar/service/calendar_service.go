package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/modules/calendar/dto"
)

const defaultCalendarBaseURL = "https://www.googleapis.com"

// CalendarService inserts events into the configured Google Calendar. The
// resolved color slot id is passed through unchanged as the event colorId.
type CalendarService struct {
	client     *http.Client
	baseURL    string
	calendarID string
}

func NewCalendarService(client *http.Client, calendarID string) *CalendarService {
	return &CalendarService{
		client:     client,
		baseURL:    defaultCalendarBaseURL,
		calendarID: calendarID,
	}
}

func (s *CalendarService) InsertEvent(ctx context.Context, event *dto.CalendarEvent) (*dto.InsertedEvent, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultTimeout)
	defer cancel()

	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode calendar event", err)
	}

	endpoint := fmt.Sprintf("%s/calendar/v3/calendars/%s/events",
		s.baseURL, url.PathEscape(s.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create calendar request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("CalendarService:InsertEvent:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to insert calendar event", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("CalendarService:InsertEvent:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrInternalServer,
			fmt.Sprintf("Google Calendar API error: %d", resp.StatusCode), nil)
	}

	var inserted dto.InsertedEvent
	if err := json.NewDecoder(resp.Body).Decode(&inserted); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to parse calendar response", err)
	}

	logger.Info("CalendarService:InsertEvent:Success",
		"event_id", inserted.ID,
		"summary", inserted.Summary,
		"color_id", event.ColorID,
	)
	return &inserted, nil
}
