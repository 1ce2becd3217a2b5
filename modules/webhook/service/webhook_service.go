package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/core/storage"
	calendarDto "chatcal-api/modules/calendar/dto"
	calendarService "chatcal-api/modules/calendar/service"
	colorslotService "chatcal-api/modules/colorslot/service"
	parserDto "chatcal-api/modules/parser/dto"
	parserService "chatcal-api/modules/parser/service"
	"chatcal-api/modules/webhook/dto"
	"chatcal-api/modules/webhook/entity"
	"chatcal-api/modules/webhook/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const defaultReplyBaseURL = "https://api.line.me"

// WebhookService orchestrates one inbound chat message: parse it into an
// event, resolve the client label to a color slot, insert the calendar
// event and confirm back to the chat.
type WebhookService struct {
	repo     repository.WebhookDeliveryRepository
	parser   *parserService.ParserService
	calendar *calendarService.CalendarService
	resolver colorslotService.LabelResolver
	archive  storage.Uploader // nil when archiving is not configured

	replyClient  *http.Client
	replyBaseURL string
	channelToken string
}

func NewWebhookService(
	repo repository.WebhookDeliveryRepository,
	parser *parserService.ParserService,
	calendar *calendarService.CalendarService,
	resolver colorslotService.LabelResolver,
	archive storage.Uploader,
	channelToken string,
) *WebhookService {
	return &WebhookService{
		repo:         repo,
		parser:       parser,
		calendar:     calendar,
		resolver:     resolver,
		archive:      archive,
		replyClient:  &http.Client{Timeout: constants.DefaultTimeout},
		replyBaseURL: defaultReplyBaseURL,
		channelToken: channelToken,
	}
}

// Accept records an inbound event and returns the task payload for it.
// Non-text events and redelivered events return nil.
func (s *WebhookService) Accept(ctx context.Context, event dto.WebhookEvent, raw []byte) (*dto.ProcessEventPayload, *errors.AppError) {
	if event.Type != "message" || event.Message == nil || event.Message.Type != "text" {
		return nil, nil
	}

	delivery := &entity.WebhookDelivery{
		ID:      uuid.New(),
		EventID: event.WebhookEventID,
		Payload: string(raw),
		Status:  entity.DeliveryStatusPending,
	}
	inserted, err := s.repo.InsertIfNew(ctx, delivery)
	if err != nil {
		logger.Error("WebhookService:Accept:InsertError", "error", err, "event_id", event.WebhookEventID)
		return nil, errors.NewAppError(errors.ErrCreateFailed, "failed to record webhook delivery", err)
	}
	if !inserted {
		logger.Info("WebhookService:Accept:Duplicate", "event_id", event.WebhookEventID)
		return nil, nil
	}

	if s.archive != nil {
		key := fmt.Sprintf("webhooks/%s/%s.json", time.Now().UTC().Format("2006/01/02"), delivery.ID)
		if err := s.archive.Put(ctx, key, raw, "application/json"); err != nil {
			logger.Warn("WebhookService:Accept:ArchiveError", "error", err, "key", key)
		}
	}

	return &dto.ProcessEventPayload{
		DeliveryID: delivery.ID,
		ReplyToken: event.ReplyToken,
		Text:       event.Message.Text,
	}, nil
}

// ProcessEvent runs the full pipeline for one accepted delivery. The
// returned error's code decides whether the task is retried.
func (s *WebhookService) ProcessEvent(ctx context.Context, p *dto.ProcessEventPayload) *errors.AppError {
	parsed, appErr := s.parser.ParseEvent(ctx, p.Text, time.Now())
	if appErr != nil {
		return appErr
	}
	if parsed == nil {
		s.markStatus(ctx, p.DeliveryID, entity.DeliveryStatusSkipped, "")
		s.reply(ctx, p.ReplyToken, "Sorry, I couldn't find an event in that message.")
		return nil
	}

	slotID, appErr := s.resolver.Resolve(ctx, parsed.Label)
	if appErr != nil {
		// Never substitute a default color: failing the request is better
		// than a wrong assignment.
		logger.Error("WebhookService:ProcessEvent:ResolveFailed",
			"code", appErr.Code, "error", appErr, "delivery_id", p.DeliveryID)
		return appErr
	}

	event := buildCalendarEvent(parsed, slotID)
	inserted, appErr := s.calendar.InsertEvent(ctx, event)
	if appErr != nil {
		return appErr
	}

	s.markStatus(ctx, p.DeliveryID, entity.DeliveryStatusProcessed, "")
	s.reply(ctx, p.ReplyToken, fmt.Sprintf("Scheduled: %s\n%s\n%s",
		inserted.Summary, formatEventTime(inserted.Start), inserted.HTMLLink))
	return nil
}

// HandleProcessEventTask adapts ProcessEvent to the task queue. Retryable
// failures bubble up so the queue retries them; terminal ones are recorded
// and dropped.
func (s *WebhookService) HandleProcessEventTask(ctx context.Context, t *asynq.Task) error {
	var p dto.ProcessEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("malformed task payload: %v: %w", err, asynq.SkipRetry)
	}

	appErr := s.ProcessEvent(ctx, &p)
	if appErr == nil {
		return nil
	}

	if appErr.Code == errors.ErrNoCapacity || appErr.Code == errors.ErrConfiguration {
		s.markStatus(ctx, p.DeliveryID, entity.DeliveryStatusFailed, appErr.Error())
		s.reply(ctx, p.ReplyToken, "Sorry, I couldn't schedule that. An operator needs to look at the color table.")
		return fmt.Errorf("%v: %w", appErr, asynq.SkipRetry)
	}
	return appErr
}

func (s *WebhookService) markStatus(ctx context.Context, id uuid.UUID, status entity.DeliveryStatus, procErr string) {
	if err := s.repo.MarkStatus(ctx, id, status, procErr); err != nil {
		logger.Warn("WebhookService:MarkStatus:Error", "error", err, "delivery_id", id, "status", status)
	}
}

type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// reply pushes a confirmation back to the chat. Best effort: the calendar
// event already exists, so a failed reply is only logged.
func (s *WebhookService) reply(ctx context.Context, replyToken, text string) {
	if replyToken == "" || s.channelToken == "" {
		return
	}

	payload, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []replyMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		logger.Warn("WebhookService:Reply:MarshalError", "error", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.replyBaseURL+"/v2/bot/message/reply", bytes.NewReader(payload))
	if err != nil {
		logger.Warn("WebhookService:Reply:NewRequestError", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.channelToken)

	resp, err := s.replyClient.Do(req)
	if err != nil {
		logger.Warn("WebhookService:Reply:DoRequestError", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Warn("WebhookService:Reply:APIError", "status", resp.StatusCode, "body", string(body))
	}
}

func buildCalendarEvent(parsed *parserDto.ParsedEvent, slotID int) *calendarDto.CalendarEvent {
	event := &calendarDto.CalendarEvent{
		Summary:  parsed.Title,
		Location: parsed.Location,
	}

	if slotID > 0 {
		event.ColorID = strconv.Itoa(slotID)
	}

	end := parsed.End
	if end == "" {
		end = parsed.Start
	}

	if parsed.AllDay {
		event.Start = calendarDto.EventTime{Date: parsed.Start}
		event.End = calendarDto.EventTime{Date: end}
	} else {
		event.Start = calendarDto.EventTime{DateTime: parsed.Start}
		event.End = calendarDto.EventTime{DateTime: end}
	}
	return event
}

func formatEventTime(t calendarDto.EventTime) string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
