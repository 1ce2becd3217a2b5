package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatcal-api/core/constants"
	"chatcal-api/core/errors"
	"chatcal-api/core/logger"
	"chatcal-api/modules/parser/dto"
)

const defaultGenerateBaseURL = "https://generativelanguage.googleapis.com"

// ParserService turns free-form scheduling text into a structured event via
// an external language model. It is a thin collaborator: all scheduling
// semantics live in the prompt.
type ParserService struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewParserService(apiKey, model string) *ParserService {
	return &ParserService{
		client:  &http.Client{Timeout: constants.DefaultRequestTimeout},
		baseURL: defaultGenerateBaseURL,
		apiKey:  apiKey,
		model:   model,
	}
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// ParseEvent extracts an event from text. A nil event with a nil error
// means the message is not a scheduling request.
func (s *ParserService) ParseEvent(ctx context.Context, text string, now time.Time) (*dto.ParsedEvent, *errors.AppError) {
	ctx, cancel := context.WithTimeout(ctx, constants.DefaultRequestTimeout)
	defer cancel()

	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: buildPrompt(text, now)}}},
		},
		GenerationConfig: generationConfig{Temperature: 0},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to encode parser request", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to create parser request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Error("ParserService:ParseEvent:DoRequest:Error", "error", err)
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to call language model", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		logger.Error("ParserService:ParseEvent:APIError", "status", resp.StatusCode, "body", string(body))
		return nil, errors.NewAppError(errors.ErrInternalServer,
			fmt.Sprintf("language model API error: %d", resp.StatusCode), nil)
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to parse language model response", err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, errors.NewAppError(errors.ErrInternalServer, "language model returned no candidates", nil)
	}

	answer := stripFences(gr.Candidates[0].Content.Parts[0].Text)
	if answer == "" || strings.EqualFold(answer, notAnEvent) {
		return nil, nil
	}

	var parsed dto.ParsedEvent
	if err := json.Unmarshal([]byte(answer), &parsed); err != nil {
		logger.Error("ParserService:ParseEvent:MalformedAnswer", "error", err, "answer", answer)
		return nil, errors.NewAppError(errors.ErrInternalServer, "language model returned malformed event", err)
	}

	if parsed.Title == "" || parsed.Start == "" {
		return nil, errors.NewAppError(errors.ErrInternalServer, "language model returned incomplete event", nil)
	}

	return &parsed, nil
}

// stripFences removes a markdown code fence the model sometimes wraps its
// answer in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
