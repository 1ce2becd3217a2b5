package service

import (
	"fmt"
	"time"
)

// notAnEvent is the sentinel the model returns for messages that do not
// describe a schedulable event.
const notAnEvent = "NOT_AN_EVENT"

const promptTemplate = `You are a scheduling assistant. Extract a single calendar event from the message below.

Current date and time: %s

Respond with exactly one JSON object and nothing else, using this shape:
{"title": string, "start": string, "end": string, "all_day": boolean, "location": string, "label": string}

Rules:
- "start" and "end" are RFC 3339 timestamps in the current timezone. For all-day events use YYYY-MM-DD and set "all_day" to true.
- Resolve relative dates ("tomorrow", "next Friday") against the current date above.
- If no end time is given, assume one hour after the start.
- "label" is the client or project tag, taken from a word prefixed with # if present, otherwise empty.
- "location" is empty if none is mentioned.
- If the message does not describe a schedulable event, respond with exactly %s instead of JSON.

Message:
%s`

func buildPrompt(text string, now time.Time) string {
	return fmt.Sprintf(promptTemplate, now.Format(time.RFC3339), notAnEvent, text)
}
