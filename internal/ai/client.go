package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Resolution is the model's answer for one reminder text.
type Resolution struct {
	Found    bool   `json:"found"`
	DateTime string `json:"datetime"`
	Phrase   string `json:"phrase"`
}

const systemPromptTemplate = `You extract the moment a reminder should fire from a short message.
The message may be English or Indonesian.

Current local time: %s

Rules:
1. If the message names a specific date and/or time of day, set found = true.
2. datetime is that moment in local time, format YYYY-MM-DD HH:MM (24-hour).
3. phrase is the exact substring of the message that expresses the time, copied verbatim.
4. If the message only names a day without a time of day, or names no time at all, set found = false.
5. Never invent a time that the message does not state.`

var resolutionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"found": {"type": "boolean", "description": "Whether the message states a date-time"},
		"datetime": {"type": "string", "description": "Local date-time, YYYY-MM-DD HH:MM"},
		"phrase": {"type": "string", "description": "Verbatim substring holding the time expression"}
	},
	"required": ["found", "datetime", "phrase"],
	"additionalProperties": false
}`)

// Resolve asks the model for the trigger time in text. It is used only after
// the deterministic matchers gave up.
func (c *Client) Resolve(ctx context.Context, now time.Time, text string) (time.Time, string, bool, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "reminder_time",
				Schema: resolutionSchema,
				Strict: true,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("failed to call AI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return time.Time{}, "", false, fmt.Errorf("no response from AI")
	}

	return parseResolution(resp.Choices[0].Message.Content, now.Location())
}

func parseResolution(content string, loc *time.Location) (time.Time, string, bool, error) {
	var res Resolution
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return time.Time{}, "", false, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if !res.Found {
		return time.Time{}, "", false, nil
	}

	at, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(res.DateTime), loc)
	if err != nil {
		return time.Time{}, "", false, fmt.Errorf("invalid datetime %q from AI: %w", res.DateTime, err)
	}
	return at, strings.TrimSpace(res.Phrase), true, nil
}
