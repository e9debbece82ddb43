// Package classify assigns each post a topic category from a fixed set and a
// 1-10 controversy score using an OpenAI chat completion.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	classifierModel       = openai.GPT3Dot5Turbo
	classifierTemperature = 0.3
	classifierMaxTokens   = 100
)

// CompletionClient is the slice of the OpenAI client the classifier needs.
type CompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Classifier holds the authenticated client it was constructed with; there is
// no package-level state to initialize.
type Classifier struct {
	client CompletionClient
	model  string
}

func New(client CompletionClient) *Classifier {
	return &Classifier{client: client, model: classifierModel}
}

// Categorize classifies text and never fails: any call or parse problem is
// logged and degrades to the fallback pair.
func (c *Classifier) Categorize(ctx context.Context, text string) (string, int) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		Temperature: classifierTemperature,
		MaxTokens:   classifierMaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		slog.Warn("[Classifier] Categorization failed",
			slog.String("error", err.Error()))
		return FallbackCategory, FallbackControversy
	}
	if len(resp.Choices) == 0 {
		slog.Warn("[Classifier] Completion returned no choices")
		return FallbackCategory, FallbackControversy
	}

	return parseCategorization(resp.Choices[0].Message.Content)
}

func buildPrompt(text string) string {
	return fmt.Sprintf(`Given the following news post, do the following:

1. Categorize it into one of these categories: %s.
2. Rate how controversial it is on a scale from 1 to 10 (1 = not controversial, 10 = extremely controversial).

Respond in this JSON format:
{"category": "your-category", "controversy": number}

Post:
"%s"`, categoryList(), text)
}

type categorizationPayload struct {
	Category    string          `json:"category"`
	Controversy json.RawMessage `json:"controversy"`
}

// parseCategorization extracts the category/controversy pair from the model's
// reply. Unknown categories fall back to Uncategorized rather than passing
// through free-form labels.
func parseCategorization(content string) (string, int) {
	cleaned := stripFences(content)

	var payload categorizationPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		slog.Warn("[Classifier] Failed to parse model response",
			slog.String("error", err.Error()),
			slog.String("response", snippet(content)))
		return FallbackCategory, FallbackControversy
	}

	category := payload.Category
	if !IsKnownCategory(category) {
		if category != "" {
			slog.Warn("[Classifier] Model returned unknown category",
				slog.String("category", category))
		}
		category = FallbackCategory
	}

	return category, coerceControversy(payload.Controversy)
}

// coerceControversy accepts a JSON number or a numeric string, clamps to
// [1,10], and defaults to 1 on anything else.
func coerceControversy(raw json.RawMessage) int {
	if len(raw) == 0 {
		return FallbackControversy
	}

	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		slog.Warn("[Classifier] Non-numeric controversy value",
			slog.String("value", string(raw)))
		return FallbackControversy
	}

	n := int(f)
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}

// stripFences removes markdown code fences the model sometimes wraps JSON in.
func stripFences(response string) string {
	cleaned := strings.TrimSpace(response)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimPrefix(cleaned, "\n")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

func snippet(s string) string {
	const max = 100
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
