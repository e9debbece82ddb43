package classify

import (
	"context"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompletionClient struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletionClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func TestCategorize_WellFormedResponse(t *testing.T) {
	client := &fakeCompletionClient{content: `{"category": "Technology", "controversy": 7}`}
	c := New(client)

	category, controversy := c.Categorize(context.Background(), "New chip announced")

	assert.Equal(t, "Technology", category)
	assert.Equal(t, 7, controversy)
}

func TestCategorize_PromptEmbedsTextAndCategories(t *testing.T) {
	client := &fakeCompletionClient{content: `{"category": "Health", "controversy": 2}`}
	c := New(client)

	c.Categorize(context.Background(), "Vaccine trial results")

	require.Len(t, client.lastReq.Messages, 1)
	prompt := client.lastReq.Messages[0].Content
	assert.Contains(t, prompt, "Vaccine trial results")
	for _, category := range Categories {
		assert.Contains(t, prompt, category)
	}
	assert.InDelta(t, 0.3, client.lastReq.Temperature, 0.001)
	assert.Equal(t, 100, client.lastReq.MaxTokens)
}

func TestCategorize_CallFailureFallsBack(t *testing.T) {
	client := &fakeCompletionClient{err: errors.New("api unavailable")}
	c := New(client)

	category, controversy := c.Categorize(context.Background(), "whatever")

	assert.Equal(t, FallbackCategory, category)
	assert.Equal(t, 1, controversy)
}

func TestParseCategorization(t *testing.T) {
	cases := []struct {
		name            string
		content         string
		wantCategory    string
		wantControversy int
	}{
		{
			"well formed",
			`{"category": "Technology", "controversy": 7}`,
			"Technology", 7,
		},
		{
			"fenced json",
			"```json\n{\"category\": \"Sports\", \"controversy\": 3}\n```",
			"Sports", 3,
		},
		{
			"bare fence",
			"```\n{\"category\": \"Health\", \"controversy\": 5}\n```",
			"Health", 5,
		},
		{
			"string controversy coerced",
			`{"category": "Technology", "controversy": "9"}`,
			"Technology", 9,
		},
		{
			"float controversy truncated",
			`{"category": "Education", "controversy": 4.8}`,
			"Education", 4,
		},
		{
			"controversy above range clamped",
			`{"category": "Sports", "controversy": 15}`,
			"Sports", 10,
		},
		{
			"controversy below range clamped",
			`{"category": "Sports", "controversy": 0}`,
			"Sports", 1,
		},
		{
			"missing controversy defaults",
			`{"category": "World News"}`,
			"World News", 1,
		},
		{
			"non-numeric controversy defaults",
			`{"category": "Lifestyle", "controversy": "mild"}`,
			"Lifestyle", 1,
		},
		{
			"unknown category falls back",
			`{"category": "Gossip", "controversy": 6}`,
			FallbackCategory, 6,
		},
		{
			"malformed json falls back",
			`Sure! The category is Technology.`,
			FallbackCategory, 1,
		},
		{
			"empty content falls back",
			"",
			FallbackCategory, 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			category, controversy := parseCategorization(tc.content)
			assert.Equal(t, tc.wantCategory, category)
			assert.Equal(t, tc.wantControversy, controversy)
		})
	}
}

func TestCategories_TwelvePlusFallback(t *testing.T) {
	assert.Len(t, Categories, 12)
	assert.False(t, IsKnownCategory(FallbackCategory))
	for _, c := range Categories {
		assert.True(t, IsKnownCategory(c))
	}
}
