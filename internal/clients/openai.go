package clients

import (
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const openAIRequestTimeout = 60 * time.Second // Timeout for individual OpenAI API requests

// NewOpenAIClient builds the single authenticated OpenAI client the
// classifier is constructed with. Constructed once in main; there is no
// package-global instance to initialize.
func NewOpenAIClient(apiKey string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("[OpenAIClient] missing OpenAI API key")
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: openAIRequestTimeout}

	return openai.NewClientWithConfig(config), nil
}
