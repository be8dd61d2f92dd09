package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	openaiBaseURL    = "https://api.openai.com/v1/chat/completions"
	openaiModel      = "gpt-3.5-turbo"
	openaiMaxTokens  = 500
	openaiTemp       = 0.7
	openaiMaxRetries = 3
	openaiRetryDelay = 1 * time.Second
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer is the one operation the chat personas need from a model.
type Completer interface {
	Complete(ctx context.Context, system string, history []Message, user string) (string, error)
}

type OpenAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: openaiBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, history []Message, user string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: "system", Content: system})
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: user})

	body, err := json.Marshal(chatRequest{
		Model:       openaiModel,
		Messages:    msgs,
		MaxTokens:   openaiMaxTokens,
		Temperature: openaiTemp,
	})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < openaiMaxRetries; attempt++ {
		if attempt > 0 {
			delay := openaiRetryDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("openai request: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("openai response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var ae apiError
			if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
				lastErr = fmt.Errorf("openai (%d): %s", resp.StatusCode, ae.Error.Message)
			} else {
				lastErr = fmt.Errorf("openai (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var cr chatResponse
		if err := json.Unmarshal(respBody, &cr); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(cr.Choices) == 0 {
			return "", fmt.Errorf("no completion returned")
		}
		return cr.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("openai: retries exhausted: %w", lastErr)
}
