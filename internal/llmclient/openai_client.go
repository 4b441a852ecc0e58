// File: internal/llmclient/openai_client.go
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
)

const (
	defaultOpenAIChatEndpoint      = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIEmbeddingEndpoint = "https://api.openai.com/v1/embeddings"
)

// OpenAIClient implements schemas.LLMClient and schemas.EmbeddingClient for
// the OpenAI API. The same client serves chat completions (appraisals) and
// embeddings (semantic search vectors).
type OpenAIClient struct {
	apiKey            string
	chatEndpoint      string
	embeddingEndpoint string
	embeddingModel    string
	httpClient        *http.Client
	logger            *zap.Logger
	config            config.LLMModelConfig
}

// -- OpenAI API Request/Response Structures (internal to this file) --

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIChatRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature"`
	TopP           float32               `json:"top_p,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIClient initializes the client.
func NewOpenAIClient(cfg config.LLMModelConfig, embeddingModel string, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API Key is required")
	}

	chatEndpoint := cfg.Endpoint
	if chatEndpoint == "" {
		chatEndpoint = defaultOpenAIChatEndpoint
	}
	// The embeddings endpoint lives next to the chat endpoint on custom
	// (test/proxy) deployments.
	embeddingEndpoint := defaultOpenAIEmbeddingEndpoint
	if cfg.Endpoint != "" {
		embeddingEndpoint = strings.TrimSuffix(cfg.Endpoint, "/chat/completions") + "/embeddings"
	}

	return &OpenAIClient{
		apiKey:            cfg.APIKey,
		chatEndpoint:      chatEndpoint,
		embeddingEndpoint: embeddingEndpoint,
		embeddingModel:    embeddingModel,
		config:            cfg,
		httpClient: &http.Client{
			Timeout: cfg.APITimeout,
		},
		logger: logger.Named("llm_client.openai"),
	}, nil
}

// Generate sends the prompts to the chat completions API and returns the
// generated content, retrying transient failures with exponential backoff.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	payload := openAIChatRequest{
		Model: c.config.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		Temperature: req.Options.Temperature,
		TopP:        c.config.TopP,
		MaxTokens:   c.config.MaxTokens,
	}
	if req.Options.ForceJSONFormat {
		payload.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	var responseContent string
	operation := func() error {
		respBody, err := c.post(ctx, c.chatEndpoint, body)
		if err != nil {
			return err
		}

		var chatResp openAIChatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(chatResp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("openai API returned no choices"))
		}

		c.logger.Info("LLM generation complete (OpenAI)",
			zap.Int("prompt_tokens", chatResp.Usage.PromptTokens),
			zap.Int("completion_tokens", chatResp.Usage.CompletionTokens),
			zap.Int("total_tokens", chatResp.Usage.TotalTokens),
		)

		responseContent = chatResp.Choices[0].Message.Content
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return responseContent, nil
}

// Embed returns the embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openAIEmbeddingRequest{
		Model: c.embeddingModel,
		Input: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	var embedding []float32
	operation := func() error {
		respBody, err := c.post(ctx, c.embeddingEndpoint, body)
		if err != nil {
			return err
		}

		var embResp openAIEmbeddingResponse
		if err := json.Unmarshal(respBody, &embResp); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode embedding response: %w", err))
		}
		if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
			return backoff.Permanent(fmt.Errorf("openai API returned no embedding data"))
		}

		embedding = embResp.Data[0].Embedding
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(c.newBackOff(), ctx)); err != nil {
		return nil, err
	}
	return embedding, nil
}

// Close releases client resources. The shared HTTP client needs no teardown.
func (c *OpenAIClient) Close() error { return nil }

func (c *OpenAIClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second
	return b
}

// post executes one POST attempt and classifies HTTP errors as transient or
// permanent for the retry loop.
func (c *OpenAIClient) post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Network error during OpenAI request, retrying...", zap.Error(err))
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("OpenAI API returned error status", zap.Int("status", resp.StatusCode), zap.String("response", string(respBody)))
		err := fmt.Errorf("openai API error: status %d, body: %s", resp.StatusCode, string(respBody))
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
			return nil, err // Transient errors, retry.
		default:
			return nil, backoff.Permanent(err)
		}
	}
	return respBody, nil
}
