// Package groq implements the provider contract against Groq's
// OpenAI-compatible chat completions API.
package groq

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vraj62023/MultimodalChatbot/internal/provider"
)

const (
	// Name is the provenance identifier reported by this adapter.
	Name = "groq"

	defaultBaseURL     = "https://api.groq.com/openai/v1"
	defaultModel       = "llama-3.3-70b-versatile"
	defaultVisionModel = "llama-3.2-90b-vision-preview"

	defaultMaxTokens = 1024
)

// Config holds the credentials and model settings for the adapter.
// VisionModel is used instead of Model whenever the request carries an image.
type Config struct {
	APIKey      string
	Model       string
	VisionModel string
	BaseURL     string
	Client      *http.Client
}

// Client talks to the chat completions endpoint.
type Client struct {
	apiKey      string
	model       string
	visionModel string
	baseURL     string
	http        *http.Client
}

// New builds a Groq adapter from config, filling in endpoint defaults.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = defaultVisionModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Client{
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		visionModel: cfg.VisionModel,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		http:        cfg.Client,
	}
}

// Name implements provider.Provider.
func (c *Client) Name() string { return Name }

// Respond implements provider.Provider.
func (c *Client) Respond(ctx context.Context, req provider.Request) (string, error) {
	if c.apiKey == "" {
		return "", provider.NewError(Name, fmt.Errorf("api key is not set"))
	}

	body := c.buildRequest(req)

	payload, err := json.Marshal(body)
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(httpReq)
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("send request: %w", err))
	}
	defer res.Body.Close()

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("read response body: %w", err))
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", provider.NewError(Name, fmt.Errorf("non-2xx status %d: %s", res.StatusCode, truncate(string(respBody), 400)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", provider.NewError(Name, fmt.Errorf("unmarshal response: %w", err))
	}

	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", provider.NewError(Name, fmt.Errorf("no choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}

// buildRequest translates the uniform request into the chat completions
// shape. History role mapping: model -> assistant, everything else -> user.
// The new prompt is appended as the final user turn; image-bearing requests
// switch to the vision model and wrap the prompt in multimodal content parts.
func (c *Client) buildRequest(req provider.Request) chatCompletionRequest {
	messages := make([]chatMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == provider.RoleModel {
			role = "assistant"
		}
		messages = append(messages, chatMessage{Role: role, Content: turn.Content})
	}

	out := chatCompletionRequest{
		Model:       c.model,
		Temperature: 0.7,
		MaxTokens:   defaultMaxTokens,
	}

	if len(req.Image) > 0 {
		prompt := req.Prompt
		if prompt == "" {
			prompt = "Analyze this image."
		}
		dataURL := fmt.Sprintf("data:%s;base64,%s", req.MimeType, base64.StdEncoding.EncodeToString(req.Image))
		messages = append(messages, chatMessage{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		})
		out.Model = c.visionModel
		out.Temperature = 0.5
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	out.Messages = messages
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
