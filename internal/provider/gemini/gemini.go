// Package gemini implements the provider contract against Google's
// Generative Language REST API.
package gemini

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
	Name = "gemini"

	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
)

// Config holds the credentials and endpoint settings for the adapter.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Client  *http.Client
}

// Client talks to the generateContent endpoint.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// New builds a Gemini adapter from config, filling in endpoint defaults.
func New(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		http:    cfg.Client,
	}
}

// Name implements provider.Provider.
func (c *Client) Name() string { return Name }

// Respond implements provider.Provider.
func (c *Client) Respond(ctx context.Context, req provider.Request) (string, error) {
	if c.apiKey == "" {
		return "", provider.NewError(Name, fmt.Errorf("api key is not set"))
	}

	body := generateContentRequest{Contents: buildContents(req)}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("marshal request: %w", err))
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", provider.NewError(Name, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

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

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", provider.NewError(Name, fmt.Errorf("unmarshal response: %w", err))
	}

	text := extractText(parsed)
	if text == "" {
		return "", provider.NewError(Name, fmt.Errorf("empty completion in response"))
	}
	return text, nil
}

// buildContents translates the uniform request into Gemini content blocks.
// Role mapping: user -> user, model -> model. The new prompt goes last as
// a user turn, with the image attached as inlineData when present.
func buildContents(req provider.Request) []content {
	contents := make([]content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := "user"
		if turn.Role == provider.RoleModel {
			role = "model"
		}
		contents = append(contents, content{
			Role:  role,
			Parts: []part{{Text: turn.Content}},
		})
	}

	final := content{Role: "user"}
	if req.Prompt != "" {
		final.Parts = append(final.Parts, part{Text: req.Prompt})
	}
	if len(req.Image) > 0 {
		final.Parts = append(final.Parts, part{
			InlineData: &inlineData{
				MimeType: req.MimeType,
				Data:     base64.StdEncoding.EncodeToString(req.Image),
			},
		})
	}
	if len(final.Parts) == 0 {
		final.Parts = []part{{Text: ""}}
	}

	return append(contents, final)
}

func extractText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
