package groq_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vraj62023/MultimodalChatbot/internal/provider"
	"github.com/vraj62023/MultimodalChatbot/internal/provider/groq"
)

// capturedRequest decodes Content as raw JSON since it is a string for
// text turns and an array for multimodal turns.
type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"messages"`
}

const okResponse = `{"choices":[{"message":{"content":"sure thing"}}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *groq.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return groq.New(groq.Config{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Client:  srv.Client(),
	})
}

func TestRespondWireShape(t *testing.T) {
	var captured capturedRequest
	var gotAuth, gotPath string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		io.WriteString(w, okResponse)
	})

	text, err := c.Respond(context.Background(), provider.Request{
		Prompt: "and you?",
		History: []provider.Turn{
			{Role: provider.RoleUser, Content: "hi"},
			{Role: provider.RoleModel, Content: "hello"},
		},
	})
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}
	if text != "sure thing" {
		t.Fatalf("unexpected text: %q", text)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header wrong: %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if captured.Model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model: %s", captured.Model)
	}
	if captured.MaxTokens != 1024 {
		t.Fatalf("unexpected max_tokens: %d", captured.MaxTokens)
	}

	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "user" || captured.Messages[1].Role != "assistant" {
		t.Fatalf("history roles wrong: %s %s", captured.Messages[0].Role, captured.Messages[1].Role)
	}
	var finalText string
	if err := json.Unmarshal(captured.Messages[2].Content, &finalText); err != nil {
		t.Fatalf("final content should be a plain string: %v", err)
	}
	if finalText != "and you?" {
		t.Fatalf("final turn wrong: %q", finalText)
	}
}

func TestRespondImageSwitchesToVisionModel(t *testing.T) {
	var captured capturedRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &captured)
		io.WriteString(w, okResponse)
	})

	img := []byte{0xff, 0xd8, 0xff}
	_, err := c.Respond(context.Background(), provider.Request{
		Image:    img,
		MimeType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("Respond err: %v", err)
	}

	if captured.Model != "llama-3.2-90b-vision-preview" {
		t.Fatalf("image request must use the vision model, got %s", captured.Model)
	}
	if captured.Temperature != 0.5 {
		t.Fatalf("unexpected temperature: %v", captured.Temperature)
	}

	var parts []struct {
		Type     string `json:"type"`
		Text     string `json:"text"`
		ImageURL *struct {
			URL string `json:"url"`
		} `json:"image_url"`
	}
	final := captured.Messages[len(captured.Messages)-1]
	if err := json.Unmarshal(final.Content, &parts); err != nil {
		t.Fatalf("multimodal content should be an array: %v", err)
	}
	if len(parts) != 2 || parts[0].Type != "text" || parts[1].Type != "image_url" {
		t.Fatalf("unexpected content parts: %+v", parts)
	}
	if parts[0].Text != "Analyze this image." {
		t.Fatalf("image-only request needs the default prompt, got %q", parts[0].Text)
	}
	wantURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(img)
	if parts[1].ImageURL == nil || parts[1].ImageURL.URL != wantURL {
		t.Fatalf("image not encoded as a data URL: %+v", parts[1].ImageURL)
	}
}

func TestRespondUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limit reached"}}`, http.StatusTooManyRequests)
	})

	_, err := c.Respond(context.Background(), provider.Request{Prompt: "hi"})
	var provErr *provider.Error
	if !errors.As(err, &provErr) {
		t.Fatalf("expected *provider.Error, got %T: %v", err, err)
	}
	if provErr.Provider != groq.Name {
		t.Fatalf("error must name its provider, got %q", provErr.Provider)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("status should surface in the error: %v", err)
	}
}

func TestRespondNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices":[]}`)
	})

	_, err := c.Respond(context.Background(), provider.Request{Prompt: "hi"})
	var provErr *provider.Error
	if !errors.As(err, &provErr) {
		t.Fatalf("empty choices must be a provider error, got %v", err)
	}
}
