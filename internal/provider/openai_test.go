package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestOpenAIGenerate(t *testing.T) {
	var gotAuth string
	var gotReq openAIChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("got path %q, want /chat/completions", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": "mood: wistful"}},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{
		ID:           "local",
		Type:         "openai",
		Endpoint:     srv.URL,
		APIKey:       "sk-test",
		Model:        "gpt-4o-mini",
		MaxTokens:    999,
		SystemPrompt: "You are a poetic assistant.",
	}, zap.NewNop())

	text, err := p.Generate(context.Background(), "describe this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "mood: wistful" {
		t.Fatalf("got %q, want %q", text, "mood: wistful")
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("got auth %q, want bearer token", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" || gotReq.MaxTokens != 999 {
		t.Fatalf("request carried model %q max_tokens %d", gotReq.Model, gotReq.MaxTokens)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("got messages %+v, want system then user", gotReq.Messages)
	}
	if gotReq.Messages[1].Content != "describe this" {
		t.Fatalf("got user prompt %q", gotReq.Messages[1].Content)
	}
}

func TestOpenAIGenerateEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"choices": []interface{}{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{ID: "local", Endpoint: srv.URL}, zap.NewNop())
	if _, err := p.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(Config{ID: "local", Endpoint: srv.URL}, zap.NewNop())
	if _, err := p.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("got path %q, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant-test" {
			t.Errorf("got api key %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got == "" {
			t.Error("missing anthropic-version header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.System != "You are a poetic assistant." {
			t.Errorf("got system %q", req.System)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{
				{"type": "text", "text": "mood: "},
				{"type": "text", "text": "jubilant"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	p := NewAnthropicProvider(Config{
		ID:           "claude",
		Type:         "anthropic",
		Endpoint:     srv.URL,
		APIKey:       "sk-ant-test",
		Model:        "claude-3-5-haiku-20241022",
		SystemPrompt: "You are a poetic assistant.",
	}, zap.NewNop())

	text, err := p.Generate(context.Background(), "describe this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "mood: jubilant" {
		t.Fatalf("got %q, want concatenated text blocks", text)
	}
}

func TestHealthChecks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/models":
			json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
		case "/messages":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"content": []map[string]string{{"type": "text", "text": "ok"}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	oai := NewOpenAIProvider(Config{ID: "oai", Endpoint: srv.URL}, zap.NewNop())
	if err := oai.HealthCheck(context.Background()); err != nil {
		t.Fatalf("openai health: %v", err)
	}

	ant := NewAnthropicProvider(Config{ID: "ant", Endpoint: srv.URL}, zap.NewNop())
	if err := ant.HealthCheck(context.Background()); err != nil {
		t.Fatalf("anthropic health: %v", err)
	}
}
