package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		messages, _ := req["messages"].([]any)
		if len(messages) != 2 {
			t.Errorf("expected system and user messages, got %v", messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"dropped":[]}`}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, Model: "test-model", APIKey: "test-key"})
	content, err := client.Complete(context.Background(), "system prompt", "user payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content != `{"dropped":[]}` {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestCompleteMisconfigured(t *testing.T) {
	t.Parallel()

	client := NewClient(Options{})
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error for missing endpoint and model")
	}
}

func TestCompleteAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, Model: "test-model"})
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL, Model: "test-model"})
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
