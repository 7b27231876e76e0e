package entities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractFiltersAndDeduplicates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entities": []map[string]string{
				{"text": "Imran Khan", "label": "PERSON"},
				{"text": "imran khan", "label": "PERSON"},
				{"text": "Islamabad", "label": "GPE"},
				{"text": "yesterday afternoon", "label": "TIME"},
				{"text": "   ", "label": "ORG"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL})
	entities, err := client.Extract(context.Background(), "some article text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities after filtering, got %v", entities)
	}
	if entities[0] != "imran khan" || entities[1] != "islamabad" {
		t.Fatalf("unexpected entities: %v", entities)
	}
}

func TestExtractServiceError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL})
	if _, err := client.Extract(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestExtractEmptyResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"entities": []any{}})
	}))
	defer server.Close()

	client := NewClient(Options{Endpoint: server.URL})
	entities, err := client.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entities) != 0 {
		t.Fatalf("expected no entities, got %v", entities)
	}
}
