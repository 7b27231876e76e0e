package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"horse.fit/feeder/internal/feeder"
)

type runnerFunc func(ctx context.Context) (*feeder.RunReport, error)

func (f runnerFunc) Run(ctx context.Context) (*feeder.RunReport, error) {
	return f(ctx)
}

func newTestContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandleTriggerRunStoresReport(t *testing.T) {
	t.Parallel()

	report := &feeder.RunReport{RunID: "run-1", Fetched: 3}
	srv := NewServer(nil, runnerFunc(func(ctx context.Context) (*feeder.RunReport, error) {
		return report, nil
	}), zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost, "/api/v1/runs")
	if err := srv.handleTriggerRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	c, rec = newTestContext(http.MethodGet, "/api/v1/runs/last")
	if err := srv.handleLastRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var body struct {
		Status string `json:"status"`
		Data   struct {
			RunID string `json:"run_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Status != "success" || body.Data.RunID != "run-1" {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}
}

func TestHandleLastRunBeforeAnyRun(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, nil, zerolog.Nop(), Options{})
	c, rec := newTestContext(http.MethodGet, "/api/v1/runs/last")
	if err := srv.handleLastRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any run, got %d", rec.Code)
	}
}

func TestHandleTriggerRunFailure(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, runnerFunc(func(ctx context.Context) (*feeder.RunReport, error) {
		return nil, fmt.Errorf("fetch failed")
	}), zerolog.Nop(), Options{})

	c, rec := newTestContext(http.MethodPost, "/api/v1/runs")
	if err := srv.handleTriggerRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on runner failure, got %d", rec.Code)
	}
}

func TestHandleTriggerRunWithoutRunner(t *testing.T) {
	t.Parallel()

	srv := NewServer(nil, nil, zerolog.Nop(), Options{})
	c, rec := newTestContext(http.MethodPost, "/api/v1/runs")
	if err := srv.handleTriggerRun(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a runner, got %d", rec.Code)
	}
}
