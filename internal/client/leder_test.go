package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/metrics"
)

func testConfig(timeout int) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  timeout,
			IdleConnections: 10,
		},
	}
}

func TestLederClient_PostJSON(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want %q", ct, "application/json")
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q, want %q", ua, userAgent)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewLederClient(testConfig(10), logger, nil)

	payload := map[string]any{"dni": "12345678", "token": "secret"}
	resp, err := c.PostJSON(context.Background(), srv.URL+"/v1.7/persona/sueldos", "/v1.7/persona/sueldos", payload)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if string(resp.Body) != `{"status":"ok"}` {
		t.Errorf("body = %q, want %q", string(resp.Body), `{"status":"ok"}`)
	}
	if diff := cmp.Diff(payload, gotBody); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestLederClient_PostJSON_Error(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewLederClient(testConfig(1), logger, nil)

	_, err := c.PostJSON(context.Background(), "http://127.0.0.1:1/nonexistent", "/nonexistent", map[string]any{})
	if err == nil {
		t.Fatal("PostJSON() expected error for unreachable host, got nil")
	}
}

func TestLederClient_PostJSON_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Simulate a slow upstream; the request should be canceled before this completes.
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewLederClient(testConfig(30), logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.PostJSON(ctx, srv.URL+"/slow", "/slow", map[string]any{})
	if err == nil {
		t.Fatal("PostJSON() expected error for canceled context, got nil")
	}
}

func TestLederClient_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	cfg := testConfig(10)
	cfg.Upstream.MaxBodyBytes = 16
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewLederClient(cfg, logger, nil)

	_, err := c.PostJSON(context.Background(), srv.URL, "/big", map[string]any{})
	if err == nil {
		t.Fatal("PostJSON() expected error for oversized body, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Errorf("error = %q, want mention of size limit", err)
	}
}

func TestLederClient_RecordsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	m := metrics.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewLederClient(testConfig(10), logger, m)

	if _, err := c.PostJSON(context.Background(), srv.URL, "/v1.7/empresa/sunat", map[string]any{}); err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, f := range families {
		if f.GetName() != "factiliza_proxy_upstream_responses_total" {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["endpoint"] == "/v1.7/empresa/sunat" && labels["status_code"] == "418" {
				return
			}
		}
	}
	t.Error("expected factiliza_proxy_upstream_responses_total with endpoint=/v1.7/empresa/sunat, status_code=418")
}
