package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

func sampleRecord() models.Record {
	return models.NewRecord(time.UnixMilli(1740787200123), "2025-03-01", map[models.UnitKey]models.UnitValue{
		models.UnitSUR: {OrderValue: 12000, DispatchValue: 9000},
		models.UnitCKU: {OrderValue: 500, DispatchValue: 0},
	})
}

func TestNewWithoutKeyIsUnavailable(t *testing.T) {
	g, err := New(Config{APIKey: "  "})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("New error = %v, want ErrUnavailable", err)
	}
	if g != nil {
		t.Error("expected nil summarizer without key")
	}
}

func TestSummarize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/test-model:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" {
			t.Errorf("missing API key header")
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, "SUR: Order Value = 12,000") {
			t.Errorf("prompt missing unit breakdown:\n%s", prompt)
		}
		if req.GenerationConfig["responseMimeType"] != "application/json" {
			t.Errorf("responseMimeType = %v", req.GenerationConfig["responseMimeType"])
		}

		report := `{"summary":"Solid day","insights":["SUR dispatched 75%"],"status":"EXCELLENT"}`
		resp := map[string]any{
			"candidates": []any{
				map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": report}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g, err := New(Config{APIKey: "secret", Model: "test-model", BaseURL: srv.URL + "/v1beta/"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	report, err := g.Summarize(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if report.Summary != "Solid day" {
		t.Errorf("Summary = %q", report.Summary)
	}
	if len(report.Insights) != 1 {
		t.Errorf("Insights = %v", report.Insights)
	}
	if report.Status != StatusExcellent {
		t.Errorf("Status = %q, want %q", report.Status, StatusExcellent)
	}
}

func TestSummarizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"quota"}}`},
		{"no candidates", http.StatusOK, `{"candidates":[]}`},
		{"non-json report", http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"not json"}]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			g, err := New(Config{APIKey: "k", Model: "m", BaseURL: srv.URL})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if _, err := g.Summarize(context.Background(), sampleRecord()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := map[Status]Status{
		"warning":   StatusWarning,
		" Normal ":  StatusNormal,
		"excellent": StatusExcellent,
		"critical":  StatusNormal,
		"":          StatusNormal,
	}
	for in, want := range tests {
		if got := normalizeStatus(in); got != want {
			t.Errorf("normalizeStatus(%q) = %q, want %q", in, got, want)
		}
	}
}
