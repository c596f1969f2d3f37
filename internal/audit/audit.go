// Package audit produces an optional AI-written summary of a day's figures.
// Nothing else depends on it succeeding: without an API key, or on any
// failure, callers simply go without a summary.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// ErrUnavailable means no summarizer is configured
var ErrUnavailable = errors.New("audit unavailable: no API key configured")

// Status is the overall verdict of a summary
type Status string

const (
	StatusNormal    Status = "normal"
	StatusWarning   Status = "warning"
	StatusExcellent Status = "excellent"
)

// Report is the summary of one record
type Report struct {
	Summary  string   `json:"summary"`
	Insights []string `json:"insights"`
	Status   Status   `json:"status"`
}

// Summarizer turns a record into a Report
type Summarizer interface {
	Summarize(ctx context.Context, r models.Record) (*Report, error)
}

// Config holds configuration for the Gemini summarizer.
type Config struct {
	// APIKey enables the summarizer; empty means unavailable
	APIKey string

	// Model is the generative model name
	Model string

	// BaseURL is the API root, e.g. "https://generativelanguage.googleapis.com/v1beta"
	BaseURL string

	// Timeout is the HTTP request timeout (default: 30s)
	Timeout time.Duration
}

// Gemini summarizes records with the Gemini generateContent API
type Gemini struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
}

// New returns a Gemini summarizer, or ErrUnavailable without an API key
func New(cfg Config) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrUnavailable
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Gemini{
		apiKey:     cfg.APIKey,
		endpoint:   fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(cfg.BaseURL, "/"), cfg.Model),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content      `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

var reportSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"summary":  map[string]any{"type": "STRING"},
		"insights": map[string]any{"type": "ARRAY", "items": map[string]any{"type": "STRING"}},
		"status":   map[string]any{"type": "STRING", "description": "One of: normal, warning, excellent"},
	},
	"required": []string{"summary", "insights", "status"},
}

// Summarize asks the model for a summary of r
func (g *Gemini) Summarize(ctx context.Context, r models.Record) (*Report, error) {
	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: Prompt(r)}}}},
		GenerationConfig: map[string]any{
			"responseMimeType": "application/json",
			"responseSchema":   reportSchema,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var gen generateResponse
	if err := json.Unmarshal(respBody, &gen); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	if len(gen.Candidates) == 0 || len(gen.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	var report Report
	if err := json.Unmarshal([]byte(gen.Candidates[0].Content.Parts[0].Text), &report); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	report.Status = normalizeStatus(report.Status)
	return &report, nil
}

// Prompt renders the instruction sent to the model
func Prompt(r models.Record) string {
	var b strings.Builder
	b.WriteString("Analyze the following daily dispatch and order data for a manufacturing/business context:\n")
	fmt.Fprintf(&b, "Date: %s\n", r.Date)
	b.WriteString("Units Breakdown:\n")
	for _, u := range models.Units {
		v := r.Unit(u)
		fmt.Fprintf(&b, "- %s: Order Value = %s, Dispatch Value = %s\n", u, humanize.Commaf(v.OrderValue), humanize.Commaf(v.DispatchValue))
	}
	fmt.Fprintf(&b, "Total Order Value: %s\n", humanize.Commaf(r.TotalOrder))
	fmt.Fprintf(&b, "Total Dispatch Value: %s\n\n", humanize.Commaf(r.TotalDispatch))
	b.WriteString("Provide a professional business summary, key operational insights (like dispatch-to-order ratio efficiency), and an overall business status recommendation.")
	return b.String()
}

func normalizeStatus(s Status) Status {
	switch Status(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusWarning:
		return StatusWarning
	case StatusExcellent:
		return StatusExcellent
	default:
		return StatusNormal
	}
}
