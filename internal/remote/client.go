// Package remote talks to the spreadsheet-backed row store.
//
// The store is a single URL. GET returns every row as a JSON array, POST
// appends (action SAVE) or removes (action DELETE) a row. Writes are sent
// fire-and-forget by default: the reply is discarded, so a nil error only
// means the request went out.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// PlaceholderEndpoint is shipped as the default and means "not configured"
const PlaceholderEndpoint = "https://script.google.com/macros/s/REPLACE_WITH_DEPLOYMENT_ID/exec"

const (
	ActionSave   = "SAVE"
	ActionDelete = "DELETE"
)

// maxResponseBytes caps how much of a reply is read
const maxResponseBytes = 32 << 20

// Configured reports whether url points at a real store
func Configured(url string) bool {
	url = strings.TrimSpace(url)
	return url != "" && url != PlaceholderEndpoint
}

// ClientConfig holds configuration for the row store client.
type ClientConfig struct {
	// Endpoint is the row store URL; empty or the placeholder means offline
	Endpoint string

	// Timeout is the HTTP request timeout (default: 15s)
	Timeout time.Duration

	// Location is the spreadsheet's timezone, used to read Date cells (default: time.Local)
	Location *time.Location

	// ConfirmWrites makes SAVE/DELETE inspect the reply
	ConfirmWrites bool

	// RateLimit is requests per second (default: 2), Burst the bucket size (default: 4)
	RateLimit float64
	Burst     int

	// HTTPClient overrides the default client (tests)
	HTTPClient *http.Client

	// LogFn is called for log messages (optional)
	LogFn func(level, msg string)
}

// Client is the HTTP client for the row store
type Client struct {
	endpoint      string
	confirmWrites bool
	location      *time.Location
	httpClient    *http.Client
	limiter       *rate.Limiter
	logFn         func(level, msg string)
}

// NewClient creates a row store client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 4
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		endpoint:      strings.TrimSpace(cfg.Endpoint),
		confirmWrites: cfg.ConfirmWrites,
		location:      cfg.Location,
		httpClient:    httpClient,
		limiter:       rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logFn:         cfg.LogFn,
	}
}

// Endpoint returns the configured URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Configured reports whether the client has a usable endpoint
func (c *Client) Configured() bool {
	return Configured(c.endpoint)
}

// Fetch reads every row from the store
func (c *Client) Fetch(ctx context.Context) (models.RecordSet, error) {
	if !c.Configured() {
		return nil, ErrEndpointUnconfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Op: "fetch", Err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, snippet(body))}
	}

	records, err := decodeRows(body, c.location)
	if err != nil {
		return nil, err
	}

	c.log("debug", fmt.Sprintf("remote: fetched %d rows", len(records)))
	return records, nil
}

// decodeRows accepts only a JSON array. The store reports its own failures
// as {"error": "..."} with a 200 status.
func decodeRows(body []byte, loc *time.Location) (models.RecordSet, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &MalformedResponseError{Reason: "empty body"}
	}

	if trimmed[0] != '[' {
		var failure struct {
			Error string `json:"error"`
		}
		if trimmed[0] == '{' && json.Unmarshal(trimmed, &failure) == nil && failure.Error != "" {
			return nil, &MalformedResponseError{Reason: "store error: " + failure.Error}
		}
		return nil, &MalformedResponseError{Reason: "expected a JSON array, got " + snippet(trimmed)}
	}

	records, err := models.DecodeRecords(trimmed, loc)
	if err != nil {
		return nil, &MalformedResponseError{Reason: "decoding rows", Err: err}
	}
	if records == nil {
		records = models.RecordSet{}
	}
	return records, nil
}

// savePayload is a record plus the action discriminator
type savePayload struct {
	Action string `json:"action"`
	models.Record
}

type deletePayload struct {
	Action string `json:"action"`
	ID     string `json:"id"`
}

// Save appends a record to the store
func (c *Client) Save(ctx context.Context, r models.Record) error {
	return c.post(ctx, "save", savePayload{Action: ActionSave, Record: r})
}

// Delete removes the row whose id matches exactly
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.post(ctx, "delete", deletePayload{Action: ActionDelete, ID: id})
}

func (c *Client) post(ctx context.Context, op string, payload any) error {
	if !c.Configured() {
		return ErrEndpointUnconfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", op, err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &TransportError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("creating request: %w", err)}
	}
	// text/plain keeps Apps Script from demanding a CORS preflight
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if !c.confirmWrites {
		return nil
	}

	text := strings.TrimSpace(string(reply))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || strings.HasPrefix(text, "Error") {
		return &RejectedError{Op: op, StatusCode: resp.StatusCode, Body: snippet(reply)}
	}
	c.log("debug", fmt.Sprintf("remote: %s acknowledged: %s", op, text))
	return nil
}

func (c *Client) log(level, msg string) {
	if c.logFn != nil {
		c.logFn(level, msg)
	}
}

func snippet(b []byte) string {
	s := []rune(strings.TrimSpace(string(b)))
	if len(s) > 120 {
		return string(s[:120]) + "..."
	}
	return string(s)
}
