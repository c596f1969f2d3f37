package sheet

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

const maxRequestBytes = 1 << 20

// Replies sent for POST requests, as plain text
const (
	ReplySuccess  = "Success"
	ReplyDeleted  = "Deleted"
	ReplyNotFound = "Not Found"
)

// Handler serves the row store protocol over a workbook:
//
//	GET  -> JSON array of rows, or {"error": "..."}
//	POST {"action":"SAVE", ...record} -> Success (replaces a row with the same id)
//	POST {"action":"DELETE","id":...} -> Deleted | Not Found
//
// Failures are reported in the body with status 200, as the hosted store does.
type Handler struct {
	book  *Workbook
	logFn func(level, msg string)
}

// NewHandler creates a handler over book
func NewHandler(book *Workbook, logFn func(level, msg string)) *Handler {
	return &Handler{book: book, logFn: logFn}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()[:8]
	w.Header().Set("X-Request-Id", reqID)

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, reqID)
	case http.MethodPost:
		h.handlePost(w, r, reqID)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, reqID string) {
	w.Header().Set("Content-Type", "application/json")

	records, err := h.book.Rows()
	if err != nil {
		h.log("error", fmt.Sprintf("[%s] GET: %v", reqID, err))
		_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}

	h.log("info", fmt.Sprintf("[%s] GET: %d rows", reqID, len(records)))
	_ = json.NewEncoder(w).Encode(records)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request, reqID string) {
	reply, err := h.apply(r)
	if err != nil {
		h.log("error", fmt.Sprintf("[%s] POST: %v", reqID, err))
		reply = "Error: " + err.Error()
	} else {
		h.log("info", fmt.Sprintf("[%s] POST: %s", reqID, reply))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, reply)
}

func (h *Handler) apply(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}

	var envelope struct {
		Action string          `json:"action"`
		ID     json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("parsing body: %w", err)
	}

	if strings.EqualFold(envelope.Action, "DELETE") {
		id := rawID(envelope.ID)
		if id == "" {
			return "", fmt.Errorf("delete: missing id")
		}
		found, err := h.book.Delete(id)
		if err != nil {
			return "", err
		}
		if !found {
			return ReplyNotFound, nil
		}
		return ReplyDeleted, nil
	}

	// Anything else is a save
	var rec models.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return "", err
	}
	if rec.ID == "" {
		return "", fmt.Errorf("save: missing id")
	}
	if err := h.book.Upsert(rec); err != nil {
		return "", err
	}
	return ReplySuccess, nil
}

// rawID accepts the id as a JSON string or number
func rawID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func (h *Handler) log(level, msg string) {
	if h.logFn != nil {
		h.logFn(level, msg)
	}
}
