// Package syncer keeps the local record cache and the remote row store in step.
//
// The local cache is updated first and the remote second. A pull replaces the
// cache with the remote rows; creates are never rolled back; deletes are
// reverted when the remote request fails, since a lost delete cannot be
// reconciled later.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgoulah/dispatchtracker/internal/audit"
	"github.com/jgoulah/dispatchtracker/pkg/models"
)

// ErrNothingToCommit is returned for a form with no order value
var ErrNothingToCommit = errors.New("nothing to commit: total order is zero")

// ErrDeleteReverted wraps the cause of a delete that was rolled back
var ErrDeleteReverted = errors.New("deletion reverted")

// LocalStore is the on-device cache. Load and Save never fail the caller.
type LocalStore interface {
	Load() models.RecordSet
	Save(models.RecordSet)
	Replace(models.RecordSet)
}

// Remote is the row store
type Remote interface {
	Configured() bool
	Fetch(ctx context.Context) (models.RecordSet, error)
	Save(ctx context.Context, r models.Record) error
	Delete(ctx context.Context, id string) error
}

// Mirror receives committed records and deletions (optional)
type Mirror interface {
	Publish(r models.Record) error
	Remove(id string) error
}

// Status is the outcome of the most recent pull
type Status string

const (
	StatusIdle    Status = "idle"    // nothing attempted yet
	StatusOffline Status = "offline" // no endpoint configured
	StatusBusy    Status = "busy"    // a pull was already in flight
	StatusSynced  Status = "synced"
	StatusFailed  Status = "failed"
)

// Notice is a transient user-facing message
type Notice struct {
	Level   string // "info", "warning", "error"
	Message string
}

// Config holds the engine's collaborators.
type Config struct {
	// Store is the local cache
	Store LocalStore

	// Remote is the row store client
	Remote Remote

	// Mirror republishes records elsewhere (optional)
	Mirror Mirror

	// Auditor summarizes newly created records (optional)
	Auditor audit.Summarizer

	// Now is the clock used for record ids (default: time.Now)
	Now func() time.Time

	// NotifyFn receives user-facing notices (optional)
	NotifyFn func(Notice)

	// LogFn is called for log messages (optional)
	LogFn func(level, msg string)
}

// Engine owns the in-memory record set and keeps it in step with the store
type Engine struct {
	store    LocalStore
	remote   Remote
	mirror   Mirror
	auditor  audit.Summarizer
	now      func() time.Time
	notifyFn func(Notice)
	logFn    func(level, msg string)

	syncing atomic.Bool

	mu      sync.Mutex
	records models.RecordSet
	status  Status

	// Mutations made while a pull is in flight, replayed over its result
	pulling        bool
	pendingCreates models.RecordSet
	pendingDeletes map[string]struct{}
}

// New creates an engine. Call Start to load the cache and pull.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:    cfg.Store,
		remote:   cfg.Remote,
		mirror:   cfg.Mirror,
		auditor:  cfg.Auditor,
		now:      now,
		notifyFn: cfg.NotifyFn,
		logFn:    cfg.LogFn,
		records:  models.RecordSet{},
		status:   StatusIdle,
	}
}

// Load fills the engine from the local cache without touching the remote
func (e *Engine) Load() {
	records := e.store.Load()

	e.mu.Lock()
	e.records = records
	e.mu.Unlock()

	e.log("debug", fmt.Sprintf("sync: loaded %d cached records", len(records)))
}

// Start loads the cache, then pulls
func (e *Engine) Start(ctx context.Context) (Status, error) {
	e.Load()
	return e.Pull(ctx)
}

// Records returns a copy of the current record set
func (e *Engine) Records() models.RecordSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records.Clone()
}

// Status returns the outcome of the last pull
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// IsSyncing reports whether a pull is in flight
func (e *Engine) IsSyncing() bool {
	return e.syncing.Load()
}

// Pull replaces the record set with the remote rows. Without an endpoint it
// does nothing. While a pull is in flight further calls return StatusBusy.
// On failure the record set is left alone and the error is returned.
func (e *Engine) Pull(ctx context.Context) (Status, error) {
	if !e.remote.Configured() {
		e.setStatus(StatusOffline)
		return StatusOffline, nil
	}
	if !e.syncing.CompareAndSwap(false, true) {
		e.log("debug", "sync: pull already in flight, ignoring")
		return StatusBusy, nil
	}
	defer e.syncing.Store(false)

	e.mu.Lock()
	e.pulling = true
	e.pendingCreates = nil
	e.pendingDeletes = make(map[string]struct{})
	e.mu.Unlock()

	rows, err := e.remote.Fetch(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()

	creates, deletes := e.pendingCreates, e.pendingDeletes
	e.pulling = false
	e.pendingCreates = nil
	e.pendingDeletes = nil

	if err != nil {
		e.status = StatusFailed
		e.log("warning", fmt.Sprintf("sync: pull failed: %v", err))
		return StatusFailed, fmt.Errorf("pulling records: %w", err)
	}

	merged := merge(rows, creates, deletes)
	e.records = merged
	e.store.Replace(merged.Clone())
	e.status = StatusSynced

	e.log("info", fmt.Sprintf("sync: pulled %d records", len(merged)))
	return StatusSynced, nil
}

// merge lays mutations made during a pull over the pulled rows: creates the
// remote does not have yet go in front, deleted ids are dropped
func merge(rows, creates models.RecordSet, deletes map[string]struct{}) models.RecordSet {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.ID] = struct{}{}
	}

	out := make(models.RecordSet, 0, len(rows)+len(creates))
	for _, r := range creates {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		if _, ok := deletes[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	for _, r := range rows {
		if _, ok := deletes[r.ID]; ok {
			continue
		}
		out = append(out, r)
	}
	return out
}

// CreateResult describes what happened to a submission
type CreateResult struct {
	Record    models.Record
	LocalOnly bool          // the remote request could not be sent
	Audit     *audit.Report // nil when no auditor or it failed
}

// Create commits the form: the record is added locally first, then sent.
// A failed send keeps the record locally. The form is reset either way.
func (e *Engine) Create(ctx context.Context, form *models.Form) (*CreateResult, error) {
	if order, _ := form.Totals(); order == 0 {
		return nil, ErrNothingToCommit
	}

	rec := models.NewRecord(e.now(), form.Date, form.Units)
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	next := make(models.RecordSet, 0, len(e.records)+1)
	next = append(next, rec)
	next = append(next, e.records...)
	e.records = next
	if e.pulling {
		e.pendingCreates = append(models.RecordSet{rec}, e.pendingCreates...)
	}
	e.store.Save(next.Clone())
	e.mu.Unlock()

	result := &CreateResult{Record: rec}

	err := e.remote.Save(ctx, rec)
	form.Reset()

	if err != nil {
		result.LocalOnly = true
		e.log("warning", fmt.Sprintf("sync: save %s: %v", rec.ID, err))
		e.notify("warning", "Sync failed. Record saved locally only.")
	} else {
		e.notify("info", "Transaction committed successfully.")
	}

	if e.mirror != nil {
		if err := e.mirror.Publish(rec); err != nil {
			e.log("warning", fmt.Sprintf("sync: mirror publish %s: %v", rec.ID, err))
		}
	}

	if e.auditor != nil {
		report, err := e.auditor.Summarize(ctx, rec)
		if err != nil {
			e.log("warning", fmt.Sprintf("sync: audit %s skipped: %v", rec.ID, err))
		} else {
			result.Audit = report
		}
	}

	return result, nil
}

// Delete removes a record locally, then remotely. If the remote request
// fails the record goes back where it was, unless a pull has since brought
// it back. Deleting an id that is not in the local set is a no-op.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	at := e.records.Index(id)
	if at < 0 {
		e.mu.Unlock()
		e.log("debug", fmt.Sprintf("sync: delete %s: not in local set, nothing to do", id))
		return nil
	}
	removed := e.records[at]
	next := e.records.Without(id)
	e.records = next
	if e.pulling {
		e.pendingDeletes[id] = struct{}{}
	}
	e.store.Save(next.Clone())
	e.mu.Unlock()

	err := e.remote.Delete(ctx, id)
	if err != nil {
		e.mu.Lock()
		if e.pulling {
			delete(e.pendingDeletes, id)
		}
		if e.records.Index(id) < 0 {
			e.records = e.records.Insert(at, removed)
			e.store.Save(e.records.Clone())
		}
		e.mu.Unlock()

		e.log("warning", fmt.Sprintf("sync: delete %s: %v", id, err))
		e.notify("error", "Cloud sync failed. Deletion reverted.")
		return fmt.Errorf("%w: %w", ErrDeleteReverted, err)
	}

	if e.mirror != nil {
		if err := e.mirror.Remove(id); err != nil {
			e.log("warning", fmt.Sprintf("sync: mirror remove %s: %v", id, err))
		}
	}
	return nil
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()
}

func (e *Engine) notify(level, msg string) {
	if e.notifyFn != nil {
		e.notifyFn(Notice{Level: level, Message: msg})
	}
}

func (e *Engine) log(level, msg string) {
	if e.logFn != nil {
		e.logFn(level, msg)
	}
}
