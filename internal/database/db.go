package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jgoulah/dispatchtracker/pkg/models"
	_ "modernc.org/sqlite"
)

// Fixed storage keys for the persisted state
const (
	HistoryKey  = "dispatch_history"
	EndpointKey = "gas_url"
)

// DB is the on-device cache of the record set and the remote endpoint.
// It is a cache, not the source of truth: record reads and writes never
// fail the caller, problems are only logged.
type DB struct {
	conn   *sql.DB
	mu     sync.Mutex
	logFn  func(level, msg string)
	memory bool
}

// New opens (or creates) the cache at dbPath and initializes the schema
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// NewMemory opens a throwaway in-memory cache, used when the file cannot be opened
func NewMemory() (*DB, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening memory database: %w", err)
	}
	// Each pooled connection would get its own empty :memory: database
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, memory: true}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return db, nil
}

// InMemory reports whether the cache is lost when it is closed
func (db *DB) InMemory() bool {
	return db.memory
}

// SetLogFn sets the callback for cache warnings
func (db *DB) SetLogFn(fn func(level, msg string)) {
	db.logFn = fn
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the key/value table
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS local_storage (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Load returns the persisted record set. A missing or corrupt value yields
// an empty set.
func (db *DB) Load() models.RecordSet {
	db.mu.Lock()
	defer db.mu.Unlock()

	value, ok, err := db.get(HistoryKey)
	if err != nil {
		db.log("warning", fmt.Sprintf("cache: reading %s: %v", HistoryKey, err))
		return models.RecordSet{}
	}
	if !ok {
		return models.RecordSet{}
	}

	var records models.RecordSet
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		db.log("warning", fmt.Sprintf("cache: discarding corrupt %s: %v", HistoryKey, err))
		return models.RecordSet{}
	}
	if records == nil {
		records = models.RecordSet{}
	}
	return records
}

// Save persists the record set. Failures are logged and swallowed.
func (db *DB) Save(records models.RecordSet) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.putRecords(records); err != nil {
		db.log("warning", fmt.Sprintf("cache: saving %d records: %v", len(records), err))
	}
}

// Replace overwrites the cache with a freshly pulled record set
func (db *DB) Replace(records models.RecordSet) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.putRecords(records); err != nil {
		db.log("warning", fmt.Sprintf("cache: replacing with %d pulled records: %v", len(records), err))
		return
	}
	db.log("debug", fmt.Sprintf("cache: replaced with %d pulled records", len(records)))
}

// Endpoint returns the saved remote endpoint, or "" if none was saved
func (db *DB) Endpoint() string {
	db.mu.Lock()
	defer db.mu.Unlock()

	value, _, err := db.get(EndpointKey)
	if err != nil {
		db.log("warning", fmt.Sprintf("cache: reading %s: %v", EndpointKey, err))
		return ""
	}
	return value
}

// SetEndpoint saves the remote endpoint. An empty url clears it.
func (db *DB) SetEndpoint(url string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	url = strings.TrimSpace(url)
	if url == "" {
		if _, err := db.conn.Exec(`DELETE FROM local_storage WHERE key = ?`, EndpointKey); err != nil {
			return fmt.Errorf("clearing endpoint: %w", err)
		}
		return nil
	}
	if err := db.put(EndpointKey, url); err != nil {
		return fmt.Errorf("saving endpoint: %w", err)
	}
	return nil
}

func (db *DB) putRecords(records models.RecordSet) error {
	if records == nil {
		records = models.RecordSet{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	return db.put(HistoryKey, string(data))
}

func (db *DB) get(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying %s: %w", key, err)
	}
	return value, true, nil
}

func (db *DB) put(key, value string) error {
	query := `
	INSERT INTO local_storage (key, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`

	updatedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.conn.Exec(query, key, value, updatedAt); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (db *DB) log(level, msg string) {
	if db.logFn != nil {
		db.logFn(level, msg)
	}
}
