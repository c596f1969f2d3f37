package database

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jgoulah/dispatchtracker/pkg/models"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "cache", "dispatch_test.db")
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(tempDBPath(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRecords() models.RecordSet {
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	return models.RecordSet{
		models.NewRecord(base.Add(2*time.Hour), "2025-03-02", map[models.UnitKey]models.UnitValue{
			models.UnitSUR: {OrderValue: 1200, DispatchValue: 900.5},
			models.UnitLMN: {OrderValue: 80, DispatchValue: 40},
		}),
		models.NewRecord(base, "2025-03-01", map[models.UnitKey]models.UnitValue{
			models.UnitKDC: {OrderValue: 100, DispatchValue: 50},
		}),
	}
}

func TestNewCreatesFile(t *testing.T) {
	path := tempDBPath(t)
	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file should exist after New")
	}
	if db.InMemory() {
		t.Error("file-backed cache reports InMemory")
	}
}

func TestLoadEmpty(t *testing.T) {
	db := openTestDB(t)

	records := db.Load()
	if records == nil || len(records) != 0 {
		t.Errorf("Load() on empty cache = %v, want empty non-nil set", records)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)
	want := sampleRecords()

	db.Save(want)
	got := db.Load()

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestRoundTripSurvivesReopen(t *testing.T) {
	path := tempDBPath(t)
	want := sampleRecords()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	db.Save(want)
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	if got := db.Load(); !reflect.DeepEqual(got, want) {
		t.Errorf("after reopen got %+v, want %+v", got, want)
	}
}

func TestLoadCorruptDataReturnsEmpty(t *testing.T) {
	db := openTestDB(t)

	var mu sync.Mutex
	var warnings []string
	db.SetLogFn(func(level, msg string) {
		mu.Lock()
		defer mu.Unlock()
		if level == "warning" {
			warnings = append(warnings, msg)
		}
	})

	if err := db.put(HistoryKey, `[{"id": "1", "date": `); err != nil {
		t.Fatalf("put: %v", err)
	}

	records := db.Load()
	if len(records) != 0 {
		t.Errorf("expected empty set for corrupt data, got %d records", len(records))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "corrupt") {
		t.Errorf("expected one corrupt-data warning, got %v", warnings)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	db := openTestDB(t)
	db.Save(sampleRecords())

	pulled := models.RecordSet{{ID: "42", Date: "2025-01-01", Units: map[models.UnitKey]models.UnitValue{}}}
	db.Replace(pulled)

	got := db.Load()
	if len(got) != 1 || got[0].ID != "42" {
		t.Errorf("Replace did not overwrite: %+v", got)
	}
}

func TestSaveAfterCloseIsSwallowed(t *testing.T) {
	db, err := New(tempDBPath(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var logged bool
	db.SetLogFn(func(level, msg string) { logged = true })
	db.Close()

	db.Save(sampleRecords())
	if !logged {
		t.Error("expected save failure to be logged")
	}
}

func TestEndpoint(t *testing.T) {
	db := openTestDB(t)

	if got := db.Endpoint(); got != "" {
		t.Errorf("Endpoint() = %q, want empty", got)
	}

	url := "https://script.google.com/macros/s/abc/exec"
	if err := db.SetEndpoint("  " + url + " "); err != nil {
		t.Fatalf("SetEndpoint: %v", err)
	}
	if got := db.Endpoint(); got != url {
		t.Errorf("Endpoint() = %q, want %q", got, url)
	}

	if err := db.SetEndpoint(""); err != nil {
		t.Fatalf("SetEndpoint(clear): %v", err)
	}
	if got := db.Endpoint(); got != "" {
		t.Errorf("Endpoint() after clear = %q, want empty", got)
	}
}

func TestNewMemory(t *testing.T) {
	db, err := NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	defer db.Close()

	if !db.InMemory() {
		t.Error("memory cache should report InMemory")
	}
	db.Save(sampleRecords())
	if got := db.Load(); len(got) != 2 {
		t.Errorf("expected 2 records in memory cache, got %d", len(got))
	}
}
