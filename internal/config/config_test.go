package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GetDatabase() != "data.db" {
		t.Errorf("GetDatabase() = %q, want %q", cfg.GetDatabase(), "data.db")
	}
	if cfg.GetRemoteTimeout() != 15*time.Second {
		t.Errorf("GetRemoteTimeout() = %v, want 15s", cfg.GetRemoteTimeout())
	}
	rps, burst := cfg.GetRateLimit()
	if rps != 2 || burst != 4 {
		t.Errorf("GetRateLimit() = %v/%d, want 2/4", rps, burst)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := &Config{
		Database: "cache/dispatch.db",
		Remote:   RemoteConfig{TimeoutSeconds: 5, ConfirmWrites: true},
		MQTT:     MQTTConfig{Enabled: true, Broker: "localhost:1883"},
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got.GetDatabase() != "cache/dispatch.db" {
		t.Errorf("Database = %q", got.Database)
	}
	if got.GetRemoteTimeout() != 5*time.Second {
		t.Errorf("GetRemoteTimeout() = %v, want 5s", got.GetRemoteTimeout())
	}
	if !got.Remote.ConfirmWrites {
		t.Error("ConfirmWrites should round-trip")
	}
	if got.MQTT.GetTopicPrefix() != "dispatchtracker" {
		t.Errorf("GetTopicPrefix() = %q", got.MQTT.GetTopicPrefix())
	}
}

func TestAuditAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "from-env")

	cfg := &Config{Audit: AuditConfig{APIKey: "from-file"}}
	if got := cfg.GetAuditAPIKey(); got != "from-env" {
		t.Errorf("GetAuditAPIKey() = %q, want %q", got, "from-env")
	}

	t.Setenv("API_KEY", "")
	if got := cfg.GetAuditAPIKey(); got != "from-file" {
		t.Errorf("GetAuditAPIKey() = %q, want %q", got, "from-file")
	}
}

func TestRemoteLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.GetRemoteLocation()
	if err != nil || loc != time.Local {
		t.Errorf("GetRemoteLocation() = %v, %v, want Local", loc, err)
	}

	cfg.Remote.Timezone = "Asia/Kolkata"
	loc, err = cfg.GetRemoteLocation()
	if err != nil {
		t.Fatalf("GetRemoteLocation(): %v", err)
	}
	if loc.String() != "Asia/Kolkata" {
		t.Errorf("GetRemoteLocation() = %v, want Asia/Kolkata", loc)
	}

	cfg.Remote.Timezone = "Not/AZone"
	if _, err := cfg.GetRemoteLocation(); err == nil {
		t.Error("GetRemoteLocation() with a bad zone should fail")
	}
}
