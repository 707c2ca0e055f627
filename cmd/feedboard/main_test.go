package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteStarterSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "config.json")

	created, err := writeStarterSnapshot(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected snapshot to be created")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("starter snapshot is not JSON: %v", err)
	}
	if _, ok := doc["sources"]; !ok {
		t.Error("expected sources in starter snapshot")
	}
}

func TestWriteStarterSnapshotKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	os.WriteFile(path, []byte(`{"siteTitle":"mine"}`), 0o644)

	created, err := writeStarterSnapshot(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected existing snapshot to be left alone")
	}
	data, _ := os.ReadFile(path)
	if string(data) != `{"siteTitle":"mine"}` {
		t.Errorf("existing snapshot overwritten: %s", data)
	}
}

func TestLevelFor(t *testing.T) {
	verbose = false
	if got := levelFor("warn"); got != "warn" {
		t.Errorf("expected warn, got %s", got)
	}
	verbose = true
	defer func() { verbose = false }()
	if got := levelFor("warn"); got != "debug" {
		t.Errorf("expected verbose to force debug, got %s", got)
	}
}
