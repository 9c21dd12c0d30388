package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := store.Get()
	if got.Theme != "system" || got.RestTimerSec != 90 || !got.SmoothingDefault {
		t.Errorf("defaults = %+v", got)
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	store, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	next := Settings{Theme: "dark", RestTimerSec: 120, SmoothingDefault: false}
	if err := store.Save(next); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := store.Get(); got != next {
		t.Errorf("get after save = %+v", got)
	}

	// A fresh store reads the persisted values back.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Get(); got != next {
		t.Errorf("reloaded = %+v, want %+v", got, next)
	}
}

func TestLoadRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("theme: [not\n"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed file accepted")
	}
}
