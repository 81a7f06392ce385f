package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DataDir == "" {
		t.Error("default data dir empty")
	}
	if cfg.Limits.MinArmLength >= cfg.Limits.MaxArmLength {
		t.Error("arm length limits inverted")
	}
	if cfg.Limits.MinMass >= cfg.Limits.MaxMass {
		t.Error("mass limits inverted")
	}
	if cfg.Physics.Gravity != DefaultGravity || cfg.Physics.Dt != DefaultDt {
		t.Errorf("physics defaults = %+v", cfg.Physics)
	}
	if cfg.Physics.WindMode != "uniform" {
		t.Errorf("wind mode = %q, want uniform", cfg.Physics.WindMode)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Preset = "cascade"
	cfg.Physics.Damping = 0.8
	cfg.Limits.MaxMass = 20

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Preset != "cascade" || got.Physics.Damping != 0.8 || got.Limits.MaxMass != 20 {
		t.Errorf("round trip lost fields: %+v", got)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	partial := []byte("physics:\n  damping: 0.9\n")
	if err := os.WriteFile(path, partial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Physics.Damping != 0.9 {
		t.Errorf("damping = %v, want 0.9 from file", cfg.Physics.Damping)
	}
	if cfg.Limits.MaxMass != 10 {
		t.Errorf("max mass = %v, want untouched default", cfg.Limits.MaxMass)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file returned nil error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("{notyaml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load of malformed yaml returned nil error")
	}
}
