package config

import (
	"testing"

	"github.com/averagestudentdontfail/Ourochronos/configs"
	"github.com/averagestudentdontfail/Ourochronos/driver"
)

func TestLoadRunConfigDefaults(t *testing.T) {
	loader := configs.NewLoader(nil, schema)
	cfg, err := LoadRunConfig(loader)
	if err != nil {
		t.Fatal(err)
	}
	want := driver.DefaultRunConfig()
	if cfg != want {
		t.Fatalf("got %+v, want %+v", cfg, want)
	}
}

func TestLoadRunConfigOverlay(t *testing.T) {
	loader := configs.NewLoader([]string{"testdata/diagnostic.cue"}, schema)
	cfg, err := LoadRunConfig(loader)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != driver.ModeDiagnostic {
		t.Fatalf("got mode %v", cfg.Mode)
	}
	if cfg.MaxEpochs != 500 {
		t.Fatalf("got max epochs %d", cfg.MaxEpochs)
	}
	if cfg.Workers != 4 {
		t.Fatalf("got workers %d", cfg.Workers)
	}
	if !cfg.CaptureTrace {
		t.Fatal("expected capture_trace true")
	}
}

func TestModeByNameRejectsUnknown(t *testing.T) {
	if _, err := modeByName("bogus"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if mode, err := modeByName("diagnostic"); err != nil || mode != driver.ModeDiagnostic {
		t.Fatalf("got %v, %v", mode, err)
	}
}
