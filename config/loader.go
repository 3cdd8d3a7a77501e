// Package config resolves an OUROCHRONOS driver.RunConfig from CUE
// files found on a three-tier search path, overlaying the driver's
// own defaults field by field.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/averagestudentdontfail/Ourochronos/configs"
	"github.com/averagestudentdontfail/Ourochronos/driver"
	"github.com/averagestudentdontfail/Ourochronos/logs"
)

//go:embed schema.cue
var schema string

var filenames = []string{
	"ourochronos.cue",
	".ourochronos.cue",
}

// NewLoader builds a configs.Loader over every candidate config file
// that exists, in precedence order: working directory, then the
// user's config directory, then /etc. AssignFirst and First return
// the value from the highest-precedence file that sets it.
func NewLoader(logger logs.Logger) configs.Loader {
	var paths []string
	defer func() {
		if len(paths) > 0 && logger != nil {
			logger.Info("config file", "paths", paths)
		}
	}()

	if workingDir, err := os.Getwd(); err == nil {
		for _, filename := range filenames {
			path := filepath.Join(workingDir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		for _, filename := range filenames {
			path := filepath.Join(configDir, filename)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}

	for _, filename := range filenames {
		path := filepath.Join("/etc", filename)
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}

	return configs.NewLoader(paths, schema)
}

// modeByName maps the schema's mode strings onto driver.Mode. An
// unrecognized string is left to the caller as an error, since a bad
// config value should fail loudly rather than silently pick Pure.
func modeByName(name string) (driver.Mode, error) {
	switch name {
	case "", "pure":
		return driver.ModePure, nil
	case "bounded":
		return driver.ModeBounded, nil
	case "diagnostic":
		return driver.ModeDiagnostic, nil
	default:
		return 0, fmt.Errorf("config: unknown mode %q", name)
	}
}

// LoadRunConfig starts from driver.DefaultRunConfig and overlays any
// field the loader's files set, following the schema in schema.cue.
func LoadRunConfig(loader configs.Loader) (driver.RunConfig, error) {
	cfg := driver.DefaultRunConfig()

	if modeName := configs.First[string](loader, "mode"); modeName != "" {
		mode, err := modeByName(modeName)
		if err != nil {
			return cfg, err
		}
		cfg.Mode = mode
	}

	if n := configs.First[int](loader, "max_epochs"); n != 0 {
		cfg.MaxEpochs = n
	}
	if n := configs.First[int](loader, "max_epoch_steps"); n != 0 {
		cfg.MaxEpochSteps = n
	}
	if n := configs.First[int](loader, "max_perturbations"); n != 0 {
		cfg.MaxPerturbations = n
	}
	if n := configs.First[int](loader, "seed"); n != 0 {
		cfg.Seed = uint64(n)
		cfg.Initial = driver.AnamnesisSeeded
		cfg.InitialSeedValue = cfg.Seed
	}
	if n := configs.First[int](loader, "workers"); n != 0 {
		cfg.Workers = n
	}
	if configs.First[bool](loader, "capture_trace") {
		cfg.CaptureTrace = true
	}

	return cfg, nil
}
