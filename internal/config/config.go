// Package config loads the pipeline configuration from a YAML file merged
// with SEGPIPE__-prefixed environment overrides.
package config

import (
	"io/fs"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const envPrefix = "SEGPIPE__"

type RunStatus struct {
	Backend string `koanf:"backend"` // yaml|sqlite
	Path    string `koanf:"path"`
}

type Log struct {
	Level string `koanf:"level"`
	JSON  bool   `koanf:"json"`
}

type Config struct {
	// TrainPath and AnnotationPath root the image and mask readers; each
	// holds train/, val/ and test/ split subdirectories.
	TrainPath      string `koanf:"train_path"`
	AnnotationPath string `koanf:"annotation_path"`

	BatchSize  int `koanf:"batch_size"`
	NumWorkers int `koanf:"num_workers"`

	TargetHeight int `koanf:"target_height"`
	TargetWidth  int `koanf:"target_width"`

	MaxEpochs int `koanf:"max_epochs"`

	SaveRunStatus bool      `koanf:"save_run_status"`
	RunStatus     RunStatus `koanf:"run_status"`

	MetricsPort int    `koanf:"metrics_port"`
	FlowFile    string `koanf:"flow_file"`

	Log Log `koanf:"log"`
}

// Load merges the YAML file (if present) with env overrides (prefix
// SEGPIPE__, with __ separating nested keys) and validates the result.
// Env values win over file values.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Wrapf(err, "load %s", path)
		}
	}

	// SEGPIPE__RUN_STATUS__BACKEND -> run_status.backend
	_ = k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, errors.Wrap(err, "unmarshal config")
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func applyDefaults(c *Config) {
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.MaxEpochs == 0 {
		c.MaxEpochs = 1
	}
	if c.RunStatus.Backend == "" {
		c.RunStatus.Backend = "yaml"
	}
	if c.RunStatus.Path == "" {
		c.RunStatus.Path = "run_status.yaml"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func validate(c Config) error {
	if c.TrainPath == "" {
		return errors.New("train_path must be set")
	}
	if c.AnnotationPath == "" {
		return errors.New("annotation_path must be set")
	}
	if c.TargetHeight <= 0 || c.TargetWidth <= 0 {
		return errors.Errorf("target size %dx%d must be positive", c.TargetHeight, c.TargetWidth)
	}
	if c.RunStatus.Backend != "yaml" && c.RunStatus.Backend != "sqlite" {
		return errors.Errorf("run_status backend %q not supported (want yaml or sqlite)", c.RunStatus.Backend)
	}

	return nil
}
