/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the mcpm configuration file and environment
// overrides.
package config

import (
	"bytes"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/jahfer/mcpm/pkg/mods"
	"github.com/jahfer/mcpm/pkg/version"
)

// Config is the declarative state of one managed server: where its mods
// live and which mods are expected.
type Config struct {
	// ModsDir is the live mods directory of the server.
	ModsDir string `yaml:"mods_dir"`
	// BackupsDir is where pre-apply backups are written.
	BackupsDir string `yaml:"backups_dir"`
	// Loader is the plugin loader the server runs (e.g. "fabric").
	Loader string `yaml:"loader"`
	// GameVersion is the game version the server currently runs.
	GameVersion string `yaml:"game_version"`
	// Mods is the declared mod set.
	Mods []mods.Declaration `yaml:"mods"`
}

// Env holds environment overrides, prefixed MCPM_.
type Env struct {
	// Token is an optional registry API token for authenticated,
	// higher-rate-limit access (MCPM_TOKEN).
	Token string `envconfig:"TOKEN"`
	// HTTPTimeout bounds registry API requests (MCPM_HTTP_TIMEOUT).
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
}

// Load reads and validates the configuration file. Declaration problems
// are fatal here, before any network or filesystem activity.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config %s", path)
	}
	defer func() { _ = f.Close() }()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}

	return &cfg, nil
}

// Validate checks server settings and the declared mod set.
func (c *Config) Validate() error {
	if c.ModsDir == "" {
		return errors.New("mods_dir is required")
	}

	if c.BackupsDir == "" {
		return errors.New("backups_dir is required")
	}

	if c.Loader == "" {
		return errors.New("loader is required")
	}

	if c.GameVersion == "" {
		return errors.New("game_version is required")
	}

	if !version.Parse(c.GameVersion).IsRelease() {
		return errors.Newf("game_version %q is not a release version", c.GameVersion)
	}

	// Re-validate declarations through the loader so inline and
	// standalone declaration lists obey identical rules.
	raw, err := yaml.Marshal(c.Mods)
	if err != nil {
		return errors.Wrap(err, "failed to re-encode mod declarations")
	}

	if _, err := mods.LoadDeclarations(bytes.NewReader(raw)); err != nil {
		return err
	}

	return nil
}

// LoadEnv reads the MCPM_-prefixed environment overrides.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("mcpm", &env); err != nil {
		return nil, errors.Wrap(err, "failed to read environment overrides")
	}

	return &env, nil
}
