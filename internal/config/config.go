// Package config loads and validates the lugnsync configuration file.
//
// Configuration is YAML on disk, validated against an embedded CUE schema
// before anything touches the database or the network. Defaults cover
// everything except the API base URL, so a minimal config file is one
// line.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// APIConfig configures the remote API client.
type APIConfig struct {
	BaseURL   string `yaml:"baseUrl" json:"baseUrl"`
	Token     string `yaml:"token,omitempty" json:"token,omitempty"`
	TimeoutMS int    `yaml:"timeoutMs" json:"timeoutMs"`
}

// Timeout returns the per-call timeout as a duration.
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// SyncConfig configures the sync controller and connectivity monitor.
type SyncConfig struct {
	DebounceMS int `yaml:"debounceMs" json:"debounceMs"`
}

// Debounce returns the debounce window as a duration.
func (s SyncConfig) Debounce() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Config is the full lugnsync configuration.
type Config struct {
	Database string     `yaml:"database" json:"database"`
	API      APIConfig  `yaml:"api" json:"api"`
	Sync     SyncConfig `yaml:"sync" json:"sync"`
}

// Default returns the configuration defaults. The API base URL has no
// default and must come from the file or a flag.
func Default() Config {
	return Config{
		Database: "lugnsync.db",
		API: APIConfig{
			TimeoutMS: 10000,
		},
		Sync: SyncConfig{
			DebounceMS: 500,
		},
	}
}

// Load reads a YAML config file over the defaults and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	schema = schema.LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("config schema missing #Config: %w", err)
	}

	val := ctx.Encode(c)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := schema.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
