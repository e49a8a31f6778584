// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the YAML configuration of an agent server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/server/event"
	"github.com/go-a2a/a2a-engine/server/task"
)

// Config is the root of the configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Engine   EngineConfig   `yaml:"engine"`
	Database DatabaseConfig `yaml:"database"`

	// Agent overrides the card the agent advertises.
	Agent *a2a.AgentCard `yaml:"agent"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address  string `yaml:"address"`
	Endpoint string `yaml:"endpoint"`
	// PublicURL is the URL advertised in the agent card. Defaults to
	// http://<address><endpoint>.
	PublicURL       string        `yaml:"public_url"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EngineConfig tunes the task engine.
type EngineConfig struct {
	BusyPolicy        string        `yaml:"busy_policy"`
	InvocationTimeout time.Duration `yaml:"invocation_timeout"`
	MaxQueueSize      int           `yaml:"max_queue_size"`
}

// DatabaseConfig configures the SQLite task mirror.
type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address:         "localhost:9999",
			Endpoint:        a2a.DefaultRPCPath,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Engine: EngineConfig{
			BusyPolicy:        string(task.BusyReject),
			InvocationTimeout: 30 * time.Second,
			MaxQueueSize:      event.DefaultMaxQueueSize,
		},
		Database: DatabaseConfig{
			DSN: "file:tasks.db?_pragma=busy_timeout(5000)",
		},
	}
}

// Load reads the file at path over [Default]. Environment references such as
// ${DB_DSN} are expanded before parsing. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse reads a configuration document over [Default].
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("parse config file: %w", err)
		}
	}
	return c.Validate()
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address cannot be empty"))
	}
	if !strings.HasPrefix(c.Server.Endpoint, "/") {
		errs = append(errs, fmt.Errorf("server.endpoint %q must start with /", c.Server.Endpoint))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if _, err := task.ParseBusyPolicy(c.Engine.BusyPolicy); err != nil {
		errs = append(errs, fmt.Errorf("engine.busy_policy: %w", err))
	}
	if c.Engine.InvocationTimeout < 0 {
		errs = append(errs, errors.New("engine.invocation_timeout cannot be negative"))
	}
	if c.Engine.MaxQueueSize <= 0 {
		errs = append(errs, errors.New("engine.max_queue_size must be positive"))
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required when the database is enabled"))
	}
	if c.Agent != nil {
		if err := c.Agent.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("agent: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BusyPolicy returns the parsed engine.busy_policy.
func (c *Config) BusyPolicy() task.BusyPolicy {
	p, _ := task.ParseBusyPolicy(c.Engine.BusyPolicy)
	return p
}

// PublicURL returns the URL the agent is reachable at.
func (c *Config) PublicURL() string {
	if c.Server.PublicURL != "" {
		return c.Server.PublicURL
	}
	return "http://" + c.Server.Address + c.Server.Endpoint
}

// ParseLevel maps a level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", name, err)
	}
	return level, nil
}

// NewLogger builds the logger described by c writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
