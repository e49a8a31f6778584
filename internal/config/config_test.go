// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-engine"
	"github.com/go-a2a/a2a-engine/server/task"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() is invalid: %v", err)
	}
	if cfg.BusyPolicy() != task.BusyReject {
		t.Errorf("BusyPolicy() = %s, want reject", cfg.BusyPolicy())
	}
	if got, want := cfg.PublicURL(), "http://localhost:9999/"; got != want {
		t.Errorf("PublicURL() = %s, want %s", got, want)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_TASKS_DSN", "file:/tmp/tasks.db")

	doc := `
server:
  address: 0.0.0.0:8080
  endpoint: /rpc
  public_url: https://agents.example/rpc
log:
  level: debug
  format: json
engine:
  busy_policy: wait
  invocation_timeout: 5s
  max_queue_size: 16
database:
  enabled: true
  dsn: ${TEST_TASKS_DSN}
agent:
  name: Test Agent
  url: https://agents.example/rpc
  version: 2.0.0
  capabilities:
    streaming: true
  skills:
    - id: echo
      name: Echo
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Server = ServerConfig{
		Address:         "0.0.0.0:8080",
		Endpoint:        "/rpc",
		PublicURL:       "https://agents.example/rpc",
		ShutdownTimeout: 10 * time.Second,
	}
	want.Log = LogConfig{Level: "debug", Format: "json"}
	want.Engine = EngineConfig{BusyPolicy: "wait", InvocationTimeout: 5 * time.Second, MaxQueueSize: 16}
	want.Database = DatabaseConfig{Enabled: true, DSN: "file:/tmp/tasks.db"}
	want.Agent = &a2a.AgentCard{
		Name:         "Test Agent",
		URL:          "https://agents.example/rpc",
		Version:      "2.0.0",
		Capabilities: a2a.AgentCapabilities{Streaming: true},
		Skills:       []a2a.AgentSkill{{ID: "echo", Name: "Echo"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got.BusyPolicy() != task.BusyWait {
		t.Errorf("BusyPolicy() = %s, want wait", got.BusyPolicy())
	}
}

func TestLoadEmptyPath(t *testing.T) {
	got, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), got); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"unknown key", "server:\n  port: 80\n", "field port not found"},
		{"bad endpoint", "server:\n  endpoint: rpc\n", "server.endpoint"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"bad policy", "engine:\n  busy_policy: queue\n", "engine.busy_policy"},
		{"negative timeout", "engine:\n  invocation_timeout: -1s\n", "invocation_timeout"},
		{"zero queue", "engine:\n  max_queue_size: 0\n", "max_queue_size"},
		{"db without dsn", "database:\n  enabled: true\n  dsn: \"\"\n", "database.dsn"},
		{"invalid card", "agent:\n  name: x\n", "agent:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatal("Parse() succeeded")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.String("task_id", "t1"))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("info record passed a warn level logger")
	}
	if !strings.Contains(out, `"task_id":"t1"`) {
		t.Errorf("output %q is not JSON with the task id", out)
	}
}
