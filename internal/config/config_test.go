package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/medscreen/adaudit/internal/config"
)

const baseConfig = `
shutdown_timeout = "45s"
version = "1.2.3"

[server]
host = "127.0.0.1"
port = 8181
read_timeout = "30s"

[database]
name = "adaudit"
user = "adaudit"
password = "adaudit"

[analysis]
proposer_timeout = "20s"
negative_superset_slack = 8

[api]
base_path = "/api/v1"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.ShutdownTimeout != "45s" {
		t.Errorf("shutdown_timeout: got %s, want 45s", cfg.ShutdownTimeout)
	}
	if cfg.Version != "1.2.3" {
		t.Errorf("version: got %s, want 1.2.3", cfg.Version)
	}
	if cfg.Server.Addr() != "127.0.0.1:8181" {
		t.Errorf("addr: got %s, want 127.0.0.1:8181", cfg.Server.Addr())
	}
	if cfg.Server.ReadTimeoutDuration() != 30*time.Second {
		t.Errorf("read_timeout: got %v, want 30s", cfg.Server.ReadTimeoutDuration())
	}
	if cfg.Analysis.ProposerTimeoutDuration() != 20*time.Second {
		t.Errorf("proposer_timeout: got %v, want 20s", cfg.Analysis.ProposerTimeoutDuration())
	}
	if cfg.Analysis.NegativeSupersetSlack != 8 {
		t.Errorf("negative_superset_slack: got %d, want 8", cfg.Analysis.NegativeSupersetSlack)
	}
	if cfg.API.BasePath != "/api/v1" {
		t.Errorf("base_path: got %s, want /api/v1", cfg.API.BasePath)
	}

	// Unset fields fill in from defaults.
	if cfg.Server.WriteTimeout != "15m" {
		t.Errorf("write_timeout default: got %s, want 15m", cfg.Server.WriteTimeout)
	}
	if cfg.Analysis.SchedulerInterval != "10m" {
		t.Errorf("scheduler_interval default: got %s, want 10m", cfg.Analysis.SchedulerInterval)
	}
	if cfg.Agent.Name == "" {
		t.Error("agent name should fill in from go-agents defaults")
	}
}

func TestLoadWithoutConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ADAUDIT_DB_NAME", "adaudit")
	t.Setenv("ADAUDIT_DB_USER", "adaudit")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.ShutdownTimeout != "30s" {
		t.Errorf("shutdown_timeout default: got %s, want 30s", cfg.ShutdownTimeout)
	}
	if cfg.Analysis.ProposerTimeout != "45s" {
		t.Errorf("proposer_timeout default: got %s, want 45s", cfg.Analysis.ProposerTimeout)
	}
	if cfg.Analysis.NegativeSupersetSlack != 5 {
		t.Errorf("negative_superset_slack default: got %d, want 5", cfg.Analysis.NegativeSupersetSlack)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("base_path default: got %s, want /api", cfg.API.BasePath)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvAdauditEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("overlay db host: got %s, want prodhost", cfg.Database.Host)
	}

	// Fields absent from the overlay keep their base values.
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("base host: got %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Database.Name != "adaudit" {
		t.Errorf("base db name: got %s, want adaudit", cfg.Database.Name)
	}
	if cfg.Env() != "staging" {
		t.Errorf("env: got %s, want staging", cfg.Env())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)
	t.Setenv(config.EnvServerPort, "9191")
	t.Setenv(config.EnvAdauditShutdownTimeout, "5s")
	t.Setenv(config.EnvAnalysisNegativeSlack, "2")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("env port: got %d, want 9191", cfg.Server.Port)
	}
	if cfg.ShutdownTimeoutDuration() != 5*time.Second {
		t.Errorf("env shutdown_timeout: got %v, want 5s", cfg.ShutdownTimeoutDuration())
	}
	if cfg.Analysis.NegativeSupersetSlack != 2 {
		t.Errorf("env slack: got %d, want 2", cfg.Analysis.NegativeSupersetSlack)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig+"\n[extra\n")
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Error("expected parse error for malformed toml")
	}
}

func TestAnalysisConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AnalysisConfig
		wantErr string
	}{
		{"defaults pass", config.AnalysisConfig{}, ""},
		{"bad proposer timeout", config.AnalysisConfig{ProposerTimeout: "soon"}, "proposer_timeout"},
		{"bad scheduler interval", config.AnalysisConfig{SchedulerInterval: "often"}, "scheduler_interval"},
		{"negative slack", config.AnalysisConfig{NegativeSupersetSlack: -1}, "negative_superset_slack"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("finalize failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestServerConfigValidation(t *testing.T) {
	cfg := config.ServerConfig{Port: 70000}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg = config.ServerConfig{ReadTimeout: "fast"}
	if err := cfg.Finalize(); err == nil {
		t.Error("expected error for invalid read_timeout")
	}
}
