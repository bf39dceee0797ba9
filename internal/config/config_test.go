package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/untangl/scoutlink/internal/state"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func missingConfigEnv(t *testing.T) []string {
	t.Helper()
	return []string{envConfig + "=" + filepath.Join(t.TempDir(), "absent.toml")}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, missingConfigEnv(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.HostURL != DefaultHostURL {
		t.Fatalf("expected default host url, got %q", cfg.App.HostURL)
	}
	if cfg.App.SharePrefix != state.DefaultSharePrefix {
		t.Fatalf("expected default share prefix, got %q", cfg.App.SharePrefix)
	}
	if cfg.App.CommandTimeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %s", cfg.App.CommandTimeout)
	}
	if cfg.FileLoaded {
		t.Fatalf("absent config file should not count as loaded")
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadArgsPrecedence(t *testing.T) {
	path := writeConfig(t, `
host_url = "ws://file:1/ws"
width = 50
footer = true
share_prefix = "https://file/?url="
command_timeout = "2s"
`)
	env := []string{
		envConfig + "=" + path,
		envHostURL + "=ws://env:2/ws",
		envWidth + "=60",
	}
	args := []string{"--host", "ws://flag:3/ws"}

	cfg, err := LoadArgs(args, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.HostURL != "ws://flag:3/ws" {
		t.Fatalf("flag should win, got %q", cfg.App.HostURL)
	}
	if cfg.App.Width != 60 {
		t.Fatalf("env should beat file, got %d", cfg.App.Width)
	}
	if !cfg.App.ShowFooter {
		t.Fatalf("file value should beat default")
	}
	if cfg.App.SharePrefix != "https://file/?url=" {
		t.Fatalf("unexpected share prefix %q", cfg.App.SharePrefix)
	}
	if cfg.App.CommandTimeout != 2*time.Second {
		t.Fatalf("expected 2s timeout, got %s", cfg.App.CommandTimeout)
	}
	if cfg.File != path || !cfg.FileLoaded {
		t.Fatalf("expected loaded config path %q, got %q loaded=%v", path, cfg.File, cfg.FileLoaded)
	}
}

func TestLoadArgsConfigFlagBeatsEnv(t *testing.T) {
	envPath := writeConfig(t, `width = 10`)
	flagPath := writeConfig(t, `width = 20`)
	cfg, err := LoadArgs([]string{"--config", flagPath}, []string{envConfig + "=" + envPath})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.App.Width != 20 {
		t.Fatalf("expected width from flag config, got %d", cfg.App.Width)
	}
}

func TestLoadArgsRejectsBadFile(t *testing.T) {
	path := writeConfig(t, `width = "wide"`)
	if _, err := LoadArgs(nil, []string{envConfig + "=" + path}); err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestLoadArgsRejectsNegativeSize(t *testing.T) {
	if _, err := LoadArgs([]string{"--width", "-1"}, missingConfigEnv(t)); err == nil {
		t.Fatalf("expected width error")
	}
}

func TestLoadArgsUnknownFlag(t *testing.T) {
	if _, err := LoadArgs([]string{"--socket", "x"}, missingConfigEnv(t)); err == nil {
		t.Fatalf("expected unknown flag error")
	}
}

func TestValidate(t *testing.T) {
	base, err := LoadArgs(nil, missingConfigEnv(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http scheme", func(c *Config) { c.App.HostURL = "http://127.0.0.1/ws" }},
		{"no host", func(c *Config) { c.App.HostURL = "ws:///ws" }},
		{"zero timeout", func(c *Config) { c.App.CommandTimeout = 0 }},
	}
	for _, tc := range cases {
		cfg := base
		tc.mutate(&cfg)
		if err := Validate(cfg); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}
