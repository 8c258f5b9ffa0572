// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "voxcut.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Controller.RetryMaxAttempts != DefaultRetryMaxAttempts {
		t.Errorf("retry attempts = %d, want %d", cfg.Controller.RetryMaxAttempts, DefaultRetryMaxAttempts)
	}
	if cfg.Transport.StatusTimeout != 500*time.Millisecond {
		t.Errorf("status timeout = %s, want 500ms", cfg.Transport.StatusTimeout)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
audio:
  sample_rate: 44100
  frames_per_buffer: 256
controller:
  retry_interval: 2s
  sweep_interval: 5s
store:
  debounce: 250ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.FramesPerBuffer != 256 {
		t.Errorf("audio section not applied: %+v", cfg.Audio)
	}
	if cfg.Controller.RetryInterval != 2*time.Second || cfg.Controller.SweepInterval != 5*time.Second {
		t.Errorf("controller section not applied: %+v", cfg.Controller)
	}
	// Untouched fields keep their defaults.
	if cfg.Controller.RebuildDelay != DefaultRebuildDelay {
		t.Errorf("rebuild delay = %s, want default", cfg.Controller.RebuildDelay)
	}
	if cfg.Store.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %s, want 250ms", cfg.Store.Debounce)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("ENV_STATUS_TIMEOUT", "1s")
	t.Setenv("ENV_STORE_PATH", "/tmp/other.yaml")
	path := writeTempConfig(t, "debug: false\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Transport.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("listen address = %q", cfg.Transport.ListenAddress)
	}
	if cfg.Transport.StatusTimeout != time.Second {
		t.Errorf("status timeout = %s", cfg.Transport.StatusTimeout)
	}
	if cfg.Store.Path != "/tmp/other.yaml" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"frames not power of two", func(c *Config) { c.Audio.FramesPerBuffer = 100 }, "power of two"},
		{"sample rate too low", func(c *Config) { c.Audio.SampleRate = 100 }, "sample_rate"},
		{"negative meter interval", func(c *Config) { c.Audio.MeterInterval = -time.Second }, "meter_interval"},
		{"offline render without length", func(c *Config) {
			c.Audio.OutputFile = "out.wav"
			c.Audio.RenderSeconds = 0
		}, "render_seconds"},
		{"negative retries", func(c *Config) { c.Controller.RetryMaxAttempts = -1 }, "retry_max_attempts"},
		{"zero sweep", func(c *Config) { c.Controller.SweepInterval = 0 }, "intervals"},
		{"ready threshold", func(c *Config) { c.Controller.ReadyThreshold = 5 }, "ready_threshold"},
		{"empty listen address", func(c *Config) { c.Transport.ListenAddress = "" }, "listen_address"},
		{"zero status timeout", func(c *Config) { c.Transport.StatusTimeout = 0 }, "status_timeout"},
		{"empty store path", func(c *Config) { c.Store.Path = "" }, "store.path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}
