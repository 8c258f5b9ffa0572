// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"voxcut/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug      bool             `yaml:"debug"`             // Enable debug mode (forces debug logging).
	LogLevel   string           `yaml:"log_level"`         // Logging level (e.g., "debug", "info", "warn", "error").
	Command    string           `yaml:"command,omitempty"` // A one-off command selected on the command line.
	Audio      AudioConfig      `yaml:"audio"`             // Output driver settings.
	Controller ControllerConfig `yaml:"controller"`        // Audio graph controller timing.
	Transport  TransportConfig  `yaml:"transport"`         // Page <-> control transport settings.
	Store      StoreConfig      `yaml:"store"`             // Settings persistence.
}

// AudioConfig holds settings related to the host's audio output.
type AudioConfig struct {
	OutputDevice    int           `yaml:"output_device"`     // PortAudio device index for output (-1 for default).
	SampleRate      float64       `yaml:"sample_rate"`       // Sample rate in Hz of the processing context.
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Frames per output callback, must be a power of two.
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	OutputFile      string        `yaml:"output_file"`       // Render offline to this WAV file instead of the device.
	RenderSeconds   float64       `yaml:"render_seconds"`    // Length of an offline render.
	MeterInterval   time.Duration `yaml:"meter_interval"`    // Period of output level logging, 0 disables.
}

// ControllerConfig holds the timing of the controller's state machine.
type ControllerConfig struct {
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`   // Automatic retries after a construction failure.
	RetryInterval    time.Duration `yaml:"retry_interval"`       // Fixed delay between retries.
	RebuildDelay     time.Duration `yaml:"rebuild_delay"`        // Delay between teardown and rebuild on reinit.
	SweepInterval    time.Duration `yaml:"sweep_interval"`       // Period of the self-healing sweep.
	ReadyThreshold   int           `yaml:"ready_threshold"`      // Minimum element ready state for the sweep.
	RebuildOnEQ      bool          `yaml:"rebuild_on_eq_change"` // Rebuild when shelf gains leave zero while active.
}

// TransportConfig holds settings for the websocket link between control surface and page.
type TransportConfig struct {
	ListenAddress    string        `yaml:"listen_address"`     // Address the page host listens on.
	StatusTimeout    time.Duration `yaml:"status_timeout"`     // Deadline for a status query.
	InitialSyncDelay time.Duration `yaml:"initial_sync_delay"` // Delay before pushing stored settings on start.
}

// StoreConfig holds settings for the key/value settings store.
type StoreConfig struct {
	Path     string        `yaml:"path"`     // YAML file backing the store.
	Debounce time.Duration `yaml:"debounce"` // Coalescing window for slider writes.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			OutputDevice:    DefaultOutputDevice,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			OutputFile:      DefaultOutputFile,
			RenderSeconds:   10,
			MeterInterval:   DefaultMeterInterval,
		},
		Controller: ControllerConfig{
			RetryMaxAttempts: DefaultRetryMaxAttempts,
			RetryInterval:    DefaultRetryInterval,
			RebuildDelay:     DefaultRebuildDelay,
			SweepInterval:    DefaultSweepInterval,
			ReadyThreshold:   DefaultReadyThreshold,
			RebuildOnEQ:      DefaultRebuildOnEQ,
		},
		Transport: TransportConfig{
			ListenAddress:    DefaultListenAddress,
			StatusTimeout:    DefaultStatusTimeout,
			InitialSyncDelay: DefaultInitialSyncDelay,
		},
		Store: StoreConfig{
			Path:     DefaultStorePath,
			Debounce: DefaultDebounce,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("voxcut.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{"voxcut.yaml"}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, home+"/.config/voxcut/voxcut.yaml")
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
		if path == "" {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f out of range [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if !bitint.IsPowerOfTwo(c.Audio.FramesPerBuffer) || c.Audio.FramesPerBuffer > MaxBufferFrames {
		return fmt.Errorf("audio.frames_per_buffer must be a power of two <= %d, got %d", MaxBufferFrames, c.Audio.FramesPerBuffer)
	}
	if c.Audio.OutputDevice < MinDeviceID {
		return fmt.Errorf("audio.output_device %d is invalid", c.Audio.OutputDevice)
	}
	if c.Audio.OutputFile != "" && c.Audio.RenderSeconds <= 0 {
		return fmt.Errorf("audio.render_seconds must be positive for an offline render, got %v", c.Audio.RenderSeconds)
	}
	if c.Audio.MeterInterval < 0 {
		return errors.New("audio.meter_interval must not be negative")
	}
	if c.Controller.RetryMaxAttempts < 0 {
		return errors.New("controller.retry_max_attempts must not be negative")
	}
	if c.Controller.RetryInterval <= 0 || c.Controller.RebuildDelay <= 0 || c.Controller.SweepInterval <= 0 {
		return errors.New("controller intervals must be positive")
	}
	if c.Controller.ReadyThreshold < 0 || c.Controller.ReadyThreshold > MaxReadyState {
		return fmt.Errorf("controller.ready_threshold must be within [0, %d]", MaxReadyState)
	}
	if c.Transport.ListenAddress == "" {
		return errors.New("transport.listen_address must be set")
	}
	if c.Transport.StatusTimeout <= 0 {
		return errors.New("transport.status_timeout must be positive")
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	if c.Store.Debounce < 0 {
		return errors.New("store.debounce must not be negative")
	}
	return nil
}

// applyEnvOverrides lets ENV_* variables take precedence over file values.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok && val != "" {
		cfg.LogLevel = val
	}

	// ENV_LISTEN_ADDRESS
	if val, ok := os.LookupEnv("ENV_LISTEN_ADDRESS"); ok && val != "" {
		cfg.Transport.ListenAddress = val
	}
	// ENV_STATUS_TIMEOUT
	if val, ok := os.LookupEnv("ENV_STATUS_TIMEOUT"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.StatusTimeout = dur
		}
	}

	// ENV_STORE_PATH
	if val, ok := os.LookupEnv("ENV_STORE_PATH"); ok && val != "" {
		cfg.Store.Path = val
	}
}
