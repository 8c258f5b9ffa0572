// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"voxcut/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfigFile isolates parsing from any voxcut.yaml on the machine.
func testConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voxcut.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseArgsHost(t *testing.T) {
	cfgPath := testConfigFile(t, "log_level: warn\n")

	inv, err := ParseArgs([]string{"--config", cfgPath, "host",
		"--audio", "a.wav", "-m", "b.wav", "--video", "v.wav",
		"-o", "out.wav", "--seconds", "2.5", "-s", "44100", "-b", "256", "--loop", "--suspended"})
	require.NoError(t, err)

	assert.Equal(t, CommandHost, inv.Command)
	assert.Equal(t, []string{"a.wav", "b.wav"}, inv.Audio)
	assert.Equal(t, []string{"v.wav"}, inv.Video)
	assert.True(t, inv.Loop)
	assert.True(t, inv.Suspended)

	cfg := inv.Config
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "out.wav", cfg.Audio.OutputFile)
	assert.Equal(t, 2.5, cfg.Audio.RenderSeconds)
	assert.Equal(t, 44100.0, cfg.Audio.SampleRate)
	assert.Equal(t, 256, cfg.Audio.FramesPerBuffer)
	assert.Equal(t, config.DefaultOutputDevice, cfg.Audio.OutputDevice)
}

func TestParseArgsFlagsOverrideFileOnlyWhenSet(t *testing.T) {
	cfgPath := testConfigFile(t, "audio:\n  sample_rate: 96000\ntransport:\n  listen_address: 127.0.0.1:9000\n")

	inv, err := ParseArgs([]string{"-c", cfgPath, "host", "--audio", "a.wav"})
	require.NoError(t, err)
	assert.Equal(t, 96000.0, inv.Config.Audio.SampleRate)
	assert.Equal(t, "127.0.0.1:9000", inv.Config.Transport.ListenAddress)

	inv, err = ParseArgs([]string{"-c", cfgPath, "-a", "127.0.0.1:9100", "status"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", inv.Config.Transport.ListenAddress)
}

func TestParseArgsCommands(t *testing.T) {
	cfgPath := testConfigFile(t, "")

	tests := []struct {
		name    string
		args    []string
		command string
		rest    []string
	}{
		{"default is panel", nil, CommandPanel, nil},
		{"panel", []string{"panel"}, CommandPanel, nil},
		{"set", []string{"set", "voiceGain=-20", "muteMid=on"}, CommandSet, []string{"voiceGain=-20", "muteMid=on"}},
		{"preset", []string{"preset", "soft"}, CommandPreset, []string{"soft"}},
		{"save-preset named", []string{"save-preset", "Night"}, CommandSavePreset, []string{"Night"}},
		{"save-preset unnamed", []string{"save-preset"}, CommandSavePreset, nil},
		{"reinit", []string{"reinit"}, CommandReinit, nil},
		{"status", []string{"status"}, CommandStatus, nil},
		{"list", []string{"list"}, CommandList, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := ParseArgs(append([]string{"--config", cfgPath}, tt.args...))
			require.NoError(t, err)
			assert.Equal(t, tt.command, inv.Command)
			if len(tt.rest) > 0 {
				assert.Equal(t, tt.rest, inv.Args)
			} else {
				assert.Empty(t, inv.Args)
			}
			assert.NotNil(t, inv.Config)
		})
	}
}

func TestParseArgsErrors(t *testing.T) {
	cfgPath := testConfigFile(t, "")

	tests := []struct {
		name string
		args []string
	}{
		{"host without media", []string{"host"}},
		{"set without assignments", []string{"set"}},
		{"preset without name", []string{"preset"}},
		{"status with args", []string{"status", "now"}},
		{"bad frames per buffer", []string{"host", "--audio", "a.wav", "-b", "100"}},
		{"unknown command", []string{"explode"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArgs(append([]string{"--config", cfgPath}, tt.args...))
			assert.Error(t, err)
		})
	}
}

func TestParseArgsVersionSelectsNothing(t *testing.T) {
	inv, err := ParseArgs([]string{"--version"})
	require.NoError(t, err)
	assert.Empty(t, inv.Command)
	assert.Nil(t, inv.Config)
}
