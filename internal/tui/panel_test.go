// SPDX-License-Identifier: MIT
package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voxcut/internal/settings"
	"voxcut/internal/transport"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	s     settings.Settings
	force bool
}

type recordingForwarder struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (f *recordingForwarder) Forward(_ context.Context, s settings.Settings, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{s, force})
	return f.err
}

func (f *recordingForwarder) last(t *testing.T) sent {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	return f.sent[len(f.sent)-1]
}

func newTestModel(t *testing.T) (Model, *settings.MemoryStore, *recordingForwarder) {
	t.Helper()
	store := settings.NewMemoryStore()
	panel, err := settings.LoadPanel(context.Background(), store, settings.NewWriter(store, time.Hour))
	require.NoError(t, err)
	fwd := &recordingForwarder{}
	return New(panel, fwd, nil), store, fwd
}

func press(t *testing.T, m Model, names ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range names {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestSliderChangeSettlesBeforeSending(t *testing.T) {
	m, _, fwd := newTestModel(t)

	// Voice is the second row.
	m, cmd := press(t, m, "down", "left", "left", "left")
	require.NotNil(t, cmd)
	assert.Equal(t, -3.0, m.panel.Settings().VoiceGain)
	assert.Equal(t, 3, m.seq)
	assert.Empty(t, fwd.sent, "nothing is sent before the settle delay")
	assert.Empty(t, m.panel.CurrentPreset())

	// Stale apply ticks are dropped.
	m, cmd = update(t, m, applyMsg{seq: 1})
	assert.Nil(t, cmd)

	m, cmd = update(t, m, applyMsg{seq: 3})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, appliedMsg{}, msg)
	got := fwd.last(t)
	assert.Equal(t, -3.0, got.s.VoiceGain)
	assert.False(t, got.force)

	m, _ = update(t, m, msg)
	assert.NoError(t, m.err)
}

func TestSliderClampsToRange(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "down", "down") // game, range -12..12
	for range 20 {
		m, _ = press(t, m, "right")
	}
	assert.Equal(t, 12.0, m.panel.Settings().GameGain)

	seq := m.seq
	m, cmd := press(t, m, "right")
	assert.Nil(t, cmd, "no change at the limit")
	assert.Equal(t, seq, m.seq)
}

func TestMasterToggleSendsImmediately(t *testing.T) {
	m, store, fwd := newTestModel(t)

	m, cmd := press(t, m, "space")
	require.NotNil(t, cmd)
	assert.True(t, m.panel.Settings().MasterEnabled)
	assert.Equal(t, 1, store.Writes(), "master is written without debouncing")

	cmd()
	assert.True(t, fwd.last(t).s.MasterEnabled)
	assert.Zero(t, m.seq)
}

func TestMutedVoiceIsLocked(t *testing.T) {
	m, _, _ := newTestModel(t)

	// Mute voice is row 5.
	m, _ = press(t, m, "down", "down", "down", "down", "down", "enter")
	require.True(t, m.panel.Settings().MuteMid)

	m, cmd := press(t, m, "up", "up", "up", "up", "left")
	assert.Nil(t, cmd)
	assert.Zero(t, m.panel.Settings().VoiceGain)
	assert.Contains(t, m.View(), "MUTE")
}

func TestPresetKeys(t *testing.T) {
	m, _, fwd := newTestModel(t)

	m, cmd := press(t, m, "2")
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, settings.PresetAggressive, m.panel.CurrentPreset())
	got := fwd.last(t).s
	assert.Equal(t, -60.0, got.VoiceGain)
	assert.True(t, got.MuteMid)

	// A manual change clears the highlight.
	m, _ = press(t, m, "down", "down", "left")
	assert.Empty(t, m.panel.CurrentPreset())

	// No custom preset yet.
	m, cmd = press(t, m, "4")
	assert.Nil(t, cmd)
	assert.ErrorIs(t, m.err, settings.ErrUnknownPreset)
}

func TestSaveCustomPreset(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "down", "right", "right")
	m, _ = press(t, m, "s")
	require.True(t, m.naming)
	m, _ = press(t, m, "N", "i", "g", "h", "t", "enter")
	assert.False(t, m.naming)
	require.NotNil(t, m.panel.CustomPreset())
	assert.Equal(t, "Night", m.panel.CustomPreset().Name)
	assert.Equal(t, 2.0, m.panel.CustomPreset().Settings.VoiceGain)
	assert.Equal(t, settings.PresetCustom, m.panel.CurrentPreset())

	// Custom preset is now reachable through its key.
	m, cmd := press(t, m, "3", "4")
	require.NotNil(t, cmd)
	assert.Equal(t, 2.0, m.panel.Settings().VoiceGain)
}

func TestSaveCustomDefaultNameAndCancel(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "s", "x", "esc")
	assert.False(t, m.naming)
	assert.Nil(t, m.panel.CustomPreset())

	m, _ = press(t, m, "s", "enter")
	require.NotNil(t, m.panel.CustomPreset())
	assert.Equal(t, settings.DefaultCustomName, m.panel.CustomPreset().Name)
}

func TestReinitForces(t *testing.T) {
	m, _, fwd := newTestModel(t)

	_, cmd := press(t, m, "r")
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, fwd.last(t).force)
}

func TestForwardErrorIsShown(t *testing.T) {
	m, _, fwd := newTestModel(t)
	fwd.err = errors.New("page gone")

	m, cmd := press(t, m, "r")
	m, _ = update(t, m, cmd())
	assert.Contains(t, m.View(), "page gone")
}

func TestStatusLine(t *testing.T) {
	store := settings.NewMemoryStore()
	panel, err := settings.LoadPanel(context.Background(), store, settings.NewWriter(store, 0))
	require.NoError(t, err)

	active := true
	status := func(context.Context) (transport.Status, error) {
		if !active {
			return transport.Status{}, transport.ErrTimeout
		}
		return transport.Status{Active: true}, nil
	}
	m := New(panel, &recordingForwarder{}, status)

	first := m.Init()
	require.NotNil(t, first)
	m, next := update(t, m, first())
	assert.NotNil(t, next, "status keeps polling")
	assert.Contains(t, m.View(), "processing active")

	active = false
	m, _ = update(t, m, m.queryStatus())
	assert.Contains(t, m.View(), "inactive")
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRowFormat(t *testing.T) {
	tests := []struct {
		row  row
		v    float64
		want string
	}{
		{rows[1], 3, "+3.0 dB"},
		{rows[1], -30, "-30.0 dB"},
		{rows[1], 0, "0.0 dB"},
		{rows[6], 42.4, "42%"},
		{rows[0], 1, "On"},
		{rows[0], 0, "Off"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.row.format(tt.v))
	}
}
