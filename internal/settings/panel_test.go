// SPDX-License-Identifier: MIT
package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPanel(t *testing.T) (*Panel, *MemoryStore, *Writer) {
	t.Helper()
	store := NewMemoryStore()
	writer := NewWriter(store, time.Hour)
	panel, err := LoadPanel(context.Background(), store, writer)
	require.NoError(t, err)
	return panel, store, writer
}

func TestPanelAdjustIsDebounced(t *testing.T) {
	panel, store, writer := newTestPanel(t)

	require.NoError(t, panel.Adjust(KeyVoiceGain, -20))
	require.NoError(t, panel.Adjust(KeyVoiceGain, -25))

	assert.Equal(t, -25.0, panel.Settings().VoiceGain)
	assert.Equal(t, 0, store.Writes())

	require.NoError(t, writer.Flush(context.Background()))
	assert.Equal(t, 1, store.Writes())
}

func TestPanelAdjustRejectsMasterAndUnknown(t *testing.T) {
	panel, _, _ := newTestPanel(t)
	assert.Error(t, panel.Adjust(KeyMasterEnabled, 1))
	assert.ErrorIs(t, panel.Adjust("volume", 1), ErrUnknownKey)
}

func TestPanelMasterWritesImmediately(t *testing.T) {
	panel, store, _ := newTestPanel(t)

	require.NoError(t, panel.SetMaster(context.Background(), true))

	assert.Equal(t, 1, store.Writes())
	p, _ := store.Get(context.Background(), KeyMasterEnabled)
	assert.True(t, *p.MasterEnabled)
	assert.True(t, panel.Settings().MasterEnabled)
}

func TestPanelPresetLifecycle(t *testing.T) {
	ctx := context.Background()
	panel, store, _ := newTestPanel(t)
	require.NoError(t, panel.SetMaster(ctx, true))

	require.NoError(t, panel.ApplyPreset(ctx, PresetAggressive))
	assert.Equal(t, PresetAggressive, panel.CurrentPreset())
	s := panel.Settings()
	assert.True(t, s.MasterEnabled, "presets never flip the master switch")
	assert.True(t, s.MuteMid)
	assert.Equal(t, -60.0, s.VoiceGain)

	current, _, _ := store.Presets(ctx)
	assert.Equal(t, PresetAggressive, current)

	// A manual change clears the highlight.
	require.NoError(t, panel.Adjust(KeyGameGain, 1))
	assert.Empty(t, panel.CurrentPreset())

	require.NoError(t, panel.SaveCustom(ctx, "  "))
	custom := panel.CustomPreset()
	require.NotNil(t, custom)
	assert.Equal(t, DefaultCustomName, custom.Name)
	assert.Equal(t, 1.0, custom.Settings.GameGain)
	assert.False(t, custom.Settings.MasterEnabled)
	assert.Equal(t, PresetCustom, panel.CurrentPreset())

	require.NoError(t, panel.ApplyPreset(ctx, PresetFactory))
	require.NoError(t, panel.ApplyPreset(ctx, PresetCustom))
	assert.Equal(t, 1.0, panel.Settings().GameGain)

	assert.ErrorIs(t, panel.ApplyPreset(ctx, "loud"), ErrUnknownPreset)
}

func TestLoadPanelFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	current := PresetSoft
	require.NoError(t, store.Set(ctx, Write{
		Settings:      Patch{VoiceGain: Float(-30), MasterEnabled: Bool(true)},
		CurrentPreset: &current,
	}))

	panel, err := LoadPanel(ctx, store, NewWriter(store, 0))
	require.NoError(t, err)
	assert.Equal(t, -30.0, panel.Settings().VoiceGain)
	assert.Equal(t, PresetSoft, panel.CurrentPreset())
}
