// SPDX-License-Identifier: MIT
package controller

import (
	"math"
	"testing"
	"time"

	"voxcut/internal/settings"

	"github.com/stretchr/testify/assert"
)

func TestDBToGain(t *testing.T) {
	tests := []struct {
		db   float64
		want float64
	}{
		{0, 1},
		{20, 10},
		{-20, 0.1},
		{6, 1.9953},
		{-60, 0.001},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, DBToGain(tt.db), 1e-4, "db=%v", tt.db)
	}
}

// Mid gain depends only on muteMid and voiceGain, side gain only on
// gameGain, whatever the other fields hold.
func TestComputeParamsGainRules(t *testing.T) {
	gains := []float64{-60, -30, -6, 0, 3, 6, 12}
	for _, voice := range gains {
		for _, game := range gains {
			for _, mute := range []bool{false, true} {
				for _, other := range []float64{0, 5} {
					s := settings.Settings{
						MasterEnabled: other > 0,
						VoiceGain:     voice,
						GameGain:      game,
						MuteMid:       mute,
						BassGain:      other,
						ClarityGain:   -other,
						SpectralGate:  other * 10,
						Loudness:      other > 0,
					}
					p := ComputeParams(s)
					wantMid := math.Pow(10, voice/20)
					if mute {
						wantMid = 0
					}
					assert.Equal(t, wantMid, p.Mid)
					assert.Equal(t, math.Pow(10, game/20), p.Side)
					assert.Equal(t, other, p.Bass)
					assert.Equal(t, -other, p.Clarity)
				}
			}
		}
	}
}

func TestComputeParamsMuteScenario(t *testing.T) {
	p := ComputeParams(settings.Settings{MasterEnabled: true, VoiceGain: -60, GameGain: 6, MuteMid: true})
	assert.Zero(t, p.Mid)
	assert.InDelta(t, 1.9953, p.Side, 1e-4)
	assert.False(t, p.WantsShelves())
}

func TestWantsShelves(t *testing.T) {
	assert.False(t, Params{}.WantsShelves())
	assert.True(t, Params{Bass: 3}.WantsShelves())
	assert.True(t, Params{Clarity: -1}.WantsShelves())
}

func TestRetryPolicyNext(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Interval: time.Second}
	for attempt := 0; attempt < 3; attempt++ {
		d, ok := p.Next(attempt)
		assert.True(t, ok)
		assert.Equal(t, time.Second, d)
	}
	_, ok := p.Next(3)
	assert.False(t, ok)
	_, ok = p.Next(-1)
	assert.False(t, ok)
	_, ok = RetryPolicy{}.Next(0)
	assert.False(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "binding", Binding.String())
	assert.Equal(t, "active", Active.String())
	assert.Equal(t, "reconnecting", Reconnecting.String())
	assert.Equal(t, "unknown", State(42).String())
}
