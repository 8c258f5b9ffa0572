// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"

	"voxcut/internal/settings"
)

type rowKind int

const (
	rowToggle rowKind = iota
	rowDB
	rowPercent
)

// row is one control on the panel.
type row struct {
	key      string
	label    string
	kind     rowKind
	min, max float64
	step     float64
}

var rows = []row{
	{key: settings.KeyMasterEnabled, label: "Processing", kind: rowToggle},
	{key: settings.KeyVoiceGain, label: "Voice (center)", kind: rowDB, min: -60, max: 12, step: 1},
	{key: settings.KeyGameGain, label: "Game (sides)", kind: rowDB, min: -12, max: 12, step: 1},
	{key: settings.KeyBassGain, label: "Bass", kind: rowDB, min: -12, max: 12, step: 1},
	{key: settings.KeyClarityGain, label: "Clarity", kind: rowDB, min: -12, max: 12, step: 1},
	{key: settings.KeyMuteMid, label: "Mute voice", kind: rowToggle},
	{key: settings.KeySpectralGate, label: "Spectral gate", kind: rowPercent, min: 0, max: 100, step: 5},
	{key: settings.KeyAdaptiveMode, label: "Adaptive mode", kind: rowToggle},
	{key: settings.KeyReverbRemoval, label: "Reverb removal", kind: rowPercent, min: 0, max: 100, step: 5},
	{key: settings.KeyDeesser, label: "De-esser", kind: rowPercent, min: 0, max: 100, step: 5},
	{key: settings.KeyMultiband, label: "Multiband", kind: rowToggle},
	{key: settings.KeyLoudness, label: "Loudness", kind: rowToggle},
}

// value reads the row's field from s; toggles read as 0 or 1.
func value(s settings.Settings, key string) float64 {
	switch key {
	case settings.KeyMasterEnabled:
		return b2f(s.MasterEnabled)
	case settings.KeyVoiceGain:
		return s.VoiceGain
	case settings.KeyGameGain:
		return s.GameGain
	case settings.KeyBassGain:
		return s.BassGain
	case settings.KeyClarityGain:
		return s.ClarityGain
	case settings.KeyMuteMid:
		return b2f(s.MuteMid)
	case settings.KeySpectralGate:
		return s.SpectralGate
	case settings.KeyAdaptiveMode:
		return b2f(s.AdaptiveMode)
	case settings.KeyReverbRemoval:
		return s.ReverbRemoval
	case settings.KeyDeesser:
		return s.Deesser
	case settings.KeyMultiband:
		return b2f(s.Multiband)
	case settings.KeyLoudness:
		return b2f(s.Loudness)
	}
	return 0
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// nudge moves v by dir steps, clamped to the row's range.
func (r row) nudge(v float64, dir int) float64 {
	return math.Max(r.min, math.Min(r.max, v+float64(dir)*r.step))
}

// format renders v as signed dB with one decimal, a whole percent or On/Off.
func (r row) format(v float64) string {
	switch r.kind {
	case rowDB:
		if v > 0 {
			return fmt.Sprintf("+%.1f dB", v)
		}
		return fmt.Sprintf("%.1f dB", v)
	case rowPercent:
		return fmt.Sprintf("%d%%", int(math.Round(v)))
	}
	if v > 0 {
		return "On"
	}
	return "Off"
}
