// SPDX-License-Identifier: MIT
package settings

import (
	"errors"
	"fmt"
	"strings"
)

// Preset names understood by LookupPreset.
const (
	PresetSoft       = "soft"
	PresetAggressive = "aggressive"
	PresetFactory    = "factory"
	PresetCustom     = "custom"

	// DefaultCustomName is used when a custom preset is saved without a name.
	DefaultCustomName = "My preset"
)

// ErrUnknownPreset is returned for preset names that are neither built in
// nor a saved custom preset.
var ErrUnknownPreset = errors.New("settings: unknown preset")

// Preset is a named, complete processing record. The master switch is not
// part of a preset; applying one never turns processing on or off.
type Preset struct {
	Name     string   `json:"name" yaml:"name"`
	Settings Settings `json:"settings" yaml:"settings"`
}

// Patch returns every preset field except masterEnabled.
func (p Preset) Patch() Patch {
	full := Full(p.Settings)
	full.MasterEnabled = nil
	return full
}

var builtin = map[string]Preset{
	PresetSoft: {
		Name: "Clean game",
		Settings: Settings{
			VoiceGain:   -30,
			GameGain:    3,
			BassGain:    2,
			ClarityGain: 4,
		},
	},
	PresetAggressive: {
		Name: "Full removal",
		Settings: Settings{
			VoiceGain:   -60,
			GameGain:    6,
			BassGain:    4,
			ClarityGain: 6,
			MuteMid:     true,
		},
	},
	PresetFactory: {
		Name:     "Factory settings",
		Settings: Defaults(),
	},
}

// Builtin returns the fixed preset names in display order.
func Builtin() []string {
	return []string{PresetSoft, PresetAggressive, PresetFactory}
}

// LookupPreset resolves name against the built-in presets and the saved
// custom preset, which may be nil.
func LookupPreset(name string, custom *Preset) (Preset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if p, ok := builtin[key]; ok {
		return p, nil
	}
	if key == PresetCustom && custom != nil {
		return *custom, nil
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}
