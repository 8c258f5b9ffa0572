// SPDX-License-Identifier: MIT
/*
Package settings holds the desired processing state and everything that
persists it: the flat Settings record, partial Patch updates, the fixed
presets, a YAML-backed key/value Store, a debouncing Writer and the Panel
model that a control surface drives.

Settings is a pure value. It only ever changes by merging a Patch over the
previous snapshot; fields absent from the patch are retained.
*/
package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Field names, shared by the store, the transport and the CLI.
const (
	KeyMasterEnabled = "masterEnabled"
	KeyVoiceGain     = "voiceGain"
	KeyGameGain      = "gameGain"
	KeyBassGain      = "bassGain"
	KeyClarityGain   = "clarityGain"
	KeyMuteMid       = "muteMid"
	KeySpectralGate  = "spectralGate"
	KeyAdaptiveMode  = "adaptiveMode"
	KeyReverbRemoval = "reverbRemoval"
	KeyDeesser       = "deesser"
	KeyMultiband     = "multiband"
	KeyLoudness      = "loudness"
)

// ErrUnknownKey is returned when a field name is not part of Settings.
var ErrUnknownKey = errors.New("settings: unknown key")

// Settings is the authoritative desired processing state. Gains are in dB,
// percent controls in 0..100. The percent and reserved toggles are carried
// but have no processing effect.
type Settings struct {
	MasterEnabled bool    `json:"masterEnabled" yaml:"masterEnabled"`
	VoiceGain     float64 `json:"voiceGain" yaml:"voiceGain"`
	GameGain      float64 `json:"gameGain" yaml:"gameGain"`
	BassGain      float64 `json:"bassGain" yaml:"bassGain"`
	ClarityGain   float64 `json:"clarityGain" yaml:"clarityGain"`
	MuteMid       bool    `json:"muteMid" yaml:"muteMid"`
	SpectralGate  float64 `json:"spectralGate" yaml:"spectralGate"`
	AdaptiveMode  bool    `json:"adaptiveMode" yaml:"adaptiveMode"`
	ReverbRemoval float64 `json:"reverbRemoval" yaml:"reverbRemoval"`
	Deesser       float64 `json:"deesser" yaml:"deesser"`
	Multiband     bool    `json:"multiband" yaml:"multiband"`
	Loudness      bool    `json:"loudness" yaml:"loudness"`
}

// Defaults is the record used for every unset key.
func Defaults() Settings {
	return Settings{}
}

// Patch is a partial Settings record; nil fields are "not present".
type Patch struct {
	MasterEnabled *bool    `json:"masterEnabled,omitempty" yaml:"masterEnabled,omitempty"`
	VoiceGain     *float64 `json:"voiceGain,omitempty" yaml:"voiceGain,omitempty"`
	GameGain      *float64 `json:"gameGain,omitempty" yaml:"gameGain,omitempty"`
	BassGain      *float64 `json:"bassGain,omitempty" yaml:"bassGain,omitempty"`
	ClarityGain   *float64 `json:"clarityGain,omitempty" yaml:"clarityGain,omitempty"`
	MuteMid       *bool    `json:"muteMid,omitempty" yaml:"muteMid,omitempty"`
	SpectralGate  *float64 `json:"spectralGate,omitempty" yaml:"spectralGate,omitempty"`
	AdaptiveMode  *bool    `json:"adaptiveMode,omitempty" yaml:"adaptiveMode,omitempty"`
	ReverbRemoval *float64 `json:"reverbRemoval,omitempty" yaml:"reverbRemoval,omitempty"`
	Deesser       *float64 `json:"deesser,omitempty" yaml:"deesser,omitempty"`
	Multiband     *bool    `json:"multiband,omitempty" yaml:"multiband,omitempty"`
	Loudness      *bool    `json:"loudness,omitempty" yaml:"loudness,omitempty"`
}

// Bool and Float return pointers for building patches inline.
func Bool(v bool) *bool { return &v }
func Float(v float64) *float64 { return &v }

// Keys returns every field name in declaration order.
func Keys() []string {
	return []string{
		KeyMasterEnabled, KeyVoiceGain, KeyGameGain, KeyBassGain, KeyClarityGain, KeyMuteMid,
		KeySpectralGate, KeyAdaptiveMode, KeyReverbRemoval, KeyDeesser, KeyMultiband, KeyLoudness,
	}
}

// Merge returns s with every present field of p applied.
func (s Settings) Merge(p Patch) Settings {
	if p.MasterEnabled != nil {
		s.MasterEnabled = *p.MasterEnabled
	}
	if p.VoiceGain != nil {
		s.VoiceGain = *p.VoiceGain
	}
	if p.GameGain != nil {
		s.GameGain = *p.GameGain
	}
	if p.BassGain != nil {
		s.BassGain = *p.BassGain
	}
	if p.ClarityGain != nil {
		s.ClarityGain = *p.ClarityGain
	}
	if p.MuteMid != nil {
		s.MuteMid = *p.MuteMid
	}
	if p.SpectralGate != nil {
		s.SpectralGate = *p.SpectralGate
	}
	if p.AdaptiveMode != nil {
		s.AdaptiveMode = *p.AdaptiveMode
	}
	if p.ReverbRemoval != nil {
		s.ReverbRemoval = *p.ReverbRemoval
	}
	if p.Deesser != nil {
		s.Deesser = *p.Deesser
	}
	if p.Multiband != nil {
		s.Multiband = *p.Multiband
	}
	if p.Loudness != nil {
		s.Loudness = *p.Loudness
	}
	return s
}

// Full returns a patch carrying every field of s.
func Full(s Settings) Patch {
	return Patch{
		MasterEnabled: Bool(s.MasterEnabled),
		VoiceGain:     Float(s.VoiceGain),
		GameGain:      Float(s.GameGain),
		BassGain:      Float(s.BassGain),
		ClarityGain:   Float(s.ClarityGain),
		MuteMid:       Bool(s.MuteMid),
		SpectralGate:  Float(s.SpectralGate),
		AdaptiveMode:  Bool(s.AdaptiveMode),
		ReverbRemoval: Float(s.ReverbRemoval),
		Deesser:       Float(s.Deesser),
		Multiband:     Bool(s.Multiband),
		Loudness:      Bool(s.Loudness),
	}
}

// Combine overlays q on p; fields present in q win.
func (p Patch) Combine(q Patch) Patch {
	out := p
	for _, key := range q.Present() {
		out.copyField(q, key)
	}
	return out
}

// Only keeps the named fields of p. Unknown keys are ignored.
func (p Patch) Only(keys ...string) Patch {
	var out Patch
	for _, key := range keys {
		out.copyField(p, key)
	}
	return out
}

// Present lists the keys that are set, in declaration order.
func (p Patch) Present() []string {
	var keys []string
	for _, key := range Keys() {
		if p.has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// IsEmpty reports whether no field is present.
func (p Patch) IsEmpty() bool {
	return len(p.Present()) == 0
}

func (p Patch) has(key string) bool {
	switch key {
	case KeyMasterEnabled:
		return p.MasterEnabled != nil
	case KeyVoiceGain:
		return p.VoiceGain != nil
	case KeyGameGain:
		return p.GameGain != nil
	case KeyBassGain:
		return p.BassGain != nil
	case KeyClarityGain:
		return p.ClarityGain != nil
	case KeyMuteMid:
		return p.MuteMid != nil
	case KeySpectralGate:
		return p.SpectralGate != nil
	case KeyAdaptiveMode:
		return p.AdaptiveMode != nil
	case KeyReverbRemoval:
		return p.ReverbRemoval != nil
	case KeyDeesser:
		return p.Deesser != nil
	case KeyMultiband:
		return p.Multiband != nil
	case KeyLoudness:
		return p.Loudness != nil
	}
	return false
}

func (p *Patch) copyField(src Patch, key string) {
	switch key {
	case KeyMasterEnabled:
		p.MasterEnabled = src.MasterEnabled
	case KeyVoiceGain:
		p.VoiceGain = src.VoiceGain
	case KeyGameGain:
		p.GameGain = src.GameGain
	case KeyBassGain:
		p.BassGain = src.BassGain
	case KeyClarityGain:
		p.ClarityGain = src.ClarityGain
	case KeyMuteMid:
		p.MuteMid = src.MuteMid
	case KeySpectralGate:
		p.SpectralGate = src.SpectralGate
	case KeyAdaptiveMode:
		p.AdaptiveMode = src.AdaptiveMode
	case KeyReverbRemoval:
		p.ReverbRemoval = src.ReverbRemoval
	case KeyDeesser:
		p.Deesser = src.Deesser
	case KeyMultiband:
		p.Multiband = src.Multiband
	case KeyLoudness:
		p.Loudness = src.Loudness
	}
}

// Set parses value for key and stores it in p. Toggles accept anything
// strconv.ParseBool does plus "on"/"off"; percent controls are clamped to 0..100.
func (p *Patch) Set(key, value string) error {
	switch key {
	case KeyMasterEnabled, KeyMuteMid, KeyAdaptiveMode, KeyMultiband, KeyLoudness:
		b, err := parseToggle(value)
		if err != nil {
			return fmt.Errorf("settings: %s: %w", key, err)
		}
		switch key {
		case KeyMasterEnabled:
			p.MasterEnabled = Bool(b)
		case KeyMuteMid:
			p.MuteMid = Bool(b)
		case KeyAdaptiveMode:
			p.AdaptiveMode = Bool(b)
		case KeyMultiband:
			p.Multiband = Bool(b)
		case KeyLoudness:
			p.Loudness = Bool(b)
		}
		return nil
	case KeyVoiceGain, KeyGameGain, KeyBassGain, KeyClarityGain, KeySpectralGate, KeyReverbRemoval, KeyDeesser:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("settings: %s: %w", key, err)
		}
		p.SetFloat(key, f)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// SetFloat stores a numeric control; toggles treat any value > 0 as on,
// as slider-backed toggles do.
func (p *Patch) SetFloat(key string, v float64) {
	switch key {
	case KeyVoiceGain:
		p.VoiceGain = Float(v)
	case KeyGameGain:
		p.GameGain = Float(v)
	case KeyBassGain:
		p.BassGain = Float(v)
	case KeyClarityGain:
		p.ClarityGain = Float(v)
	case KeySpectralGate:
		p.SpectralGate = Float(clampPercent(v))
	case KeyReverbRemoval:
		p.ReverbRemoval = Float(clampPercent(v))
	case KeyDeesser:
		p.Deesser = Float(clampPercent(v))
	case KeyMasterEnabled:
		p.MasterEnabled = Bool(v > 0)
	case KeyMuteMid:
		p.MuteMid = Bool(v > 0)
	case KeyAdaptiveMode:
		p.AdaptiveMode = Bool(v > 0)
	case KeyMultiband:
		p.Multiband = Bool(v > 0)
	case KeyLoudness:
		p.Loudness = Bool(v > 0)
	}
}

// ParseAssignments turns "key=value" arguments into a patch.
func ParseAssignments(args []string) (Patch, error) {
	var p Patch
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return Patch{}, fmt.Errorf("settings: expected key=value, got %q", arg)
		}
		if err := p.Set(strings.TrimSpace(key), value); err != nil {
			return Patch{}, err
		}
	}
	return p, nil
}

// String renders the present fields as sorted key=value pairs, for logs.
func (p Patch) String() string {
	m := p.values()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + m[k]
	}
	return "{" + strings.Join(parts, " ") + "}"
}

func (p Patch) values() map[string]string {
	s := Defaults().Merge(p)
	all := map[string]string{
		KeyMasterEnabled: strconv.FormatBool(s.MasterEnabled),
		KeyVoiceGain:     strconv.FormatFloat(s.VoiceGain, 'g', -1, 64),
		KeyGameGain:      strconv.FormatFloat(s.GameGain, 'g', -1, 64),
		KeyBassGain:      strconv.FormatFloat(s.BassGain, 'g', -1, 64),
		KeyClarityGain:   strconv.FormatFloat(s.ClarityGain, 'g', -1, 64),
		KeyMuteMid:       strconv.FormatBool(s.MuteMid),
		KeySpectralGate:  strconv.FormatFloat(s.SpectralGate, 'g', -1, 64),
		KeyAdaptiveMode:  strconv.FormatBool(s.AdaptiveMode),
		KeyReverbRemoval: strconv.FormatFloat(s.ReverbRemoval, 'g', -1, 64),
		KeyDeesser:       strconv.FormatFloat(s.Deesser, 'g', -1, 64),
		KeyMultiband:     strconv.FormatBool(s.Multiband),
		KeyLoudness:      strconv.FormatBool(s.Loudness),
	}
	out := make(map[string]string)
	for _, key := range p.Present() {
		out[key] = all[key]
	}
	return out
}

func parseToggle(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
