// SPDX-License-Identifier: MIT
package controller

import (
	"math"

	"voxcut/internal/settings"
)

// Fixed shelf corner frequencies in Hz.
const (
	LowShelfFrequency  = 200
	HighShelfFrequency = 4000
)

// Params are the node parameters derived from a settings snapshot.
type Params struct {
	Mid     float64 // linear gain of the mid path
	Side    float64 // linear gain of the side path
	Bass    float64 // low-shelf gain in dB
	Clarity float64 // high-shelf gain in dB
}

// DBToGain converts decibels to a linear amplitude factor.
func DBToGain(db float64) float64 {
	return math.Pow(10, db/20)
}

// ComputeParams maps settings onto graph parameters. muteMid wins over
// voiceGain; shelf gains stay in dB because the filters take dB.
func ComputeParams(s settings.Settings) Params {
	p := Params{
		Mid:     DBToGain(s.VoiceGain),
		Side:    DBToGain(s.GameGain),
		Bass:    s.BassGain,
		Clarity: s.ClarityGain,
	}
	if s.MuteMid {
		p.Mid = 0
	}
	return p
}

// WantsShelves reports whether a graph built from p includes the shelf pair.
func (p Params) WantsShelves() bool {
	return p.Bass != 0 || p.Clarity != 0
}
