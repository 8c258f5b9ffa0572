// SPDX-License-Identifier: MIT
package utils

import "math"

// GenerateCenterSide returns interleaved stereo float32 frames holding a
// centred tone (identical on both channels) plus a side tone (phase-inverted
// on the right channel). It models a voice panned centre over a wide bed.
func GenerateCenterSide(frames int, sampleRate, centerFreq, sideFreq, amp float64) []float32 {
	buffer := make([]float32, 2*frames)
	for i := 0; i < frames; i++ {
		t := float64(i) / sampleRate
		center := math.Sin(2*math.Pi*centerFreq*t) * amp
		side := math.Sin(2*math.Pi*sideFreq*t) * amp
		buffer[2*i] = float32(center + side)
		buffer[2*i+1] = float32(center - side)
	}
	return buffer
}

// GenerateStereoSine returns interleaved stereo float32 frames with
// independent sines on each channel.
func GenerateStereoSine(frames int, sampleRate, leftFreq, rightFreq, amp float64) []float32 {
	buffer := make([]float32, 2*frames)
	for i := 0; i < frames; i++ {
		t := float64(i) / sampleRate
		buffer[2*i] = float32(math.Sin(2*math.Pi*leftFreq*t) * amp)
		buffer[2*i+1] = float32(math.Sin(2*math.Pi*rightFreq*t) * amp)
	}
	return buffer
}

// ConstantStereo returns frames of a DC signal, handy for exact gain checks.
func ConstantStereo(frames int, left, right float32) []float32 {
	buffer := make([]float32, 2*frames)
	for i := 0; i < frames; i++ {
		buffer[2*i] = left
		buffer[2*i+1] = right
	}
	return buffer
}

// Channel extracts one channel (0 = left, 1 = right) of interleaved stereo.
func Channel(samples []float32, ch int) []float64 {
	out := make([]float64, len(samples)/2)
	for i := range out {
		out[i] = float64(samples[2*i+ch])
	}
	return out
}

// RMS returns the root mean square of samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}
