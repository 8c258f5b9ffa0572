// SPDX-License-Identifier: MIT
package media

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voxcut/pkg/utils"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWAV encodes interleaved samples in [-1, 1] as 16-bit PCM.
func writeWAV(t *testing.T, samples []float32, channels, bitDepth int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	scale := float32(int(1)<<(bitDepth-1) - 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s * scale)
	}
	enc := wav.NewEncoder(f, testRate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: testRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadWAVStreamsWholeFile(t *testing.T) {
	// Longer than the ring so the decoder has to wait for the reader.
	const seconds = 3
	samples := utils.GenerateCenterSide(seconds*testRate, testRate, 440, 1000, 0.3)
	el, err := LoadWAV(writeWAV(t, samples, 2, 16), KindVideo)
	require.NoError(t, err)
	defer el.Close()

	assert.Equal(t, "clip.wav", el.Name())
	assert.Equal(t, float64(testRate), el.SampleRate())
	require.Eventually(t, func() bool {
		return el.Duration() >= seconds
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, HaveEnoughData, el.ReadyState())
	assert.NoError(t, el.Err())

	el.Play()
	left, right := make([]float64, 256), make([]float64, 256)
	require.Equal(t, 256, el.Read(left, right))
	for i := range left {
		assert.InDelta(t, samples[2*i], left[i], 1e-4)
		assert.InDelta(t, samples[2*i+1], right[i], 1e-4)
	}
}

func TestLoadWAVMonoPlaysOnBothChannels(t *testing.T) {
	mono := make([]float32, 1000)
	for i := range mono {
		mono[i] = 0.5
	}
	el, err := LoadWAV(writeWAV(t, mono, 1, 24), KindAudio)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return el.ReadyState() == HaveEnoughData && el.Duration() >= 1000.0/testRate
	}, 5*time.Second, 5*time.Millisecond)

	el.Play()
	left, right := make([]float64, 10), make([]float64, 10)
	require.Equal(t, 10, el.Read(left, right))
	assert.InDelta(t, 0.5, left[3], 1e-4)
	assert.Equal(t, left, right)
}

func TestLoadWAVErrors(t *testing.T) {
	_, err := LoadWAV(filepath.Join(t.TempDir(), "missing.wav"), KindVideo)
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "junk.wav")
	require.NoError(t, os.WriteFile(junk, []byte("definitely not RIFF"), 0o644))
	_, err = LoadWAV(junk, KindVideo)
	assert.Error(t, err)

	_, err = LoadWAV(writeWAV(t, make([]float32, 300), 3, 16), KindVideo)
	assert.ErrorContains(t, err, "channel count")
}

func TestElementCloseStopsDecoder(t *testing.T) {
	samples := utils.ConstantStereo(4*testRate, 0.1, 0.1)
	el, err := LoadWAV(writeWAV(t, samples, 2, 16), KindVideo)
	require.NoError(t, err)

	require.NoError(t, el.Close())
	require.Eventually(t, func() bool {
		el.ReadyState()
		return el.Duration() < 4
	}, time.Second, 5*time.Millisecond)
	assert.NoError(t, el.Err())
}
