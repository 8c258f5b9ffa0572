// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"voxcut/internal/config"
	applog "voxcut/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth of rendered WAV files.
const BitDepth = 32

// Renderer pulls a Source offline and encodes it to a WAV file. With
// Realtime set it paces itself to the wall clock, so timers in the host
// (retries, sweeps, settings sync) land where they would during playback.
type Renderer struct {
	config   config.AudioConfig
	src      Source
	Realtime bool

	frameBuf  []float32
	sampleBuf *audio.IntBuffer // Reusable buffer for format conversion
}

// NewRenderer sizes the conversion buffers from cfg.
func NewRenderer(cfg config.AudioConfig, src Source) *Renderer {
	return &Renderer{
		config:   cfg,
		src:      src,
		frameBuf: make([]float32, cfg.FramesPerBuffer*Channels),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: Channels,
				SampleRate:  int(cfg.SampleRate),
			},
			Data:           make([]int, cfg.FramesPerBuffer*Channels),
			SourceBitDepth: BitDepth,
		},
	}
}

// RenderFile writes seconds of output to filename and returns the number
// of frames written. Cancelling ctx ends the render early.
func (r *Renderer) RenderFile(ctx context.Context, filename string, seconds float64) (frames int, err error) {
	if seconds <= 0 {
		return 0, fmt.Errorf("render length must be positive, got %v", seconds)
	}
	file, err := os.Create(filename)
	if err != nil {
		return 0, err
	}
	encoder := wav.NewEncoder(file, int(r.config.SampleRate), BitDepth, Channels, 1)
	defer func() {
		if cerr := encoder.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	total := int(math.Round(seconds * r.config.SampleRate))
	per := r.config.FramesPerBuffer

	var ticker *time.Ticker
	if r.Realtime {
		ticker = time.NewTicker(time.Duration(float64(per) / r.config.SampleRate * float64(time.Second)))
		defer ticker.Stop()
	}

	applog.Infof("Renderer: writing %.1fs to %s", seconds, filename)
	for frames < total {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return frames, nil
			case <-ticker.C:
			}
		} else if ctx.Err() != nil {
			return frames, nil
		}

		n := min(per, total-frames)
		if err := r.writeBlock(encoder, n); err != nil {
			return frames, fmt.Errorf("write block: %w", err)
		}
		frames += n
	}
	return frames, nil
}

func (r *Renderer) writeBlock(encoder *wav.Encoder, n int) error {
	buf := r.frameBuf[:n*Channels]
	r.src.Render(buf)

	data := r.sampleBuf.Data[:len(buf)]
	for i, s := range buf {
		data[i] = floatToInt32(s)
	}
	r.sampleBuf.Data = data
	return encoder.Write(r.sampleBuf)
}

// floatToInt32 converts a sample to full-scale int32 with clipping.
func floatToInt32(s float32) int {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(v * math.MaxInt32)
}
