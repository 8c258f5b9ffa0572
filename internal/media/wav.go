// SPDX-License-Identifier: MIT
package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	applog "voxcut/internal/log"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultRingSize is the read-ahead between the decoder and the playhead,
// in bytes (two seconds of 48 kHz stereo float32).
const DefaultRingSize = 2 * 48000 * bytesPerFrame

const decodeFrames = 4096

// LoadWAV opens a PCM WAV file and returns a paused element that fills in
// the background. Mono files play on both channels; files with more than two
// channels are rejected.
func LoadWAV(path string, kind Kind) (*Element, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	channels := int(dec.NumChans)
	if channels < 1 || channels > 2 {
		f.Close()
		return nil, fmt.Errorf("unsupported channel count %d in %s", channels, path)
	}
	divisor, err := sampleDivisor(int(dec.BitDepth))
	if err != nil {
		f.Close()
		return nil, err
	}

	el := newStreamingElement(filepath.Base(path), kind, float64(dec.SampleRate), DefaultRingSize)
	go el.decode(f, dec, channels, divisor)
	applog.Debugf("Media: loading %s (%d Hz, %d ch, %d bit)", path, dec.SampleRate, channels, dec.BitDepth)
	return el, nil
}

// decode streams PCM from dec into the element's ring until EOF, a decode
// error or Close.
func (e *Element) decode(f *os.File, dec *wav.Decoder, channels int, divisor float64) {
	defer f.Close()

	buf := &audio.IntBuffer{
		Data:   make([]int, decodeFrames*channels),
		Format: &audio.Format{SampleRate: int(dec.SampleRate), NumChannels: channels},
	}
	out := make([]byte, decodeFrames*bytesPerFrame)

	for {
		n, err := dec.PCMBuffer(buf)
		if n > 0 {
			frames := n / channels
			for i := 0; i < frames; i++ {
				l := float32(float64(buf.Data[i*channels]) / divisor)
				r := l
				if channels == 2 {
					r = float32(float64(buf.Data[i*channels+1]) / divisor)
				}
				binary.LittleEndian.PutUint32(out[i*bytesPerFrame:], math.Float32bits(l))
				binary.LittleEndian.PutUint32(out[i*bytesPerFrame+4:], math.Float32bits(r))
			}
			if _, werr := e.ring.Write(out[:frames*bytesPerFrame]); werr != nil {
				return // closed
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			e.ring.CloseWithError(fmt.Errorf("error reading WAV data: %w", err))
			return
		}
		if n == 0 || errors.Is(err, io.EOF) {
			e.ring.CloseWriter()
			return
		}
	}
}

// sampleDivisor normalises integer PCM of the given bit depth to [-1, 1).
func sampleDivisor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16:
		return 32768.0, nil
	case 24:
		return 8388608.0, nil
	case 32:
		return 2147483648.0, nil
	default:
		return 0, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
}
