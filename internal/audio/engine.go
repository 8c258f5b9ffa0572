// SPDX-License-Identifier: MIT
/*
Package audio drives the page host's output:
- Live playback through a PortAudio output stream
- Offline rendering to a WAV file
- Output device discovery

Thread Safety:
- The stream callback only touches pre-allocated buffers
- Running state is an atomic flag
- Locks OS thread during audio processing
*/
package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"voxcut/internal/config"
	applog "voxcut/internal/log"

	"github.com/gordonklaus/portaudio"
)

// Channels is fixed: the page always renders interleaved stereo.
const Channels = 2

// ErrRunning is returned when starting an engine that is already running.
var ErrRunning = errors.New("audio: engine already running")

// Source fills interleaved stereo frames; *media.Page is one.
type Source interface {
	Render(out []float32)
}

// Engine plays a Source through a PortAudio output device.
type Engine struct {
	config config.AudioConfig
	src    Source

	outputDevice  *portaudio.DeviceInfo
	outputLatency time.Duration
	outputStream  *portaudio.Stream

	// Pre-allocated so the callback never allocates.
	outputBuffer []float32

	running   atomic.Bool
	callbacks atomic.Uint64
}

// NewEngine resolves the configured output device. PortAudio must be
// initialized.
func NewEngine(cfg config.AudioConfig, src Source) (*Engine, error) {
	device, err := OutputDevice(cfg.OutputDevice)
	if err != nil {
		return nil, err
	}
	if device.MaxOutputChannels < Channels {
		return nil, fmt.Errorf("device %q has %d output channels, need %d",
			device.Name, device.MaxOutputChannels, Channels)
	}

	e := &Engine{
		config:       cfg,
		src:          src,
		outputDevice: device,
		outputBuffer: make([]float32, cfg.FramesPerBuffer*Channels),
	}
	if cfg.LowLatency {
		e.outputLatency = device.DefaultLowOutputLatency
	} else {
		e.outputLatency = device.DefaultHighOutputLatency
	}
	return e, nil
}

// Start opens the output stream and begins pulling from the source.
func (e *Engine) Start() error {
	if e.running.Load() {
		return ErrRunning
	}
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: Channels,
			Device:   e.outputDevice,
			Latency:  e.outputLatency,
		},
		FramesPerBuffer: e.config.FramesPerBuffer,
		SampleRate:      e.config.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processOutputStream)
	if err != nil {
		return fmt.Errorf("open output stream: %w", err)
	}
	e.outputStream = stream

	if err := e.outputStream.Start(); err != nil {
		e.outputStream.Close()
		e.outputStream = nil
		return fmt.Errorf("start output stream: %w", err)
	}
	e.running.Store(true)
	applog.Infof("Engine: playing on %q at %.0f Hz, %d frames, latency %v",
		e.outputDevice.Name, e.config.SampleRate, e.config.FramesPerBuffer, e.outputLatency)
	return nil
}

// Stop stops and closes the output stream. Stopping an idle engine is a no-op.
func (e *Engine) Stop() error {
	if e.outputStream == nil {
		return nil
	}
	e.running.Store(false)
	if err := e.outputStream.Stop(); err != nil {
		return err
	}
	if err := e.outputStream.Close(); err != nil {
		return err
	}
	e.outputStream = nil
	applog.Debugf("Engine: stopped after %d callbacks", e.callbacks.Load())
	return nil
}

// Running reports whether the output stream is live.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Close releases the stream.
func (e *Engine) Close() error {
	return e.Stop()
}

// processOutputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
func (e *Engine) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	buf := e.outputBuffer
	if len(out) != len(buf) {
		// PortAudio may hand a shorter final buffer.
		buf = buf[:min(len(out), len(buf))]
	}
	e.src.Render(buf)
	n := copy(out, buf)
	clear(out[n:])
	e.callbacks.Add(1)
}
