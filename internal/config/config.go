// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the page host and its audio graph controller.
const (
	// Audio output defaults
	DefaultSampleRate      = 48000 // Matches the usual browser context rate
	DefaultFramesPerBuffer = 128   // One render quantum
	DefaultOutputDevice    = MinDeviceID
	DefaultLowLatency      = false
	DefaultOutputFile      = "" // Live output through PortAudio
	DefaultMeterInterval   = 5 * time.Second

	// Controller timing
	DefaultRetryMaxAttempts = 3
	DefaultRetryInterval    = time.Second
	DefaultRebuildDelay     = 200 * time.Millisecond
	DefaultSweepInterval    = 3 * time.Second
	DefaultReadyThreshold   = 2 // HAVE_CURRENT_DATA
	DefaultRebuildOnEQ      = false

	// Transport defaults
	DefaultListenAddress    = "127.0.0.1:8765"
	DefaultStatusTimeout    = 500 * time.Millisecond
	DefaultInitialSyncDelay = time.Second

	// Settings store defaults
	DefaultStorePath = "settings.yaml"
	DefaultDebounce  = 500 * time.Millisecond

	DefaultLogLevel = "info"

	// Hardware and processing limits
	MinDeviceID     = -1     // -1 represents system default device
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2)
	MaxReadyState   = 4      // HAVE_ENOUGH_DATA
)
