// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"io"

	"voxcut/internal/config"

	"github.com/gordonklaus/portaudio"
)

// Initialize sets up the PortAudio subsystem.
// This must be called before any audio operations and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// paDevices is swapped out in tests.
var paDevices = portaudio.Devices

// defaultOutputDevice is swapped out in tests.
var defaultOutputDevice = portaudio.DefaultOutputDevice

// OutputDevice retrieves the audio output device for the given device ID.
// If deviceID is MinDeviceID (-1), returns the system default output device.
func OutputDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID == config.MinDeviceID {
		return defaultOutputDevice()
	}

	devices, err := paDevices()
	if err != nil {
		return nil, err
	}
	if deviceID < 0 || deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", deviceID)
	}
	if devices[deviceID].MaxOutputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) has no outputs", deviceID, devices[deviceID].Name)
	}
	return devices[deviceID], nil
}

// ListDevices writes every stereo output device to w, with its ID,
// channel count, default sample rate and output latency range.
func ListDevices(w io.Writer) error {
	devices, err := Devices()
	if err != nil {
		return err
	}
	outputs := Outputs(devices)

	fmt.Fprintf(w, "\nAvailable Output Devices\n\n")
	if len(outputs) == 0 {
		fmt.Fprintln(w, "(none)")
		return nil
	}
	for _, d := range outputs {
		fmt.Fprintf(w, "[%d] %s (%s)\n", d.ID, d.Name, d.Type())
		fmt.Fprintf(w, "    Output channels: %d\n", d.MaxOutputChannels)
		fmt.Fprintf(w, "    Default sample rate: %.0f Hz\n", d.DefaultSampleRate)
		fmt.Fprintf(w, "    Latency: Low=%.2fms, High=%.2fms\n",
			d.LowOutputLatency.Seconds()*1000,
			d.HighOutputLatency.Seconds()*1000)
		fmt.Fprintln(w)
	}
	return nil
}
