// SPDX-License-Identifier: MIT
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Panel is the control-surface model: the working settings plus preset
// highlight state. Slider changes go through the debounced Writer; the
// master switch and presets are written immediately.
type Panel struct {
	writer *Writer

	mu            sync.Mutex
	current       Settings
	currentPreset string
	custom        *Preset
}

// LoadPanel reads the stored record and preset state.
func LoadPanel(ctx context.Context, store Store, writer *Writer) (*Panel, error) {
	stored, err := store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	current, custom, err := store.Presets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load presets: %w", err)
	}
	return &Panel{
		writer:        writer,
		current:       Defaults().Merge(stored),
		currentPreset: current,
		custom:        custom,
	}, nil
}

// Settings returns the working record.
func (p *Panel) Settings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// CurrentPreset returns the highlighted preset, empty when none.
func (p *Panel) CurrentPreset() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentPreset
}

// CustomPreset returns the saved custom preset, or nil.
func (p *Panel) CustomPreset() *Preset {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.custom == nil {
		return nil
	}
	c := *p.custom
	return &c
}

// Adjust changes one control and queues a debounced write. A manual change
// clears the preset highlight.
func (p *Panel) Adjust(key string, value float64) error {
	if key == KeyMasterEnabled {
		return fmt.Errorf("settings: use SetMaster for %s", key)
	}
	var patch Patch
	patch.SetFloat(key, value)
	if patch.IsEmpty() {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	p.mu.Lock()
	p.current = p.current.Merge(patch)
	p.currentPreset = ""
	p.mu.Unlock()

	p.writer.Queue(patch)
	return nil
}

// SetMaster toggles processing and writes it without debouncing.
func (p *Panel) SetMaster(ctx context.Context, enabled bool) error {
	patch := Patch{MasterEnabled: Bool(enabled)}
	p.mu.Lock()
	p.current = p.current.Merge(patch)
	p.mu.Unlock()
	return p.writer.Immediate(ctx, Write{Settings: patch})
}

// ApplyPreset atomically applies and persists a full preset record and
// marks it as the current preset.
func (p *Panel) ApplyPreset(ctx context.Context, name string) error {
	p.mu.Lock()
	preset, err := LookupPreset(name, p.custom)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	key := strings.ToLower(strings.TrimSpace(name))
	patch := preset.Patch()
	if err := p.writer.Immediate(ctx, Write{Settings: patch, CurrentPreset: &key}); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = p.current.Merge(patch)
	p.currentPreset = key
	p.mu.Unlock()
	return nil
}

// SaveCustom stores the working settings as the custom preset.
func (p *Panel) SaveCustom(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultCustomName
	}

	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	s.MasterEnabled = false
	preset := Preset{Name: name, Settings: s}
	current := PresetCustom

	if err := p.writer.Immediate(ctx, Write{CurrentPreset: &current, CustomPreset: &preset}); err != nil {
		return err
	}

	p.mu.Lock()
	p.custom = &preset
	p.currentPreset = current
	p.mu.Unlock()
	return nil
}
