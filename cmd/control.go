// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"voxcut/internal/config"
	applog "voxcut/internal/log"
	"voxcut/internal/settings"
	"voxcut/internal/transport"
	"voxcut/internal/tui"
)

// control bundles what every control command needs: the store, a link to
// the page host and a relay between them.
type control struct {
	store settings.Store
	link  *hostLink
	relay *transport.Relay
}

func newControl(cfg *config.Config) *control {
	store := settings.NewFileStore(cfg.Store.Path)
	link := newHostLink(cfg.Transport.ListenAddress, cfg.Transport.StatusTimeout)
	return &control{store: store, link: link, relay: transport.NewRelay(store, link)}
}

func (c *control) Close() {
	c.link.Close()
}

// loadPanel reads the panel state with an undebounced writer.
func (c *control) loadPanel(ctx context.Context) (*settings.Panel, error) {
	return settings.LoadPanel(ctx, c.store, settings.NewWriter(c.store, 0))
}

// push reports a host that cannot be reached without failing the command:
// the settings are stored and the host picks them up when it starts.
func push(out io.Writer, err error) {
	if err != nil {
		applog.Debugf("CLI: push: %v", err)
		fmt.Fprintln(out, "Settings saved; page host not reachable.")
		return
	}
	fmt.Fprintln(out, "Settings applied.")
}

func runSet(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	patch, err := settings.ParseAssignments(args)
	if err != nil {
		return err
	}
	c := newControl(cfg)
	defer c.Close()

	if err := c.store.Set(ctx, settings.Write{Settings: patch}); err != nil {
		return err
	}
	push(out, c.relay.Sync(ctx, false))
	return nil
}

func runPreset(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	c := newControl(cfg)
	defer c.Close()

	panel, err := c.loadPanel(ctx)
	if err != nil {
		return err
	}
	if err := panel.ApplyPreset(ctx, name); err != nil {
		return err
	}
	push(out, c.relay.Forward(ctx, panel.Settings(), false))
	return nil
}

func runSavePreset(ctx context.Context, cfg *config.Config, name string, out io.Writer) error {
	c := newControl(cfg)
	defer c.Close()

	panel, err := c.loadPanel(ctx)
	if err != nil {
		return err
	}
	if err := panel.SaveCustom(ctx, name); err != nil {
		return err
	}
	fmt.Fprintf(out, "Saved custom preset %q.\n", panel.CustomPreset().Name)
	return nil
}

func runReinit(ctx context.Context, cfg *config.Config, out io.Writer) error {
	c := newControl(cfg)
	defer c.Close()

	if err := c.relay.Sync(ctx, true); err != nil {
		return fmt.Errorf("page host not reachable: %w", err)
	}
	fmt.Fprintln(out, "Reinitialising.")
	return nil
}

func runStatus(ctx context.Context, cfg *config.Config, out io.Writer) error {
	c := newControl(cfg)
	defer c.Close()

	st, err := c.link.Status(ctx)
	if err != nil {
		applog.Debugf("CLI: status: %v", err)
	}
	if st.Active {
		fmt.Fprintln(out, "active")
	} else {
		fmt.Fprintln(out, "inactive")
	}
	return nil
}

func runPanel(ctx context.Context, cfg *config.Config) error {
	c := newControl(cfg)
	defer c.Close()

	writer := settings.NewWriter(c.store, cfg.Store.Debounce)
	defer func() {
		if err := writer.Close(); err != nil {
			applog.Errorf("CLI: flushing settings: %v", err)
		}
	}()
	panel, err := settings.LoadPanel(ctx, c.store, writer)
	if err != nil {
		return err
	}

	// Log lines would tear the alternate screen.
	applog.SetOutput(io.Discard)
	defer applog.SetOutput(os.Stderr)
	return tui.Run(tui.New(panel, c.relay, c.link.Status))
}
