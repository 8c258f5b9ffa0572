// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"voxcut/internal/audio"
	"voxcut/internal/config"
	"voxcut/internal/controller"
	"voxcut/internal/graph"
	applog "voxcut/internal/log"
	"voxcut/internal/media"
	"voxcut/internal/meter"
	"voxcut/internal/settings"
	"voxcut/internal/transport"
)

// loopQueue bounds the controller loop's backlog of transport events and
// timer callbacks.
const loopQueue = 64

// host is a running page: its elements, the controller on its loop and the
// control endpoint.
type host struct {
	cfg        *config.Config
	page       *media.Page
	elements   []*media.Element
	loop       *controller.Loop
	dispatcher *controller.Dispatcher
	server     *transport.Server
	relay      *transport.Relay
}

// startHost loads the page and brings up the controller and endpoint. The
// caller owns the returned host and must close it.
func startHost(ctx context.Context, inv *Invocation) (*host, error) {
	cfg := inv.Config
	h := &host{cfg: cfg, page: media.NewPage()}

	load := func(paths []string, kind media.Kind) error {
		for _, path := range paths {
			el, err := media.LoadWAV(path, kind)
			if err != nil {
				return err
			}
			if err := el.CheckSampleRate(cfg.Audio.SampleRate); err != nil {
				el.Close()
				return fmt.Errorf("%w (rerun with --sample-rate %.0f or convert the file)", err, el.SampleRate())
			}
			el.SetLoop(inv.Loop)
			el.Play()
			h.elements = append(h.elements, el)
			h.page.Add(el)
			applog.Infof("Host: %s element %q (%.1fs)", kind, filepath.Base(path), el.Duration())
		}
		return nil
	}
	if err := load(inv.Video, media.KindVideo); err != nil {
		h.Close()
		return nil, err
	}
	if err := load(inv.Audio, media.KindAudio); err != nil {
		h.Close()
		return nil, err
	}

	h.loop = controller.NewLoop(loopQueue)
	go h.loop.Run()

	ctrl, err := controller.New(controller.Options{
		NewContext: func() (graph.Context, error) {
			ac, err := graph.NewAudioContext(graph.Options{
				SampleRate:     cfg.Audio.SampleRate,
				StartSuspended: inv.Suspended,
			})
			if err != nil {
				return nil, err
			}
			h.page.Attach(ac)
			return ac, nil
		},
		Find: func() controller.Element {
			if el := h.page.FindMediaElement(); el != nil {
				return el
			}
			return nil
		},
		Scheduler: h.loop,
		Retry: controller.RetryPolicy{
			MaxAttempts: cfg.Controller.RetryMaxAttempts,
			Interval:    cfg.Controller.RetryInterval,
		},
		RebuildDelay:      cfg.Controller.RebuildDelay,
		SweepInterval:     cfg.Controller.SweepInterval,
		ReadyThreshold:    media.ReadyState(cfg.Controller.ReadyThreshold),
		RebuildOnEQChange: cfg.Controller.RebuildOnEQ,
	})
	if err != nil {
		h.Close()
		return nil, err
	}
	h.dispatcher = controller.NewDispatcher(h.loop, ctrl)
	if err := h.dispatcher.Start(ctx); err != nil {
		h.Close()
		return nil, err
	}

	h.server = transport.NewServer(cfg.Transport.ListenAddress,
		transport.NewLoggingHandler(h.dispatcher), cfg.Transport.StatusTimeout)
	if err := h.server.Start(); err != nil {
		h.Close()
		return nil, fmt.Errorf("start control endpoint: %w", err)
	}

	store := settings.NewFileStore(cfg.Store.Path)
	h.relay = transport.NewRelay(store, transport.SenderFunc(h.dispatcher.HandleUpdate))
	go func() {
		err := h.relay.InitialSync(ctx, cfg.Transport.InitialSyncDelay)
		if err != nil && !errors.Is(err, context.Canceled) {
			applog.Warnf("Host: initial settings sync: %v", err)
		}
	}()
	return h, nil
}

// Close unloads the page: the controller bypasses and closes its context,
// then the endpoint, loop and elements go down.
func (h *host) Close() {
	if h.dispatcher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.Transport.StatusTimeout)
		if err := h.dispatcher.Close(ctx); err != nil {
			applog.Warnf("Host: closing controller: %v", err)
		}
		cancel()
	}
	if h.server != nil {
		if err := h.server.Close(); err != nil {
			applog.Warnf("Host: closing endpoint: %v", err)
		}
	}
	if h.loop != nil {
		h.loop.Stop()
	}
	for _, el := range h.elements {
		el.Close()
	}
}

func runHost(ctx context.Context, inv *Invocation) error {
	h, err := startHost(ctx, inv)
	if err != nil {
		return err
	}
	defer h.Close()

	cfg := inv.Config
	applog.Infof("Host: control endpoint on %s", transport.WebSocketURL(h.server.Addr()))

	var src audio.Source = h.page
	if cfg.Audio.MeterInterval > 0 {
		m, err := meter.New(meter.DefaultSize, cfg.Audio.SampleRate)
		if err != nil {
			return err
		}
		src = meter.NewTap(h.page, m)
		go m.Log(ctx, cfg.Audio.MeterInterval)
	}

	if cfg.Audio.OutputFile != "" {
		r := audio.NewRenderer(cfg.Audio, src)
		r.Realtime = true
		frames, err := r.RenderFile(ctx, cfg.Audio.OutputFile, cfg.Audio.RenderSeconds)
		if err != nil {
			return err
		}
		applog.Infof("Host: rendered %.2fs to %s", float64(frames)/cfg.Audio.SampleRate, cfg.Audio.OutputFile)
		return nil
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	engine, err := audio.NewEngine(cfg.Audio, src)
	if err != nil {
		return err
	}
	// The first Start triggers PortAudio to begin pulling the page, marking
	// the start of the hot path.
	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Close()

	<-ctx.Done()
	return nil
}
