// SPDX-License-Identifier: MIT
package controller

import (
	"context"
	"testing"
	"time"

	"voxcut/internal/graph"
	"voxcut/internal/media"
	"voxcut/internal/settings"
	"voxcut/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDrivesControllerOnLoop(t *testing.T) {
	loop := startLoop(t)
	page := media.NewPage()
	el := media.NewElement("video", media.KindVideo, utils.ConstantStereo(testRate, 0.1, 0.1), testRate)
	page.Add(el)

	ctrl, err := New(Options{
		NewContext: func() (graph.Context, error) {
			ac, err := graph.NewAudioContext(graph.Options{SampleRate: testRate})
			if err != nil {
				return nil, err
			}
			page.Attach(ac)
			return ac, nil
		},
		Find: func() Element {
			if el := page.FindMediaElement(); el != nil {
				return el
			}
			return nil
		},
		Scheduler:      loop,
		Retry:          RetryPolicy{MaxAttempts: 3, Interval: 10 * time.Millisecond},
		RebuildDelay:   5 * time.Millisecond,
		SweepInterval:  time.Hour,
		ReadyThreshold: media.HaveCurrentData,
	})
	require.NoError(t, err)
	d := NewDispatcher(loop, ctrl)
	ctx := context.Background()
	require.NoError(t, d.Start(ctx))

	active, err := d.HandleStatus(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, d.HandleUpdate(ctx, settings.Patch{MasterEnabled: settings.Bool(true)}, false))
	require.Eventually(t, func() bool {
		active, err := d.HandleStatus(ctx)
		return err == nil && active
	}, time.Second, 2*time.Millisecond)

	st, err := d.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "active", st.State)

	require.NoError(t, d.Close(ctx))
	active, err = d.HandleStatus(ctx)
	require.NoError(t, err)
	assert.False(t, active)
}
