// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"voxcut/internal/audio"
)

// Execute runs the parsed command until it finishes or ctx is cancelled.
func Execute(ctx context.Context, inv *Invocation) error {
	return execute(ctx, inv, os.Stdout)
}

func execute(ctx context.Context, inv *Invocation, out io.Writer) error {
	switch inv.Command {
	case CommandHost:
		return runHost(ctx, inv)
	case CommandPanel:
		return runPanel(ctx, inv.Config)
	case CommandSet:
		return runSet(ctx, inv.Config, inv.Args, out)
	case CommandPreset:
		return runPreset(ctx, inv.Config, inv.Args[0], out)
	case CommandSavePreset:
		name := ""
		if len(inv.Args) > 0 {
			name = inv.Args[0]
		}
		return runSavePreset(ctx, inv.Config, name, out)
	case CommandReinit:
		return runReinit(ctx, inv.Config, out)
	case CommandStatus:
		return runStatus(ctx, inv.Config, out)
	case CommandList:
		return runList(out)
	}
	return fmt.Errorf("unknown command %q", inv.Command)
}

func runList(out io.Writer) error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()
	return audio.ListDevices(out)
}
