// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"voxcut/cmd"
	applog "voxcut/internal/log"
	"voxcut/pkg/build"
)

// main is the entry point for voxcut.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//
// 2. Run Phase:
//   - Host a page (controller, control endpoint, audio output), or
//   - Run a control command against a running host
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Bypass the processing graph and release resources
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags and keep the defaults.
	if err := build.Initialize(); err != nil {
		applog.Debugf("Build: %v", err)
	}

	inv, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// --help and --version select no command.
	if inv.Command == "" {
		return
	}

	// ==================== RUN PHASE ====================

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = cmd.Execute(ctx, inv)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err != nil {
		stop()
		applog.Fatalf("%v", err)
	}
}
