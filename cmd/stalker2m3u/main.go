// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command stalker2m3u logs into a Stalker middleware portal as a MAG set-top
// box and turns its live channel list into an M3U playlist.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/urfave/cli/v2"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	os.Exit(exitCode(err))
}

// exitCode logs err and maps it to a process status: 0 on success, the
// carried code for usage errors and 1 otherwise.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	xglog.WithComponent("cli").Error().
		Err(err).
		Str(xglog.FieldEvent, "command.failed").
		Msg("command failed")

	var ec cli.ExitCoder
	if errors.As(err, &ec) && ec.ExitCode() != 0 {
		return ec.ExitCode()
	}
	return 1
}
