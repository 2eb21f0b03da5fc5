// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/ManuGH/stalker2m3u/internal/jobs"
	xglog "github.com/ManuGH/stalker2m3u/internal/log"
	"github.com/ManuGH/stalker2m3u/internal/metrics"
	"github.com/ManuGH/stalker2m3u/internal/playlist"
	"github.com/urfave/cli/v2"
)

const appName = "stalker2m3u"

func newApp() *cli.App {
	var metricsFile string

	app := &cli.App{
		Name:    appName,
		Usage:   "build an M3U playlist from a Stalker middleware portal",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		Flags:   globalFlags(),
		Before: func(c *cli.Context) error {
			xglog.Configure(xglog.Config{
				Level:   c.String("log-level"),
				Output:  c.App.ErrWriter,
				Service: appName,
				Version: version,
			})
			return nil
		},
		After: func(c *cli.Context) error {
			if err := metrics.WriteTextfile(metricsFile); err != nil {
				xglog.WithComponent("cli").Warn().Err(err).
					Str(xglog.FieldPath, metricsFile).
					Msg("metrics textfile not written")
			}
			return nil
		},
		// main decides the exit status.
		ExitErrHandler: func(*cli.Context, error) {},
	}

	// Commands record the configured metrics file so After can flush it.
	loaded := func(c *cli.Context) (settings, error) {
		s, err := loadSettings(c)
		if err == nil {
			metricsFile = s.cfg.MetricsFile
		}
		return s, err
	}

	app.Commands = []*cli.Command{
		refreshCommand(loaded),
		channelsCommand(loaded),
		streamCommand(loaded),
		versionCommand(),
	}
	return app
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML configuration file"},
		&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "session label used to namespace the cache"},
		&cli.StringFlag{Name: "portal", Aliases: []string{"p"}, Usage: "portal base URL"},
		&cli.StringFlag{Name: "mac", Aliases: []string{"m"}, Usage: "device MAC address"},
		&cli.StringFlag{Name: "timezone", Usage: "device timezone"},
		&cli.StringFlag{Name: "endpoint", Usage: "API path below the portal URL"},
		&cli.StringFlag{Name: "cache-dir", Usage: "cache root directory"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "also write the playlist to this .m3u/.m3u8 file"},
		&cli.StringFlag{Name: "metrics-file", Usage: "write Prometheus metrics to this file after the run"},
		&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
		&cli.BoolFlag{Name: "accept-partial", Usage: "use an incomplete catalog instead of failing"},
		&cli.BoolFlag{Name: "stale-fallback", Value: true, Usage: "fall back to expired cache entries when the portal fails"},
		&cli.BoolFlag{Name: "no-pacing", Usage: "disable the randomized delay between requests"},
	}
}

type loader func(*cli.Context) (settings, error)

func refreshCommand(load loader) *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "refresh token, catalog and playlist for a session",
		ArgsUsage: "[<session> <portal> <mac> [<timezone>]]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the run status as JSON"},
		},
		Action: func(c *cli.Context) error {
			s, err := load(c)
			if err != nil {
				return err
			}
			status, err := jobs.Refresh(c.Context, s.jobsConfig(), s.cfg.CacheDir, s.id, s.clientOptions()...)
			if err != nil {
				return err
			}

			w := c.App.Writer
			if c.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			switch {
			case status.Cached:
				_, err = fmt.Fprintf(w, "M3U written to: %s\n", status.PlaylistPath)
			case status.Output != "":
				_, err = fmt.Fprintf(w, "M3U written to: %s\n", status.Output)
			default:
				_, err = w.Write(status.Playlist)
			}
			return err
		},
	}
}

func channelsCommand(load loader) *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "list channel ids and names of the session playlist",
		Action: func(c *cli.Context) error {
			entries, err := sessionEntries(c, load)
			if err != nil {
				return err
			}
			for _, e := range entries {
				if _, err := fmt.Fprintf(c.App.Writer, "%s\t%s\n", e.ID, e.Name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func streamCommand(load loader) *cli.Command {
	return &cli.Command{
		Name:      "stream",
		Usage:     "print the launch command of a channel",
		ArgsUsage: "<channel-id>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return cli.Exit("stream: expected exactly one channel id", 2)
			}
			entries, err := sessionEntries(c, load)
			if err != nil {
				return err
			}
			id := c.Args().First()
			e, ok := playlist.Lookup(entries, id)
			if !ok {
				return fmt.Errorf("channel %q not found in playlist", id)
			}
			_, err = fmt.Fprintln(c.App.Writer, e.URL)
			return err
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "print version information",
		Action: func(c *cli.Context) error {
			_, err := fmt.Fprintf(c.App.Writer, "%s %s (commit: %s, built: %s)\n", appName, version, commit, buildDate)
			return err
		},
	}
}

func sessionEntries(c *cli.Context, load loader) ([]playlist.Entry, error) {
	s, err := load(c)
	if err != nil {
		return nil, err
	}
	return jobs.LoadChannels(c.Context, s.jobsConfig(), s.cfg.CacheDir, s.id, s.clientOptions()...)
}
