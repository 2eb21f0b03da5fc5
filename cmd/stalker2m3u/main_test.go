// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ManuGH/stalker2m3u/internal/config"
	"github.com/ManuGH/stalker2m3u/internal/jobs"
	"github.com/ManuGH/stalker2m3u/internal/stalker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testMAC = "00:1A:79:00:00:01"

// fastEnv removes pacing and retry delays so runs against the mock are quick.
func fastEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvPacingEnabled, "false")
	t.Setenv(config.EnvMaxRPS, "0")
	t.Setenv(config.EnvRetryInitial, "1ms")
	t.Setenv(config.EnvRetryMax, "1ms")
	t.Setenv(config.EnvLogLevel, "error")
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.RunContext(context.Background(), append([]string{appName}, args...))
	return stdout.String(), err
}

func newPortal(t *testing.T, sizes ...int) *stalker.MockPortal {
	t.Helper()
	portal := stalker.NewMockPortal()
	t.Cleanup(portal.Close)
	portal.SetPageSizes(sizes...)
	return portal
}

func TestRefresh_PositionalArgs(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 14, 3)
	cacheDir := t.TempDir()

	out, err := runApp(t, "--cache-dir", cacheDir, "refresh", "living-room", portal.URL, testMAC)
	require.NoError(t, err)

	want := filepath.Join(cacheDir, "living-room_m3u.m3u")
	assert.Equal(t, "M3U written to: "+want+"\n", out)

	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "#EXTM3U\n"))
	assert.Contains(t, string(data), "#EXTINF:-1,Channel 17\nffrt http://stream.local/17\n")
	assert.Equal(t, 1, portal.Count(stalker.ActionHandshake))
	assert.Equal(t, 2, portal.Count(stalker.ActionOrderedList))
}

func TestRefresh_SecondRunUsesCache(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 2)
	cacheDir := t.TempDir()
	args := []string{"--cache-dir", cacheDir, "refresh", "den", portal.URL, testMAC, "Europe/Berlin"}

	_, err := runApp(t, args...)
	require.NoError(t, err)
	_, err = runApp(t, args...)
	require.NoError(t, err)

	assert.Equal(t, 1, portal.Count(stalker.ActionHandshake))
	assert.Equal(t, 1, portal.Count(stalker.ActionOrderedList))
}

func TestRefresh_JSONStatus(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 5)

	out, err := runApp(t,
		"--cache-dir", t.TempDir(),
		"--portal", portal.URL,
		"--mac", testMAC,
		"refresh", "--json")
	require.NoError(t, err)

	var status jobs.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, 5, status.Channels)
	assert.True(t, status.Cached)
	assert.Equal(t, jobs.SourceNetwork, status.Sources[jobs.StageCatalog])
	assert.NotEmpty(t, status.RunID)
}

func TestRefresh_OutputCopy(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 1)
	target := filepath.Join(t.TempDir(), "lists", "tv.m3u8")

	out, err := runApp(t, "--cache-dir", t.TempDir(), "--output", target,
		"refresh", "kitchen", portal.URL, testMAC)
	require.NoError(t, err)
	assert.Contains(t, out, "M3U written to: ")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n#EXTINF:-1,Channel 1\nffrt http://stream.local/1\n", string(data))
}

func TestRefresh_ConfigFileAndEnv(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 1)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cacheDir := filepath.Join(dir, "cache")
	require.NoError(t, os.WriteFile(cfgPath, []byte("session: office\nportal: "+portal.URL+"\ncache:\n  dir: "+cacheDir+"\n"), 0o600))
	t.Setenv(config.EnvMAC, testMAC)

	out, err := runApp(t, "--config", cfgPath, "refresh")
	require.NoError(t, err)
	assert.Equal(t, "M3U written to: "+filepath.Join(cacheDir, "office_m3u.m3u")+"\n", out)
}

func TestRefresh_BadArgCount(t *testing.T) {
	fastEnv(t)
	_, err := runApp(t, "refresh", "only", "two")
	require.Error(t, err)

	var ec cli.ExitCoder
	require.True(t, errors.As(err, &ec))
	assert.Equal(t, 2, ec.ExitCode())
	assert.Equal(t, 2, exitCode(err))
}

func TestRefresh_InvalidConfig(t *testing.T) {
	fastEnv(t)
	_, err := runApp(t, "--cache-dir", t.TempDir(), "refresh", "x", "ftp://portal", testMAC)
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestRefresh_PortalFailure(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 1)
	portal.SetFailures(stalker.ActionHandshake, 10, 503)

	_, err := runApp(t, "--cache-dir", t.TempDir(), "refresh", "x", portal.URL, testMAC)
	require.Error(t, err)

	var stageErr *jobs.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, jobs.StageToken, stageErr.Stage)
	assert.Equal(t, 1, exitCode(err))
}

func TestRefresh_PartialPrintsPlaylist(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 14, 14)
	portal.FailPage(2, 500, "boom")

	out, err := runApp(t, "--cache-dir", t.TempDir(), "--accept-partial",
		"refresh", "x", portal.URL, testMAC)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#EXTM3U\n"))
	assert.Equal(t, 14, strings.Count(out, "#EXTINF"))
}

func TestChannelsAndStream(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 2)
	base := []string{"--cache-dir", t.TempDir(), "--session", "den", "--portal", portal.URL, "--mac", testMAC}

	out, err := runApp(t, append(base, "channels")...)
	require.NoError(t, err)
	assert.Equal(t, "channel_channel_1\tChannel 1\nchannel_channel_2\tChannel 2\n", out)

	out, err = runApp(t, append(base, "stream", "channel_channel_2")...)
	require.NoError(t, err)
	assert.Equal(t, "ffrt http://stream.local/2\n", out)

	// The listing refreshed once; the stream lookup read the cached playlist.
	assert.Equal(t, 1, portal.Count(stalker.ActionOrderedList))

	_, err = runApp(t, append(base, "stream", "channel_missing")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestStream_RequiresOneID(t *testing.T) {
	fastEnv(t)
	_, err := runApp(t, "stream")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestVersion(t *testing.T) {
	out, err := runApp(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, appName+" "+version))
}

func TestMetricsFileWritten(t *testing.T) {
	fastEnv(t)
	portal := newPortal(t, 1)
	metricsPath := filepath.Join(t.TempDir(), "stalker.prom")

	_, err := runApp(t, "--cache-dir", t.TempDir(), "--metrics-file", metricsPath,
		"refresh", "x", portal.URL, testMAC)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stalker_portal_requests_total")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 3, exitCode(cli.Exit("usage", 3)))
}
