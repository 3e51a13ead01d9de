package commands

import (
	"bikelog/internal/history"
	"bikelog/internal/trip"
	"bikelog/lib/timezone"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(ConfigEnv, "/etc/bikelog/config.json")
	require.Equal(t, "/etc/bikelog/config.json", configPath())
}

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	previous := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = previous })
}

func TestRunTripInvalidConfig(t *testing.T) {
	pinClock(t, time.Date(2026, time.October, 14, 12, 0, 0, 0, time.Local))

	path := filepath.Join(t.TempDir(), "config.json")
	contents := []byte(`{"username": "alice", "override": true`)
	require.NoError(t, os.WriteFile(path, contents, 0600))

	code := runTrip(context.Background(), path, true)
	require.Equal(t, trip.ExitFailed, code)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, contents, after)
}

func TestRunTripWeekendBeforeConfig(t *testing.T) {
	pinClock(t, time.Date(2026, time.October, 17, 12, 0, 0, 0, time.Local))

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	contents := []byte(`{"username": "alice", "log_filepath": "bikelog.log", "override": true`)
	require.NoError(t, os.WriteFile(path, contents, 0600))

	code := runTrip(context.Background(), path, true)
	require.Equal(t, trip.ExitSkipped, code)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, contents, after)
	_, err = os.Stat(filepath.Join(dir, "bikelog.log"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(config, []byte(`{
		"username": "alice",
		"password_domain": "www.ohsu.edu",
		"url": "www.ohsu.edu/parking/bikesite/index.cfm",
		"destinations": ["Marquam Hill"],
		"othermodes": ["Tram"],
		"history_db": "history.db",
	}`), 0600))

	hist, err := history.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	err = hist.Record(context.Background(), history.Attempt{
		RunID:        "abc",
		Time:         time.Date(2026, time.October, 14, 9, 0, 0, 0, time.Local),
		Outcome:      "succeeded",
		SSID:         "OHSU-Secure",
		LoginStatus:  200,
		SubmitStatus: 200,
		Detail:       "Trip logged OK",
	})
	require.NoError(t, err)
	require.NoError(t, hist.Close())

	t.Setenv(ConfigEnv, config)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"history", "-n", "5"})
	defer rootCmd.SetArgs(nil)

	code := ExecuteContext(context.Background())
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "2026-10-14 09:00:00")
	require.Contains(t, out.String(), "Trip logged OK")
	require.Contains(t, out.String(), "OHSU-Secure")
}

func TestRunTripEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	pinClock(t, time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC))

	previousLogger := slog.Default()
	previousLocation := timezone.Location
	defer func() {
		slog.SetDefault(previousLogger)
		timezone.Location = previousLocation
	}()

	var posted bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pass, _ := r.BasicAuth(); pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Method == http.MethodPost {
			posted = true
			w.Write([]byte(`<span class="success">Trip logged: OK</span>`))
			return
		}
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	airport := filepath.Join(dir, "airport")
	require.NoError(t, os.WriteFile(airport, []byte("#!/bin/sh\necho '     SSID: Elsewhere'\necho '    BSSID: 00:11:22:33:44:55'\n"), 0755))

	config := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(config, []byte(fmt.Sprintf(`{
		"username": "alice",
		"password_domain": "www.ohsu.edu",
		"url": %q,
		"protocol": "http",
		"airport_path": %q,
		"valid_ssids": ["OHSU-Secure"],
		"destinations": ["Marquam Hill"],
		"othermodes": ["Tram"],
		"timezone": "UTC",
		"log_filepath": "logs/incentive.log",
		"history_db": "history.db",
		"last_success": 0
	}`, strings.TrimPrefix(srv.URL, "http://")+"/bikesite/index.cfm", airport)), 0600))

	t.Setenv(PasswordEnv, "hunter2")

	code := runTrip(context.Background(), config, true)
	require.Equal(t, trip.ExitSuccess, code)
	require.True(t, posted)

	contents, err := os.ReadFile(config)
	require.NoError(t, err)
	require.Contains(t, string(contents), "\t\"override\": false")
	require.NotContains(t, string(contents), "\"last_success\": 0")

	logs, err := os.ReadFile(filepath.Join(dir, "logs", "incentive.log"))
	require.NoError(t, err)
	require.Contains(t, string(logs), "Trip logged OK")
	require.NotContains(t, string(logs), "hunter2")

	// same day, no override: the delay period kicks in
	code = runTrip(context.Background(), config, false)
	require.Equal(t, trip.ExitSkipped, code)
}
