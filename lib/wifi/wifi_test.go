package wifi

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

const airportOutput = `     agrCtlRSSI: -52
     agrExtRSSI: 0
    agrCtlNoise: -92
          state: running
        op mode: station
     lastTxRate: 585
        maxRate: 867
lastAssocStatus: 0
    802.11 auth: open
      link auth: wpa2
          BSSID: a0:b1:c2:d3:e4:f5
           SSID: HideYoKidsHideYoWiFi
            MCS: 7
        channel: 149,80
`

func TestParse(t *testing.T) {
	identity := Parse([]byte(airportOutput))
	require.True(t, identity.Connected())
	require.Equal(t, "HideYoKidsHideYoWiFi", identity.SSID())
	require.Equal(t, "a0:b1:c2:d3:e4:f5", identity["BSSID"])
	require.Equal(t, "wpa2", identity["link auth"])
}

func TestParseNoInterface(t *testing.T) {
	cases := []string{
		"",
		"AirPort: Off\n",
		"garbage without separators\n",
	}
	for _, output := range cases {
		identity := Parse([]byte(output))
		require.False(t, identity.Connected(), output)
		require.Equal(t, "", identity.SSID())
	}
}

func TestAirportProbe(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "airport")
	err := os.WriteFile(script, []byte("#!/bin/sh\necho '     SSID: Office'\necho '    BSSID: 00:11:22:33:44:55'\n"), 0755)
	require.NoError(t, err)

	identity, err := AirportProbe{Path: script}.Current(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Office", identity.SSID())
	require.True(t, identity.Connected())
}

func TestAirportProbeMissingBinary(t *testing.T) {
	_, err := AirportProbe{Path: filepath.Join(t.TempDir(), "missing")}.Current(context.Background())
	require.ErrorIs(t, err, ErrProbeFailed)
}
