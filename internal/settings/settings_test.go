package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const exampleConfig = `{
	"username": "alice",
	"password_domain": "www.ohsu.edu",
	"hours_delay": 14,
	"url": "www.ohsu.edu/parking/bikesite/index.cfm",
	"protocol": "https",
	"override": false,
	"valid_ssids": ["OHSU-Secure"],
	"destinations": ["Marquam Hill", "South Waterfront"],
	"othermodes": ["Tram", "Bus"],
	"othermode_index": 1,
	"log_level": "INFO",
	"extra": {"kept": [1, 2, 3]},
	"last_success": 0
}`

func writeConfig(t *testing.T, contents string) Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return NewStore(path)
}

func TestLoad(t *testing.T) {
	store := writeConfig(t, exampleConfig)

	s, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "alice", s.Username)
	require.Equal(t, 14*time.Hour, s.Cooldown())
	require.Equal(t, "https", s.Scheme())
	require.Equal(t, 30*time.Second, s.Timeout())

	_, ok := s.LastSuccessTime()
	require.False(t, ok)

	trip, err := s.Trip()
	require.NoError(t, err)
	require.Equal(t, "Marquam Hill", trip.Destination)
	require.Equal(t, "Bus", trip.OtherMode)
	require.Equal(t, 6.5, trip.Mileage)
}

func TestCooldownSecondsWins(t *testing.T) {
	seconds := 90
	hours := 3
	s := Settings{CooldownSeconds: &seconds, HoursDelay: &hours}
	require.Equal(t, 90*time.Second, s.Cooldown())

	s.CooldownSeconds = nil
	require.Equal(t, 3*time.Hour, s.Cooldown())

	require.Equal(t, 14*time.Hour, Settings{}.Cooldown())
}

func TestLastSuccessTime(t *testing.T) {
	s := Settings{LastSuccess: 1700000000.25}
	ts, ok := s.LastSuccessTime()
	require.True(t, ok)
	require.Equal(t, int64(1700000000), ts.Unix())
	require.Equal(t, 250*time.Millisecond, time.Duration(ts.Nanosecond()))
}

func TestLoadInvalid(t *testing.T) {
	cases := []string{
		`{"username": "a"`,
		`{"password_domain": "x", "url": "y", "destinations": ["a"], "othermodes": ["b"]}`,
		`{"username": "a", "password_domain": "x", "url": "y", "protocol": "gopher", "destinations": ["a"], "othermodes": ["b"]}`,
		`{"username": "a", "password_domain": "x", "url": "y", "destinations": [], "othermodes": ["b"]}`,
		`{"username": "a", "password_domain": "x", "url": "y", "destinations": ["a"], "othermodes": ["b"], "othermode_index": 3}`,
		`{"username": "a", "password_domain": "x", "url": "y", "destinations": ["a"], "othermodes": ["b"], "log_level": "LOUD"}`,
		`{"username": "a", "password_domain": "x", "url": "y", "destinations": ["a"], "othermodes": ["b"], "cooldown_seconds": -1}`,
		`{"username": "a", "password_domain": "x", "url": "y", "destinations": ["a"], "othermodes": ["b"], "otlp": {"traces": {"endpoint": "http://localhost:4318", "protocol": "udp"}}}`,
	}
	for _, contents := range cases {
		_, err := writeConfig(t, contents).Load()
		require.Error(t, err, contents)
	}
}

func TestLoadLocalOverride(t *testing.T) {
	store := writeConfig(t, exampleConfig)
	local := filepath.Join(filepath.Dir(store.Path), "config.local.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"username": "bob", "valid_ssids": ["Home"]}`), 0600))

	s, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "bob", s.Username)
	require.Equal(t, []string{"Home"}, s.ValidSSIDs)
	require.Equal(t, "www.ohsu.edu", s.PasswordDomain)
}

func TestLoadIgnoresStateInLocalOverlay(t *testing.T) {
	store := writeConfig(t, `{
	"username": "alice",
	"password_domain": "www.ohsu.edu",
	"url": "www.ohsu.edu/parking/bikesite/index.cfm",
	"destinations": ["Marquam Hill"],
	"othermodes": ["Tram"],
	"override": true,
	"last_success": 1700000000
}`)
	local := filepath.Join(filepath.Dir(store.Path), "config.local.json")
	require.NoError(t, os.WriteFile(local, []byte(`{"override": true, "last_success": 1}`), 0600))

	s, err := store.Load()
	require.NoError(t, err)
	require.True(t, s.Override)
	require.Equal(t, float64(1700000000), s.LastSuccess)

	now := time.Unix(1760000000, 0)
	require.NoError(t, store.Save(Patch{LastSuccess: &now, Override: false}))

	s, err = store.Load()
	require.NoError(t, err)
	require.False(t, s.Override)
	require.Equal(t, float64(1760000000), s.LastSuccess)
}

func TestSaveSuccess(t *testing.T) {
	store := writeConfig(t, exampleConfig)

	now := time.Unix(1760000000, 500_000_000)
	require.NoError(t, store.Save(Patch{LastSuccess: &now, Override: false}))

	contents, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	require.Equal(t, `{
	"destinations": [
		"Marquam Hill",
		"South Waterfront"
	],
	"extra": {
		"kept": [
			1,
			2,
			3
		]
	},
	"hours_delay": 14,
	"last_success": 1760000000.5,
	"log_level": "INFO",
	"othermode_index": 1,
	"othermodes": [
		"Tram",
		"Bus"
	],
	"override": false,
	"password_domain": "www.ohsu.edu",
	"protocol": "https",
	"url": "www.ohsu.edu/parking/bikesite/index.cfm",
	"username": "alice",
	"valid_ssids": [
		"OHSU-Secure"
	]
}
`, string(contents))

	s, err := store.Load()
	require.NoError(t, err)
	ts, ok := s.LastSuccessTime()
	require.True(t, ok)
	require.Equal(t, now.Unix(), ts.Unix())
}

func TestSaveConsumesOverride(t *testing.T) {
	store := writeConfig(t, `{"override": true, "last_success": 1700000000}`)

	require.NoError(t, store.Save(Patch{Override: false}))

	obj, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	require.Equal(t, "{\n\t\"last_success\": 1700000000,\n\t\"override\": false\n}\n", string(obj))
}

func TestSaveNeverMovesBackwards(t *testing.T) {
	store := writeConfig(t, `{"last_success": 1800000000}`)

	earlier := time.Unix(1700000000, 0)
	require.NoError(t, store.Save(Patch{LastSuccess: &earlier}))

	obj, err := os.ReadFile(store.Path)
	require.NoError(t, err)
	require.Contains(t, string(obj), `"last_success": 1800000000`)
}

func TestResolve(t *testing.T) {
	store := NewStore(filepath.Join("etc", "bikelog", "config.json"))
	require.Equal(t, filepath.Join("etc", "bikelog", "logs", "incentive.log"), store.Resolve("logs/incentive.log"))
	require.Equal(t, "/var/log/bike.log", store.Resolve("/var/log/bike.log"))
	require.Equal(t, "", store.Resolve(""))
}
