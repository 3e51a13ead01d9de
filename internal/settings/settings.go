package settings

import (
	"bikelog/lib/configutil"
	"bikelog/lib/platforms/incentive"
	"bikelog/lib/telemetry"
	"bikelog/lib/timezone"
	"bikelog/lib/wifi"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultHoursDelay = 14
	defaultMileage    = 6.5

	keyLastSuccess = "last_success"
	keyOverride    = "override"
)

// Settings is the contents of config.json, it is read once per run.
type Settings struct {
	Username       string `json:"username"`
	PasswordDomain string `json:"password_domain"`

	CooldownSeconds *int `json:"cooldown_seconds"`
	HoursDelay      *int `json:"hours_delay"`
	Override        bool `json:"override"`

	ValidSSIDs  []string `json:"valid_ssids"`
	AirportPath string   `json:"airport_path"`

	Url            string `json:"url"`
	Protocol       string `json:"protocol"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	BrowserTLS     bool   `json:"browser_tls"`

	Destinations     []string `json:"destinations"`
	OtherModes       []string `json:"othermodes"`
	DestinationIndex int      `json:"destination_index"`
	OtherModeIndex   int      `json:"othermode_index"`
	Mileage          *float64 `json:"mileage"`

	DefaultUserAgent   string `json:"default_useragent"`
	RandomizeUserAgent bool   `json:"randomize_useragent"`
	UserAgentPools     string `json:"useragent_pools"`

	LogFilepath string `json:"log_filepath"`
	LogLevel    string `json:"log_level"`
	Timezone    string `json:"timezone"`
	HistoryDB   string `json:"history_db"`

	Otlp telemetry.OtlpConfig `json:"otlp"`

	// unix seconds, 0 means no trip has been logged yet
	LastSuccess float64 `json:"last_success"`
}

// Cooldown is how long to wait after a logged trip before trying again.
func (s Settings) Cooldown() time.Duration {
	if s.CooldownSeconds != nil {
		return time.Duration(*s.CooldownSeconds) * time.Second
	}
	hours := defaultHoursDelay
	if s.HoursDelay != nil {
		hours = *s.HoursDelay
	}
	return time.Duration(hours) * time.Hour
}

// LastSuccessTime returns false if no trip was ever logged.
func (s Settings) LastSuccessTime() (time.Time, bool) {
	if s.LastSuccess <= 0 {
		return time.Time{}, false
	}
	sec, frac := math.Modf(s.LastSuccess)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

func (s Settings) Location() (*time.Location, error) {
	return timezone.Load(s.Timezone)
}

func (s Settings) Scheme() string {
	if s.Protocol == "" {
		return "https"
	}
	return strings.ToLower(s.Protocol)
}

func (s Settings) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return time.Second * 30
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

func (s Settings) Airport() string {
	if s.AirportPath == "" {
		return wifi.DefaultAirportPath
	}
	return s.AirportPath
}

// Trip builds the form fields from the configured options.
func (s Settings) Trip() (incentive.Trip, error) {
	if s.DestinationIndex < 0 || s.DestinationIndex >= len(s.Destinations) {
		return incentive.Trip{}, fmt.Errorf("destination_index %d out of range (%d destinations)", s.DestinationIndex, len(s.Destinations))
	}
	if s.OtherModeIndex < 0 || s.OtherModeIndex >= len(s.OtherModes) {
		return incentive.Trip{}, fmt.Errorf("othermode_index %d out of range (%d othermodes)", s.OtherModeIndex, len(s.OtherModes))
	}
	mileage := defaultMileage
	if s.Mileage != nil {
		mileage = *s.Mileage
	}
	return incentive.Trip{
		Mileage:     mileage,
		Destination: s.Destinations[s.DestinationIndex],
		OtherMode:   s.OtherModes[s.OtherModeIndex],
	}, nil
}

// Validate catches configuration mistakes before anything is attempted.
func (s Settings) Validate() error {
	var errlist []error
	if s.Username == "" {
		errlist = append(errlist, fmt.Errorf("username is required"))
	}
	if s.PasswordDomain == "" {
		errlist = append(errlist, fmt.Errorf("password_domain is required"))
	}
	if s.Url == "" {
		errlist = append(errlist, fmt.Errorf("url is required"))
	}
	if scheme := s.Scheme(); scheme != "https" && scheme != "http" {
		errlist = append(errlist, fmt.Errorf("protocol must be https or http, got %q", s.Protocol))
	}
	if s.CooldownSeconds != nil && *s.CooldownSeconds < 0 {
		errlist = append(errlist, fmt.Errorf("cooldown_seconds must not be negative"))
	}
	if s.HoursDelay != nil && *s.HoursDelay < 0 {
		errlist = append(errlist, fmt.Errorf("hours_delay must not be negative"))
	}
	if _, err := s.Trip(); err != nil {
		errlist = append(errlist, err)
	}
	if _, err := s.Location(); err != nil {
		errlist = append(errlist, fmt.Errorf("timezone: %w", err))
	}
	if _, err := telemetry.ParseLevel(s.LogLevel); err != nil {
		errlist = append(errlist, err)
	}
	if err := s.Otlp.Validate(); err != nil {
		errlist = append(errlist, err)
	}
	return errors.Join(errlist...)
}

// Patch is everything a run is allowed to change in the config file.
type Patch struct {
	// nil leaves last_success untouched
	LastSuccess *time.Time
	Override    bool
}

// Store reads and writes a single config file.
type Store struct {
	Path string
}

func NewStore(path string) Store {
	return Store{Path: path}
}

// Resolve turns a path from the config file into one relative to the
// config file's directory.
func (s Store) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(s.Path), path)
}

type zoneOnly struct {
	Timezone string `json:"timezone"`
}

// Location reads nothing but the timezone key, so the calendar can be checked
// before the rest of the file is validated. An unreadable file or zone means
// the local zone.
func (s Store) Location() *time.Location {
	partial, err := configutil.ReadConfig[zoneOnly](s.Path)
	if err != nil {
		return time.Local
	}
	loc, err := timezone.Load(partial.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (s Store) Load() (Settings, error) {
	settings, err := configutil.ReadConfig[Settings](s.Path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	// override and last_success are only ever written to the base file, so a
	// value left in the local overlay must not shadow them.
	base, err := configutil.ReadObject(s.Path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config: %w", err)
	}
	settings.Override, _ = base[keyOverride].(bool)
	settings.LastSuccess, _ = base[keyLastSuccess].(float64)

	err = settings.Validate()
	if err != nil {
		return Settings{}, fmt.Errorf("invalid config %s: %w", s.Path, err)
	}
	return settings, nil
}

// Save applies the patch to the config file and atomically replaces it.
// Every other key in the file is kept, last_success never moves backwards.
func (s Store) Save(patch Patch) error {
	obj, err := configutil.ReadObject(s.Path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	obj[keyOverride] = patch.Override
	if patch.LastSuccess != nil {
		next := float64(patch.LastSuccess.UnixNano()) / 1e9
		previous, _ := obj[keyLastSuccess].(float64)
		if next > previous {
			obj[keyLastSuccess] = next
		}
	}

	encoded, err := configutil.EncodeObject(obj)
	if err != nil {
		return err
	}
	err = configutil.WriteAtomic(s.Path, encoded)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
