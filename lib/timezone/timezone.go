package timezone

import "time"

var Location = time.Local

// Load resolves an IANA zone name, an empty name means the
// local zone of the host (which is what cron runs us in).
func Load(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// Now returns the current time in Location.
func Now() time.Time {
	return time.Now().In(Location)
}

// IsWeekend reports whether t falls on a saturday or sunday
// in t's own location.
func IsWeekend(t time.Time) bool {
	day := t.Weekday()
	return day == time.Saturday || day == time.Sunday
}
