// Package wifi reports which wireless network the host is associated with.
package wifi

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultAirportPath is where macOS ships its wireless diagnostics utility.
const DefaultAirportPath = "/System/Library/PrivateFrameworks/Apple80211.framework/Versions/Current/Resources/airport"

var ErrProbeFailed = errors.New("wifi: probe failed")

// Identity is every `key: value` pair reported by the probe.
type Identity map[string]string

// Connected reports whether the probe returned interface data at all, a
// powered off or missing interface yields at most a single line.
func (i Identity) Connected() bool {
	return len(i) >= 2
}

func (i Identity) SSID() string {
	return i["SSID"]
}

// Parse reads `key: value` lines, splitting at the first colon so that
// values like BSSIDs survive intact. Lines without a colon are ignored.
func Parse(output []byte) Identity {
	identity := Identity{}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		identity[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return identity
}

type Probe interface {
	Current(ctx context.Context) (Identity, error)
}

// AirportProbe runs `<Path> -I`.
type AirportProbe struct {
	Path string
}

func (p AirportProbe) Current(ctx context.Context) (Identity, error) {
	path := p.Path
	if path == "" {
		path = DefaultAirportPath
	}

	cmd := exec.CommandContext(ctx, path, "-I")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %w", ErrProbeFailed, err)
		}
		// a non-zero exit still leaves whatever the utility managed to print,
		// an empty result is how "no interface" is reported.
	}
	return Parse(output), nil
}

// Static is a Probe that always reports the same identity.
type Static Identity

func (s Static) Current(context.Context) (Identity, error) {
	return Identity(s), nil
}
