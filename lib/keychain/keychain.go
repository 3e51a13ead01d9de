// Package keychain looks up secrets in the OS credential store. Secrets
// returned from here must never be logged.
package keychain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

var ErrNotFound = errors.New("keychain: secret not found")

type Provider interface {
	Secret(ctx context.Context, key string) (string, error)
}

// SecurityCLI reads internet passwords through the macOS `security` tool,
// `key` is the server the password was saved for.
type SecurityCLI struct {
	// defaults to "security" on $PATH
	Path string
}

func (s SecurityCLI) Secret(ctx context.Context, key string) (string, error) {
	path := s.Path
	if path == "" {
		path = "security"
	}

	cmd := exec.CommandContext(ctx, path, "find-internet-password", "-s", key, "-w")
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return "", err
	}

	secret := strings.TrimRight(string(output), "\r\n")
	if secret == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return secret, nil
}

// Env reads the secret from an environment variable regardless of key,
// for hosts without a keychain.
type Env struct {
	Variable string
}

func (e Env) Secret(_ context.Context, key string) (string, error) {
	secret := os.Getenv(e.Variable)
	if secret == "" {
		return "", fmt.Errorf("%w: %s (env %s)", ErrNotFound, key, e.Variable)
	}
	return secret, nil
}

// Static serves secrets from memory.
type Static map[string]string

func (s Static) Secret(_ context.Context, key string) (string, error) {
	secret := s[key]
	if secret == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return secret, nil
}

// Chain tries each provider in order and returns the first secret found.
type Chain []Provider

func (c Chain) Secret(ctx context.Context, key string) (string, error) {
	var errlist []error
	for _, p := range c {
		secret, err := p.Secret(ctx, key)
		if err == nil {
			return secret, nil
		}
		errlist = append(errlist, err)
	}
	if len(errlist) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return "", errors.Join(errlist...)
}
