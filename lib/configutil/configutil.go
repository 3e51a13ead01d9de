package configutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// LocalPath returns the path of the local override file for `name`,
// ex. config.json -> config.local.json
func LocalPath(name string) string {
	prefixname, ext := splitExt(filepath.Base(name))
	return filepath.Join(
		filepath.Dir(name),
		fmt.Sprintf("%s.local.%s", prefixname, ext),
	)
}

// reads a configuration file, `name` should come with a file extension,
// it will automatically be lopped off to produce the other extensions.
// this function will merge the following files, where higher number is more prioritized.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		err = json5.Unmarshal(defaultFile, &out)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := LocalPath(name)
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		err = json5.Unmarshal(localFile, &override)
		if err != nil {
			return out, fmt.Errorf("parse %s: %w", localFilepath, err)
		}
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, err
		}
		slog.Debug("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}

	return out, nil
}

// ReadObject reads a single configuration file (no local overrides) as a
// generic key-value object so that it can be patched and written back without
// losing keys the caller doesn't know about.
func ReadObject(name string) (map[string]any, error) {
	contents, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return out, nil
}

// EncodeObject renders an object as tab indented json, map keys are written
// in sorted order.
func EncodeObject(obj map[string]any) ([]byte, error) {
	var buff bytes.Buffer
	enc := json.NewEncoder(&buff)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	err := enc.Encode(obj)
	if err != nil {
		return nil, err
	}
	return buff.Bytes(), nil
}

// WriteAtomic replaces the file at `name` with `contents` by writing to a
// temporary file in the same directory and renaming it over the original.
func WriteAtomic(name string, contents []byte) error {
	perm := os.FileMode(0600)
	if info, err := os.Stat(name); err == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(name), "."+filepath.Base(name)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Sync()
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	err = os.Chmod(tmpName, perm)
	if err != nil {
		return err
	}
	return os.Rename(tmpName, name)
}
