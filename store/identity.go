// ABOUTME: Client identity persistence
// ABOUTME: Generates a stable per-installation UUID, created once

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

type identityFile struct {
	ClientID string `json:"client_id"`
}

// LoadOrCreateClientID returns the installation's client identity, creating
// and persisting a new UUID on first run. The identity is stable for the
// lifetime of the installation; regenerating it means deleting the file by
// hand, never something the gateway does on its own. A malformed file is an
// error, not a trigger to regenerate.
func LoadOrCreateClientID(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		var f identityFile
		if jsonErr := json.Unmarshal(data, &f); jsonErr == nil && f.ClientID != "" {
			return f.ClientID, nil
		}
		return "", fmt.Errorf("%w: identity file %s is malformed, delete it to issue a new identity", ErrStorage, path)
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("%w: read %s: %v", ErrStorage, path, err)
	}

	id := uuid.NewString()
	payload, err := json.Marshal(identityFile{ClientID: id})
	if err != nil {
		return "", fmt.Errorf("%w: encode identity: %v", ErrStorage, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("%w: create state directory: %v", ErrStorage, err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(payload)); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrStorage, path, err)
	}

	slog.Info("Generated new client identity", "client_id", id, "path", path)
	return id, nil
}
