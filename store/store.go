// ABOUTME: Credential persistence with atomic writes and cached reads
// ABOUTME: Sole owner of the on-disk credential record

package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/natefinch/atomic"

	"github.com/omniq-ai/omniq-gateway/cache"
	"github.com/omniq-ai/omniq-gateway/models"
)

// ErrStorage indicates a local read or write failure on the credential file.
var ErrStorage = errors.New("credential storage error")

const recordKey = "credentials:record"

// CredentialStore owns the credential file. All writes to the file funnel
// through Write; everything else reads through Read.
type CredentialStore struct {
	path  string
	cache *cache.Cache
	mu    sync.Mutex
}

func New(path string, c *cache.Cache) *CredentialStore {
	return &CredentialStore{path: path, cache: c}
}

// Path returns the credential file location.
func (s *CredentialStore) Path() string {
	return s.path
}

// Read loads the current record and classifies its validity against the
// current time. Unreadable or malformed files degrade to Missing with the
// cause logged; the gateway keeps serving.
func (s *CredentialStore) Read() (models.Validity, *models.CredentialRecord) {
	if cached, ok := s.cache.Get(recordKey); ok {
		rec := cached.(*models.CredentialRecord)
		return rec.Validity(time.Now()), rec
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Credential file unreadable, treating as missing", "path", s.path, "error", err)
		}
		return models.ValidityMissing, nil
	}

	rec, err := models.ParseCredentialRecord(data)
	if err != nil {
		slog.Warn("Credential file malformed, treating as missing", "path", s.path, "error", err)
		return models.ValidityMissing, nil
	}

	s.cache.Set(recordKey, rec)
	return rec.Validity(time.Now()), rec
}

// Write atomically replaces the stored record (write-temp-then-rename so a
// concurrent reader never observes a partial file). The containing directory
// is created if absent.
func (s *CredentialStore) Write(rec *models.CredentialRecord) error {
	payload, err := rec.Payload()
	if err != nil {
		return fmt.Errorf("%w: encode record: %v", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("%w: create state directory: %v", ErrStorage, err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrStorage, s.path, err)
	}

	s.cache.Set(recordKey, rec)
	return nil
}

// Invalidate drops the cached record so the next Read hits the file. Called
// by the credential watcher when the file changes externally.
func (s *CredentialStore) Invalidate() {
	s.cache.Clear(recordKey)
	slog.Debug("Credential cache invalidated", "path", s.path)
}
