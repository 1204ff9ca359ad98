package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateClientID_StableAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "client_id.json")

	first, err := LoadOrCreateClientID(path)
	if err != nil {
		t.Fatalf("LoadOrCreateClientID failed: %v", err)
	}
	if first == "" {
		t.Fatal("Expected a non-empty client ID")
	}

	second, err := LoadOrCreateClientID(path)
	if err != nil {
		t.Fatalf("LoadOrCreateClientID failed on second call: %v", err)
	}
	if second != first {
		t.Errorf("Client ID changed between calls: %q vs %q", first, second)
	}
}

func TestLoadOrCreateClientID_MalformedFileIsAnError(t *testing.T) {
	for _, contents := range []string{"garbage", `{"client_id":`, `{"client_id":""}`} {
		path := filepath.Join(t.TempDir(), "client_id.json")
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		id, err := LoadOrCreateClientID(path)
		if err == nil {
			t.Errorf("Expected an error for identity file %q, got ID %q", contents, id)
		}
		if !errors.Is(err, ErrStorage) {
			t.Errorf("Expected a storage error for %q, got: %v", contents, err)
		}

		after, readErr := os.ReadFile(path)
		if readErr != nil {
			t.Fatalf("ReadFile failed: %v", readErr)
		}
		if string(after) != contents {
			t.Errorf("Identity file was rewritten: %q became %q", contents, after)
		}
	}
}
