// ABOUTME: Credential record and validity classification
// ABOUTME: JSON-serializable structures shared across store, authclient, and handlers

package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Validity is the derived state of a credential record. It is computed on
// every read, never stored.
type Validity string

const (
	ValidityMissing Validity = "missing"
	ValidityValid   Validity = "valid"
	ValidityExpired Validity = "expired"
)

// Timestamp accepts either an RFC3339 string or a numeric epoch-seconds
// value when decoding. The remote authority has emitted both over time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid expiry timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	secs, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid expiry timestamp %s: %w", data, err)
	}
	t.Time = time.Unix(int64(secs), 0)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

// CredentialRecord is the token payload issued by the remote authority.
// Raw preserves the exact payload bytes so the record round-trips through
// storage wholesale; unknown fields are never dropped or merged.
type CredentialRecord struct {
	Token     string     `json:"token,omitempty"`
	ExpiresAt *Timestamp `json:"expires_at,omitempty"`
	Scopes    []string   `json:"scopes,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ParseCredentialRecord decodes a credential payload, retaining the original
// bytes for content-preserving persistence.
func ParseCredentialRecord(data []byte) (*CredentialRecord, error) {
	var rec CredentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	rec.Raw = append(json.RawMessage(nil), data...)
	return &rec, nil
}

// Payload returns the bytes to persist: the original payload when available,
// otherwise a fresh encoding of the structured fields.
func (r *CredentialRecord) Payload() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r)
}

// Validity classifies the record against now. A record with no expiry field
// is valid indefinitely; a past expiry is Expired regardless of other fields.
func (r *CredentialRecord) Validity(now time.Time) Validity {
	if r == nil {
		return ValidityMissing
	}
	if r.ExpiresAt != nil && !r.ExpiresAt.IsZero() && r.ExpiresAt.Before(now) {
		return ValidityExpired
	}
	return ValidityValid
}
