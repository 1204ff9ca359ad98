// ABOUTME: Tolerant parsing of remote authority credential responses
// ABOUTME: Tries a fixed set of known payload shapes in order

package authclient

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/omniq-ai/omniq-gateway/models"
)

// envelopeKeys are status fields the authority wraps around the credential
// content. A top-level payload consisting only of these carries no
// credentials.
var envelopeKeys = map[string]bool{
	"success": true,
	"error":   true,
	"message": true,
}

// ParseCredentialPayload extracts a credential record from an authority
// response body. Two shapes are accepted, tried in order:
//
//	(a) an envelope with a nested "credentials" object
//	(b) the top-level payload itself being the credential object
//
// A reachable-but-empty or unparsable payload yields ErrParse so callers can
// log a cause distinct from a transport failure. An explicit success:false
// envelope yields ErrRemote with the authority's own error message.
func ParseCredentialPayload(body []byte) (*models.CredentialRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: response is not valid JSON", ErrParse)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrParse)
	}

	if success := root.Get("success"); success.Exists() && !success.Bool() {
		msg := root.Get("error").String()
		if msg == "" {
			msg = "authority reported failure"
		}
		return nil, fmt.Errorf("%w: %s", ErrRemote, msg)
	}

	// Shape (a): nested credentials object.
	if creds := root.Get("credentials"); creds.Exists() {
		if !creds.IsObject() || len(creds.Map()) == 0 {
			return nil, fmt.Errorf("%w: credentials field present but empty", ErrParse)
		}
		rec, err := models.ParseCredentialRecord([]byte(creds.Raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return rec, nil
	}

	// Shape (b): the payload is the credential object itself.
	content := false
	for key := range root.Map() {
		if !envelopeKeys[key] {
			content = true
			break
		}
	}
	if !content {
		return nil, fmt.Errorf("%w: response contained no credential content", ErrParse)
	}

	rec, err := models.ParseCredentialRecord(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return rec, nil
}
