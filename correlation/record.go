package correlation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedHeader means a stored payload did not carry a string flowId.
var ErrMalformedHeader = errors.New("correlation payload has no flowId")

// Record is the correlation record persisted by a flow's init.
// Required fields are always serialised, optional ones only when set, giving the
// persisted shape {source?, flowId, state, tokenEndpoint, clientID, clientSecret,
// codeVerifier?, codeChallenge?}.
type Record struct {
	Source        string `json:"source,omitempty"`
	FlowID        string `json:"flowId"`
	State         string `json:"state"`
	TokenEndpoint string `json:"tokenEndpoint"`
	ClientID      string `json:"clientID"`
	ClientSecret  string `json:"clientSecret"`
	CodeVerifier  string `json:"codeVerifier,omitempty"`
	CodeChallenge string `json:"codeChallenge,omitempty"`
}

// Encode serialises the record for storage.
func (r Record) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode correlation record: %w", err)
	}
	return string(b), nil
}

// Header is the minimal schema every flow's record shares.
type Header struct {
	Source string `json:"source,omitempty"`
	FlowID string `json:"flowId"`
}

// DecodeHeader reads the shared part of any stored payload.
// It fails when the payload is not a JSON object, when flowId is missing or not a string,
// or when source is present with the wrong type.
func DecodeHeader(payload string) (Header, error) {
	var raw struct {
		Source *string `json:"source"`
		FlowID *string `json:"flowId"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrMalformedHeader, err)
	}
	if raw.FlowID == nil {
		return Header{}, ErrMalformedHeader
	}
	h := Header{FlowID: *raw.FlowID}
	if raw.Source != nil {
		h.Source = *raw.Source
	}
	return h, nil
}

// LoadSource returns the source tag of whatever record currently occupies the slot.
// A missing or unreadable record yields "", so a corrupt slot never blocks a new flow.
func LoadSource(ctx context.Context, store Store) (string, error) {
	payload, found, err := store.Get(ctx, Key)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	var tagged struct {
		Source string `json:"source"`
	}
	if json.Unmarshal([]byte(payload), &tagged) != nil {
		return "", nil
	}
	return tagged.Source, nil
}

// SetSource tags the slot with the caller that is about to start a flow, e.g. "REST" or
// "GraphQL". The next init carries the tag into its record.
func SetSource(ctx context.Context, store Store, source string) error {
	b, err := json.Marshal(struct {
		Source string `json:"source"`
	}{source})
	if err != nil {
		return err
	}
	return store.Set(ctx, Key, string(b))
}
