package engine

import (
	"encoding/json"
	"fmt"
)

// savedGame is the serialized envelope around a GameState
type savedGame struct {
	Version int        `json:"version"`
	State   *GameState `json:"state"`
}

// Serialize encodes state into an opaque blob suitable for persistence
func Serialize(state *GameState) ([]byte, error) {
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	return json.Marshal(savedGame{Version: BlobVersion, State: state})
}

// Deserialize decodes a blob produced by Serialize. Blobs that do not describe
// a well-formed board are rejected with an error wrapping ErrMalformedLoad;
// they are never repaired.
func Deserialize(data []byte) (*GameState, error) {
	var saved savedGame
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLoad, err)
	}
	if saved.Version != BlobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedLoad, saved.Version)
	}
	if saved.State == nil {
		return nil, fmt.Errorf("%w: missing state", ErrMalformedLoad)
	}
	if err := CheckInvariants(saved.State); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLoad, err)
	}
	return saved.State, nil
}
