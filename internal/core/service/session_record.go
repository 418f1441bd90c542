package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

const (
	keySessionIdentity = "user"
	keySessionMarker   = "token"
)

// SessionRecordStore persists the last identity and the session marker. The
// record only restores state at startup; it never authenticates requests.
type SessionRecordStore struct {
	kv     ports.KeyValueStore
	marker *MarkerSigner
}

func NewSessionRecordStore(kv ports.KeyValueStore, marker *MarkerSigner) *SessionRecordStore {
	if marker == nil {
		marker = NewMarkerSigner("")
	}
	return &SessionRecordStore{kv: kv, marker: marker}
}

// Save replaces the identity record and re-mints the marker for it.
func (r *SessionRecordStore) Save(ctx context.Context, id domain.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("record save: %w", err)
	}
	if err := r.kv.Set(ctx, keySessionIdentity, string(raw)); err != nil {
		return fmt.Errorf("record save: %w", err)
	}
	marker, err := r.marker.Mint(id)
	if err != nil {
		return fmt.Errorf("record marker: %w", err)
	}
	if err := r.kv.Set(ctx, keySessionMarker, marker); err != nil {
		return fmt.Errorf("record save: %w", err)
	}
	return nil
}

// Load returns the stored identity when both a record and a valid marker
// exist, and nil otherwise.
func (r *SessionRecordStore) Load(ctx context.Context) (*domain.Identity, error) {
	raw, ok, err := r.kv.Get(ctx, keySessionIdentity)
	if err != nil {
		return nil, fmt.Errorf("record load: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	marker, ok, err := r.kv.Get(ctx, keySessionMarker)
	if err != nil {
		return nil, fmt.Errorf("record load: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var id domain.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("record decode: %w", err)
	}
	if !r.marker.Valid(marker, id) {
		return nil, nil
	}
	return &id, nil
}

func (r *SessionRecordStore) capture(ctx context.Context) (*slotSnapshot, error) {
	return captureSlots(ctx, r.kv, keySessionIdentity, keySessionMarker)
}

func (r *SessionRecordStore) Clear(ctx context.Context) error {
	if err := r.kv.Delete(ctx, keySessionIdentity, keySessionMarker); err != nil {
		return fmt.Errorf("record clear: %w", err)
	}
	return nil
}
