package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/loanportal/portal-client/internal/core/ports"
)

// slotSnapshot holds the raw values of a set of storage slots so they can be
// put back after a failed multi-slot write.
type slotSnapshot struct {
	kv      ports.KeyValueStore
	values  map[string]string
	missing []string
}

func captureSlots(ctx context.Context, kv ports.KeyValueStore, keys ...string) (*slotSnapshot, error) {
	snap := &slotSnapshot{kv: kv, values: make(map[string]string, len(keys))}
	for _, key := range keys {
		v, ok, err := kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("capture %s: %w", key, err)
		}
		if ok {
			snap.values[key] = v
		} else {
			snap.missing = append(snap.missing, key)
		}
	}
	return snap, nil
}

// restore writes the captured values back and deletes slots that were empty.
func (s *slotSnapshot) restore(ctx context.Context) error {
	var errs []error
	for key, v := range s.values {
		if err := s.kv.Set(ctx, key, v); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", key, err))
		}
	}
	if len(s.missing) > 0 {
		if err := s.kv.Delete(ctx, s.missing...); err != nil {
			errs = append(errs, fmt.Errorf("restore: %w", err))
		}
	}
	return errors.Join(errs...)
}
