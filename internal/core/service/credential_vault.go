package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

const (
	keyBasicEmail    = "basic_email"
	keyBasicPassword = "basic_password"
)

// CredentialVault persists the Basic-Authentication pair. It never holds a
// half pair: Save ignores incomplete input and Load only returns complete ones.
type CredentialVault struct {
	kv ports.KeyValueStore
}

func NewCredentialVault(kv ports.KeyValueStore) *CredentialVault {
	return &CredentialVault{kv: kv}
}

// Save stores the pair. It is a no-op when either field is empty.
func (v *CredentialVault) Save(ctx context.Context, email, password string) error {
	if !(domain.Credentials{Email: email, Password: password}).Complete() {
		return nil
	}
	if err := v.kv.Set(ctx, keyBasicEmail, email); err != nil {
		return fmt.Errorf("vault save: %w", err)
	}
	if err := v.kv.Set(ctx, keyBasicPassword, password); err != nil {
		err = fmt.Errorf("vault save: %w", err)
		if derr := v.kv.Delete(ctx, keyBasicEmail, keyBasicPassword); derr != nil {
			err = errors.Join(err, fmt.Errorf("vault cleanup: %w", derr))
		}
		return err
	}
	return nil
}

// Load returns nil, nil when no complete pair is stored.
func (v *CredentialVault) Load(ctx context.Context) (*domain.Credentials, error) {
	email, ok, err := v.kv.Get(ctx, keyBasicEmail)
	if err != nil {
		return nil, fmt.Errorf("vault load: %w", err)
	}
	if !ok || email == "" {
		return nil, nil
	}
	password, ok, err := v.kv.Get(ctx, keyBasicPassword)
	if err != nil {
		return nil, fmt.Errorf("vault load: %w", err)
	}
	if !ok || password == "" {
		return nil, nil
	}
	return &domain.Credentials{Email: email, Password: password}, nil
}

func (v *CredentialVault) capture(ctx context.Context) (*slotSnapshot, error) {
	return captureSlots(ctx, v.kv, keyBasicEmail, keyBasicPassword)
}

func (v *CredentialVault) Clear(ctx context.Context) error {
	if err := v.kv.Delete(ctx, keyBasicEmail, keyBasicPassword); err != nil {
		return fmt.Errorf("vault clear: %w", err)
	}
	return nil
}
