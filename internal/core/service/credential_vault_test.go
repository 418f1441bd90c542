package service

import (
	"context"
	"errors"
	"testing"
)

func TestCredentialVault_SaveAndLoad(t *testing.T) {
	v := NewCredentialVault(newStubKV())
	ctx := context.Background()

	if err := v.Save(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("save: %v", err)
	}
	creds, err := v.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if creds == nil || creds.Email != "a@b.com" || creds.Password != "pw" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestCredentialVault_SaveIgnoresPartialPair(t *testing.T) {
	kv := newStubKV()
	v := NewCredentialVault(kv)
	ctx := context.Background()

	_ = v.Save(ctx, "a@b.com", "")
	_ = v.Save(ctx, "", "pw")

	if len(kv.data) != 0 {
		t.Fatalf("expected nothing persisted, got %v", kv.data)
	}
}

func TestCredentialVault_LoadNeverReturnsHalfPair(t *testing.T) {
	cases := map[string]map[string]string{
		"empty":          {},
		"email only":     {keyBasicEmail: "a@b.com"},
		"password only":  {keyBasicPassword: "pw"},
		"blank password": {keyBasicEmail: "a@b.com", keyBasicPassword: ""},
		"blank email":    {keyBasicEmail: "", keyBasicPassword: "pw"},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			kv := newStubKV()
			for k, val := range data {
				kv.data[k] = val
			}
			creds, err := NewCredentialVault(kv).Load(context.Background())
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if creds != nil {
				t.Fatalf("expected no credentials, got %+v", creds)
			}
		})
	}
}

func TestCredentialVault_FailedPasswordWriteLeavesNothing(t *testing.T) {
	kv := newStubKV()
	kv.setErr[keyBasicPassword] = errors.New("disk full")
	v := NewCredentialVault(kv)

	if err := v.Save(context.Background(), "a@b.com", "pw"); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := kv.data[keyBasicEmail]; ok {
		t.Fatalf("email slot left behind after failed save")
	}
}

func TestCredentialVault_Clear(t *testing.T) {
	v := NewCredentialVault(newStubKV())
	ctx := context.Background()
	_ = v.Save(ctx, "a@b.com", "pw")

	if err := v.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if creds, _ := v.Load(ctx); creds != nil {
		t.Fatalf("expected cleared vault, got %+v", creds)
	}
}

func TestCredentialVault_FailedCleanupIsReported(t *testing.T) {
	kv := newStubKV()
	writeErr := errors.New("disk full")
	cleanupErr := errors.New("connection reset")
	kv.setErr[keyBasicPassword] = writeErr
	kv.deleteErr = cleanupErr
	v := NewCredentialVault(kv)

	err := v.Save(context.Background(), "a@b.com", "pw")
	if !errors.Is(err, writeErr) || !errors.Is(err, cleanupErr) {
		t.Fatalf("expected both write and cleanup errors, got %v", err)
	}
}
