package service

import (
	"context"
	"errors"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubKV struct {
	data      map[string]string
	setErr    map[string]error
	setErrOne map[string]error
	deleteErr error
}

func newStubKV() *stubKV {
	return &stubKV{
		data:      make(map[string]string),
		setErr:    make(map[string]error),
		setErrOne: make(map[string]error),
	}
}

func (k *stubKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *stubKV) Set(_ context.Context, key, value string) error {
	if err := k.setErr[key]; err != nil {
		return err
	}
	if err, ok := k.setErrOne[key]; ok {
		delete(k.setErrOne, key)
		return err
	}
	k.data[key] = value
	return nil
}

func (k *stubKV) Delete(_ context.Context, keys ...string) error {
	if k.deleteErr != nil {
		return k.deleteErr
	}
	for _, key := range keys {
		delete(k.data, key)
	}
	return nil
}

func (k *stubKV) Ping(context.Context) error { return nil }

type stubRemote struct {
	identity    *ports.IdentityPayload
	identityErr error
	registered  *ports.RegisterRequest
	registerErr error
	updated     *ports.IdentityPayload
	updateErr   error
	passwordErr error

	calls     int
	lastCreds domain.Credentials
	lastPwReq ports.PasswordChangeRequest
}

func (r *stubRemote) Register(_ context.Context, req ports.RegisterRequest) (*ports.IdentityPayload, error) {
	r.calls++
	if r.registerErr != nil {
		return nil, r.registerErr
	}
	r.registered = &req
	return &ports.IdentityPayload{ID: "42", Email: req.Email, Role: req.Role, Name: req.Name, Phone: req.Phone}, nil
}

func (r *stubRemote) FetchIdentity(_ context.Context, creds domain.Credentials) (*ports.IdentityPayload, error) {
	r.calls++
	r.lastCreds = creds
	if r.identityErr != nil {
		return nil, r.identityErr
	}
	p := *r.identity
	return &p, nil
}

func (r *stubRemote) UpdateProfile(_ context.Context, req ports.ProfileRequest, creds domain.Credentials) (*ports.IdentityPayload, error) {
	r.calls++
	r.lastCreds = creds
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if r.updated != nil {
		p := *r.updated
		return &p, nil
	}
	return &ports.IdentityPayload{ID: "1", Email: req.Email, Role: "ROLE_CUSTOMER", Name: req.Name, Phone: req.Phone}, nil
}

func (r *stubRemote) ChangePassword(_ context.Context, req ports.PasswordChangeRequest, creds domain.Credentials) (string, error) {
	r.calls++
	r.lastCreds = creds
	r.lastPwReq = req
	if r.passwordErr != nil {
		return "", r.passwordErr
	}
	return "Password changed successfully", nil
}

func (r *stubRemote) ForgotPassword(_ context.Context, email string) (string, error) {
	r.calls++
	if email == "" {
		return "", errors.New("Email is required")
	}
	return "Reset link sent", nil
}

func (r *stubRemote) ResetPassword(_ context.Context, req ports.ResetPasswordRequest) (string, error) {
	r.calls++
	return "Password reset", nil
}
