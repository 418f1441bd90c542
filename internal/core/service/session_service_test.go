package service

import (
	"context"
	"errors"
	"maps"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
	"github.com/loanportal/portal-client/internal/core/state"
)

type sessionFixture struct {
	svc    *SessionService
	remote *stubRemote
	kv     *stubKV
	vault  *CredentialVault
	store  *state.Store
}

func newSessionFixture(remote *stubRemote, markerSecret string) *sessionFixture {
	kv := newStubKV()
	vault := NewCredentialVault(kv)
	records := NewSessionRecordStore(kv, NewMarkerSigner(markerSecret))
	store := state.NewStore()
	svc := NewSessionService(remote, vault, records, store, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return &sessionFixture{svc: svc, remote: remote, kv: kv, vault: vault, store: store}
}

func customerRemote() *stubRemote {
	return &stubRemote{identity: &ports.IdentityPayload{
		ID:    "1",
		Email: "a@b.com",
		Role:  "ROLE_CUSTOMER",
		Name:  "Asha Rao",
		Phone: "9876543210",
	}}
}

func (f *sessionFixture) login(t *testing.T) *domain.Identity {
	t.Helper()
	id, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return id
}

func TestSessionService_Login_PrefixedRoleMatchesSelection(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")

	id, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw", ExpectedRole: "customer"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if id.Role != domain.RoleCustomer {
		t.Fatalf("expected role customer, got %q", id.Role)
	}
	if f.remote.lastCreds.Email != "a@b.com" || f.remote.lastCreds.Password != "pw" {
		t.Fatalf("remote called with wrong credentials: %+v", f.remote.lastCreds)
	}

	st := f.store.State()
	if !st.IsAuthenticated || st.Identity == nil || st.Identity.Role != domain.RoleCustomer {
		t.Fatalf("unexpected state: %+v", st)
	}
	if st.Loading || st.Error != "" {
		t.Fatalf("unexpected flags: %+v", st)
	}

	creds, _ := f.vault.Load(context.Background())
	if creds == nil || creds.Email != "a@b.com" || creds.Password != "pw" {
		t.Fatalf("vault not populated: %+v", creds)
	}
	if f.kv.data[keySessionMarker] != plainMarker {
		t.Fatalf("expected plain marker, got %q", f.kv.data[keySessionMarker])
	}
	if !strings.Contains(f.kv.data[keySessionIdentity], `"role":"customer"`) {
		t.Fatalf("persisted record not normalized: %s", f.kv.data[keySessionIdentity])
	}
}

func TestSessionService_Login_RoleMismatch(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw", ExpectedRole: "officer"})
	if !errors.Is(err, domain.ErrRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "ROLE_CUSTOMER") || !strings.Contains(err.Error(), "officer") {
		t.Fatalf("message should name both roles: %q", err.Error())
	}

	if creds, _ := f.vault.Load(context.Background()); creds != nil {
		t.Fatalf("vault must stay empty, got %+v", creds)
	}
	if len(f.kv.data) != 0 {
		t.Fatalf("nothing should be persisted, got %v", f.kv.data)
	}

	st := f.store.State()
	if st.IsAuthenticated || st.Error != err.Error() || st.Phase() != domain.PhaseAuthFailed {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_Login_RoleEquivalence(t *testing.T) {
	for _, role := range []string{"customer", "officer", "admin", "Manager"} {
		remote := customerRemote()
		remote.identity.Role = "ROLE_" + strings.ToUpper(role)
		f := newSessionFixture(remote, "")

		id, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw", ExpectedRole: role})
		if err != nil {
			t.Fatalf("role %q: prefixed backend role rejected: %v", role, err)
		}
		if id.Role != strings.ToLower(role) {
			t.Fatalf("role %q: stored as %q", role, id.Role)
		}

		remote.identity.Role = strings.ToUpper(role)
		if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw", ExpectedRole: role}); err != nil {
			t.Fatalf("role %q: bare backend role rejected: %v", role, err)
		}
	}
}

func TestSessionService_Login_RemoteFailureSurfacedVerbatim(t *testing.T) {
	remote := customerRemote()
	remote.identityErr = errors.New("Bad credentials")
	f := newSessionFixture(remote, "")

	_, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "nope"})
	if err == nil || err.Error() != "Bad credentials" {
		t.Fatalf("expected backend message, got %v", err)
	}
	if f.store.State().Error != "Bad credentials" {
		t.Fatalf("state error not set: %+v", f.store.State())
	}
	if len(f.kv.data) != 0 {
		t.Fatalf("nothing should be persisted, got %v", f.kv.data)
	}
}

func TestSessionService_Login_VaultFailureRollsBackRecord(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")
	f.kv.setErr[keyBasicPassword] = errors.New("quota exceeded")

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(f.kv.data) != 0 {
		t.Fatalf("partial login left data behind: %v", f.kv.data)
	}
	if f.store.State().IsAuthenticated {
		t.Fatalf("state should not be authenticated")
	}
}

func TestSessionService_Login_FailedPersistenceKeepsPreviousSession(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")
	f.login(t)
	before := maps.Clone(f.kv.data)

	f.remote.identity = &ports.IdentityPayload{ID: "2", Email: "b@c.com", Role: "CUSTOMER", Name: "Ravi"}
	f.kv.setErrOne[keyBasicPassword] = errors.New("quota exceeded")

	if _, err := f.svc.Login(context.Background(), ports.LoginInput{Email: "b@c.com", Password: "pw2"}); err == nil {
		t.Fatalf("expected error")
	}
	if !maps.Equal(f.kv.data, before) {
		t.Fatalf("previous session slots changed:\nbefore %v\nafter  %v", before, f.kv.data)
	}
	creds, err := f.vault.Load(context.Background())
	if err != nil || creds == nil || creds.Email != "a@b.com" || creds.Password != "pw" {
		t.Fatalf("expected previous credentials, got %+v (%v)", creds, err)
	}
}

func TestSessionService_Login_KeepsBackendCreatedAt(t *testing.T) {
	remote := customerRemote()
	created := time.Date(2023, 3, 3, 0, 0, 0, 0, time.UTC)
	remote.identity.CreatedAt = created
	f := newSessionFixture(remote, "")

	id := f.login(t)
	if !id.CreatedAt.Equal(created) {
		t.Fatalf("expected backend createdAt, got %v", id.CreatedAt)
	}
}

func TestSessionService_Logout_ClearsEverything(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")
	f.login(t)

	f.svc.Logout(context.Background())

	if creds, _ := f.vault.Load(context.Background()); creds != nil {
		t.Fatalf("vault not cleared: %+v", creds)
	}
	if len(f.kv.data) != 0 {
		t.Fatalf("storage not cleared: %v", f.kv.data)
	}
	st := f.store.State()
	if st.Identity != nil || st.IsAuthenticated || st.Phase() != domain.PhaseAnonymous {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_Logout_FromAnyState(t *testing.T) {
	remote := customerRemote()
	remote.identityErr = errors.New("Unauthorized")
	f := newSessionFixture(remote, "")
	_, _ = f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw"})

	f.svc.Logout(context.Background())

	st := f.store.State()
	if st.Identity != nil || st.Error != "" || st.Loading {
		t.Fatalf("logout should recover from failure: %+v", st)
	}
}

func TestSessionService_Register_NeverCreatesSession(t *testing.T) {
	remote := customerRemote()
	f := newSessionFixture(remote, "")

	id, err := f.svc.Register(context.Background(), ports.RegistrationInput{
		FirstName: "Asha",
		LastName:  "Rao",
		Email:     "new@b.com",
		Password:  "secret1",
		Phone:     "9876543210",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if remote.registered.Role != "CUSTOMER" {
		t.Fatalf("expected fixed CUSTOMER role, got %q", remote.registered.Role)
	}
	if remote.registered.Name != "Asha Rao" {
		t.Fatalf("unexpected composed name %q", remote.registered.Name)
	}
	if id.Role != domain.RoleCustomer {
		t.Fatalf("expected normalized role, got %q", id.Role)
	}

	if creds, _ := f.vault.Load(context.Background()); creds != nil {
		t.Fatalf("register must not populate the vault: %+v", creds)
	}
	if len(f.kv.data) != 0 {
		t.Fatalf("register must not persist anything: %v", f.kv.data)
	}
	st := f.store.State()
	if st.IsAuthenticated || st.Loading {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_Register_Failure(t *testing.T) {
	remote := customerRemote()
	remote.registerErr = errors.New("Email already in use")
	f := newSessionFixture(remote, "")

	_, err := f.svc.Register(context.Background(), ports.RegistrationInput{Email: "a@b.com", Password: "pw"})
	if err == nil {
		t.Fatalf("expected error")
	}
	st := f.store.State()
	if st.Loading || st.IsAuthenticated || st.Error != "Email already in use" {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_UpdateProfile_WithoutLogin(t *testing.T) {
	remote := customerRemote()
	f := newSessionFixture(remote, "")

	_, err := f.svc.UpdateProfile(context.Background(), ports.ProfileInput{Name: "X"})
	if !errors.Is(err, domain.ErrReloginProfile) {
		t.Fatalf("expected relogin error, got %v", err)
	}
	if err.Error() != "Please re-login to update profile" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if remote.calls != 0 {
		t.Fatalf("expected no network call, got %d", remote.calls)
	}
	if f.store.State().Phase() != domain.PhaseAuthFailed {
		t.Fatalf("expected auth_failed, got %s", f.store.State().Phase())
	}
}

func TestSessionService_UpdateProfile_KeepsCreatedAt(t *testing.T) {
	remote := customerRemote()
	created := time.Date(2022, 7, 9, 0, 0, 0, 0, time.UTC)
	remote.identity.CreatedAt = created
	remote.updated = &ports.IdentityPayload{ID: "1", Email: "a@b.com", Role: "CUSTOMER", Name: "X", Phone: "1"}
	f := newSessionFixture(remote, "")
	f.login(t)

	id, err := f.svc.UpdateProfile(context.Background(), ports.ProfileInput{Email: "a@b.com", Name: "X", Phone: "1"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if id.Name != "X" || id.Role != domain.RoleCustomer {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !id.CreatedAt.Equal(created) {
		t.Fatalf("createdAt not carried over: %v", id.CreatedAt)
	}
	if f.remote.lastCreds.Password != "pw" {
		t.Fatalf("update must use stored credentials: %+v", f.remote.lastCreds)
	}
	if !strings.Contains(f.kv.data[keySessionIdentity], `"name":"X"`) {
		t.Fatalf("record not persisted: %s", f.kv.data[keySessionIdentity])
	}
	if got := f.store.State().Identity; got == nil || got.Name != "X" {
		t.Fatalf("state not updated: %+v", got)
	}
}

func TestSessionService_UpdateProfile_BackendFailure(t *testing.T) {
	remote := customerRemote()
	remote.updateErr = errors.New("Email already taken")
	f := newSessionFixture(remote, "")
	f.login(t)

	if _, err := f.svc.UpdateProfile(context.Background(), ports.ProfileInput{Email: "x@b.com"}); err == nil {
		t.Fatalf("expected error")
	}
	st := f.store.State()
	if st.Error != "Email already taken" || st.Phase() != domain.PhaseAuthFailed {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_ChangePassword_UpdatesVault(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")
	before := f.login(t)

	msg, err := f.svc.ChangePassword(context.Background(), "pw", "pw2")
	if err != nil {
		t.Fatalf("change password: %v", err)
	}
	if msg == "" {
		t.Fatalf("expected confirmation text")
	}
	if f.remote.lastCreds.Password != "pw" || f.remote.lastPwReq.NewPassword != "pw2" {
		t.Fatalf("unexpected remote call: %+v %+v", f.remote.lastCreds, f.remote.lastPwReq)
	}

	creds, _ := f.vault.Load(context.Background())
	if creds == nil || creds.Email != "a@b.com" || creds.Password != "pw2" {
		t.Fatalf("vault not refreshed: %+v", creds)
	}
	st := f.store.State()
	if st.Loading || st.Identity == nil || st.Identity.ID != before.ID {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_ChangePassword_FailureKeepsSession(t *testing.T) {
	remote := customerRemote()
	remote.passwordErr = errors.New("Current password is incorrect")
	f := newSessionFixture(remote, "")
	f.login(t)

	_, err := f.svc.ChangePassword(context.Background(), "wrong", "pw2")
	if err == nil || err.Error() != "Current password is incorrect" {
		t.Fatalf("expected backend message, got %v", err)
	}

	st := f.store.State()
	if !st.IsAuthenticated || st.Loading || st.Error != "" {
		t.Fatalf("session should be untouched: %+v", st)
	}
	creds, _ := f.vault.Load(context.Background())
	if creds == nil || creds.Password != "pw" {
		t.Fatalf("vault should keep old password: %+v", creds)
	}
}

func TestSessionService_ChangePassword_WithoutLogin(t *testing.T) {
	remote := customerRemote()
	f := newSessionFixture(remote, "")

	_, err := f.svc.ChangePassword(context.Background(), "a", "b")
	if !errors.Is(err, domain.ErrReloginPassword) {
		t.Fatalf("expected relogin error, got %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("expected no network call")
	}
	if f.store.State().Loading {
		t.Fatalf("loading flag must be reset")
	}
}

func TestSessionService_ClearError(t *testing.T) {
	remote := customerRemote()
	remote.identityErr = errors.New("Unauthorized")
	f := newSessionFixture(remote, "")
	_, _ = f.svc.Login(context.Background(), ports.LoginInput{Email: "a@b.com", Password: "pw"})

	f.svc.ClearError()
	if f.store.State().Error != "" {
		t.Fatalf("error not cleared")
	}
}

func TestSessionService_Restore(t *testing.T) {
	f := newSessionFixture(customerRemote(), "marker-secret")
	f.login(t)

	restored := state.NewStore()
	records := NewSessionRecordStore(f.kv, NewMarkerSigner("marker-secret"))
	svc := NewSessionService(f.remote, f.vault, records, restored, zerolog.Nop())
	svc.Restore(context.Background())

	st := restored.State()
	if !st.IsAuthenticated || st.Identity.Email != "a@b.com" || st.Loading {
		t.Fatalf("session not restored: %+v", st)
	}
}

func TestSessionService_Restore_RejectsTamperedRecord(t *testing.T) {
	f := newSessionFixture(customerRemote(), "marker-secret")
	f.login(t)
	f.kv.data[keySessionIdentity] = strings.Replace(f.kv.data[keySessionIdentity], `"role":"customer"`, `"role":"admin"`, 1)

	restored := state.NewStore()
	records := NewSessionRecordStore(f.kv, NewMarkerSigner("marker-secret"))
	NewSessionService(f.remote, f.vault, records, restored, zerolog.Nop()).Restore(context.Background())

	st := restored.State()
	if st.IsAuthenticated || st.Loading {
		t.Fatalf("tampered record must not be restored: %+v", st)
	}
}

func TestSessionService_Restore_NothingStored(t *testing.T) {
	f := newSessionFixture(customerRemote(), "")
	f.svc.Restore(context.Background())

	st := f.store.State()
	if st.IsAuthenticated || st.Loading {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSessionService_ResetPassword_RequiresToken(t *testing.T) {
	remote := customerRemote()
	f := newSessionFixture(remote, "")

	if _, err := f.svc.ResetPassword(context.Background(), "", "pw"); !errors.Is(err, domain.ErrMissingResetToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("expected no network call")
	}
	if msg, err := f.svc.ResetPassword(context.Background(), "tok", "pw"); err != nil || msg == "" {
		t.Fatalf("reset failed: %q %v", msg, err)
	}
}
