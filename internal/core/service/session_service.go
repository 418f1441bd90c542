package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanportal/portal-client/internal/api/metrics"
	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
	"github.com/loanportal/portal-client/internal/core/state"
)

// registrationRole is sent on every registration; callers cannot pick a role.
const registrationRole = "CUSTOMER"

// SessionService orchestrates login, logout, registration, profile update and
// password change across the remote client, the credential vault, the session
// record and the state store.
//
// Operations are not serialized against each other. Issuing overlapping calls
// (for example Login racing Logout) leaves the outcome to whichever finishes
// last; callers must not do that.
type SessionService struct {
	remote  ports.RemoteAuthClient
	vault   *CredentialVault
	records *SessionRecordStore
	store   *state.Store
	log     zerolog.Logger
	now     func() time.Time
}

func NewSessionService(
	remote ports.RemoteAuthClient,
	vault *CredentialVault,
	records *SessionRecordStore,
	store *state.Store,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		remote:  remote,
		vault:   vault,
		records: records,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Restore rebuilds the session from the persisted record at startup.
func (s *SessionService) Restore(ctx context.Context) {
	id, err := s.records.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("session restore failed")
	}
	if err != nil || id == nil {
		s.store.Dispatch(state.SetLoading{Loading: false})
		metrics.AuthActionsTotal.WithLabelValues("restore", "failure").Inc()
		return
	}

	s.store.Dispatch(state.Success{Identity: *id})
	metrics.AuthActionsTotal.WithLabelValues("restore", "success").Inc()
	s.log.Info().Str("user_id", id.ID).Str("role", id.Role).Msg("session restored")
}

// Login authenticates with the supplied pair and, on success, persists the
// identity and the pair. On failure the stored slots keep their previous
// values.
func (s *SessionService) Login(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
	s.store.Dispatch(state.Start{})

	id, err := s.login(ctx, in)
	metrics.AuthActionsTotal.WithLabelValues("login", metrics.Result(err)).Inc()
	if err != nil {
		s.store.Dispatch(state.Failure{Message: err.Error()})
		s.log.Warn().Str("email", in.Email).Str("expected_role", in.ExpectedRole).Str("reason", err.Error()).Msg("login failed")
		return nil, err
	}

	s.store.Dispatch(state.Success{Identity: *id})
	s.log.Info().Str("user_id", id.ID).Str("role", id.Role).Msg("login succeeded")
	return id, nil
}

func (s *SessionService) login(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
	payload, err := s.remote.FetchIdentity(ctx, domain.Credentials{Email: in.Email, Password: in.Password})
	if err != nil {
		return nil, err
	}

	if in.ExpectedRole != "" && !domain.RoleMatches(payload.Role, in.ExpectedRole) {
		return nil, &domain.RoleMismatchError{Actual: payload.Role, Selected: in.ExpectedRole}
	}

	id := s.identityFrom(payload, time.Time{})

	prevRecord, err := s.records.capture(ctx)
	if err != nil {
		return nil, err
	}
	prevVault, err := s.vault.capture(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, id); err != nil {
		s.rollback(ctx, prevRecord, prevVault)
		return nil, err
	}
	if err := s.vault.Save(ctx, in.Email, in.Password); err != nil {
		s.rollback(ctx, prevRecord, prevVault)
		return nil, err
	}
	return &id, nil
}

// rollback puts back the slots a partly persisted login overwrote.
func (s *SessionService) rollback(ctx context.Context, snaps ...*slotSnapshot) {
	for _, snap := range snaps {
		if err := snap.restore(ctx); err != nil {
			s.log.Error().Err(err).Msg("login rollback")
		}
	}
}

// Logout clears every persisted slot and always succeeds. Storage errors are
// logged only.
func (s *SessionService) Logout(ctx context.Context) {
	if err := s.records.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("logout: clear session record")
	}
	if err := s.vault.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("logout: clear vault")
	}
	s.store.Dispatch(state.Logout{})
	metrics.AuthActionsTotal.WithLabelValues("logout", "success").Inc()
	s.log.Info().Msg("logged out")
}

// Register creates a customer account. It never establishes a session; the
// caller has to Login afterwards.
func (s *SessionService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.Identity, error) {
	s.store.Dispatch(state.Start{})

	payload, err := s.remote.Register(ctx, ports.RegisterRequest{
		Email:    in.Email,
		Password: in.Password,
		Role:     registrationRole,
		Name:     strings.TrimSpace(in.FirstName + " " + in.LastName),
		Phone:    in.Phone,
	})
	metrics.AuthActionsTotal.WithLabelValues("register", metrics.Result(err)).Inc()
	if err != nil {
		s.store.Dispatch(state.Failure{Message: err.Error()})
		s.log.Warn().Str("email", in.Email).Str("reason", err.Error()).Msg("registration failed")
		return nil, err
	}

	id := domain.Identity{
		ID:        payload.ID,
		Email:     payload.Email,
		Role:      domain.NormalizeRole(payload.Role),
		Name:      payload.Name,
		Phone:     payload.Phone,
		CreatedAt: payload.CreatedAt,
	}
	s.store.Dispatch(state.SetLoading{Loading: false})
	s.log.Info().Str("user_id", id.ID).Msg("account registered")
	return &id, nil
}

// UpdateProfile updates name, phone and email using the stored pair. The
// previous CreatedAt is kept because the backend does not always echo it.
func (s *SessionService) UpdateProfile(ctx context.Context, in ports.ProfileInput) (*domain.Identity, error) {
	s.store.Dispatch(state.Start{})
	previous := s.store.State().Identity

	id, err := s.updateProfile(ctx, in, previous)
	metrics.AuthActionsTotal.WithLabelValues("update_profile", metrics.Result(err)).Inc()
	if err != nil {
		s.store.Dispatch(state.Failure{Message: err.Error()})
		s.log.Warn().Str("reason", err.Error()).Msg("profile update failed")
		return nil, err
	}

	s.store.Dispatch(state.Success{Identity: *id})
	s.log.Info().Str("user_id", id.ID).Msg("profile updated")
	return id, nil
}

func (s *SessionService) updateProfile(ctx context.Context, in ports.ProfileInput, previous *domain.Identity) (*domain.Identity, error) {
	creds, err := s.vault.Load(ctx)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, domain.ErrReloginProfile
	}

	payload, err := s.remote.UpdateProfile(ctx, ports.ProfileRequest{
		Email: in.Email,
		Name:  in.Name,
		Phone: in.Phone,
	}, *creds)
	if err != nil {
		return nil, err
	}

	var createdAt time.Time
	if previous != nil {
		createdAt = previous.CreatedAt
	}
	id := s.identityFrom(payload, createdAt)
	if err := s.records.Save(ctx, id); err != nil {
		return nil, err
	}
	return &id, nil
}

// ChangePassword changes the password with the stored pair and, on success,
// replaces the stored password so later calls keep working without a new
// login. Neither outcome touches the identity or records an error in the
// state; only the loading flag moves.
func (s *SessionService) ChangePassword(ctx context.Context, current, next string) (string, error) {
	s.store.Dispatch(state.Start{})
	defer s.store.Dispatch(state.SetLoading{Loading: false})

	msg, err := s.changePassword(ctx, current, next)
	metrics.AuthActionsTotal.WithLabelValues("change_password", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn().Str("reason", err.Error()).Msg("password change failed")
		return "", err
	}
	s.log.Info().Msg("password changed")
	return msg, nil
}

func (s *SessionService) changePassword(ctx context.Context, current, next string) (string, error) {
	creds, err := s.vault.Load(ctx)
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", domain.ErrReloginPassword
	}

	msg, err := s.remote.ChangePassword(ctx, ports.PasswordChangeRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, *creds)
	if err != nil {
		return "", err
	}

	// TODO: a crash between the backend change and this write leaves the
	// vault with the old password; decide on recovery once product weighs in.
	if err := s.vault.Save(ctx, creds.Email, next); err != nil {
		return "", err
	}
	return msg, nil
}

// ForgotPassword asks the backend to mail a reset link. It does not touch the
// session.
func (s *SessionService) ForgotPassword(ctx context.Context, email string) (string, error) {
	msg, err := s.remote.ForgotPassword(ctx, email)
	metrics.AuthActionsTotal.WithLabelValues("forgot_password", metrics.Result(err)).Inc()
	return msg, err
}

// ResetPassword completes a reset started by ForgotPassword.
func (s *SessionService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	if token == "" {
		metrics.AuthActionsTotal.WithLabelValues("reset_password", "failure").Inc()
		return "", domain.ErrMissingResetToken
	}
	msg, err := s.remote.ResetPassword(ctx, ports.ResetPasswordRequest{Token: token, NewPassword: newPassword})
	metrics.AuthActionsTotal.WithLabelValues("reset_password", metrics.Result(err)).Inc()
	return msg, err
}

func (s *SessionService) ClearError() {
	s.store.Dispatch(state.ClearError{})
}

func (s *SessionService) State() domain.SessionState {
	return s.store.State()
}

func (s *SessionService) Subscribe(fn state.Listener) (unsubscribe func()) {
	return s.store.Subscribe(fn)
}

// Credentials exposes the stored pair to peripheral features.
func (s *SessionService) Credentials(ctx context.Context) (*domain.Credentials, error) {
	return s.vault.Load(ctx)
}

// identityFrom normalizes a backend payload. A zero createdAt falls back to
// the payload's own value, then to now.
func (s *SessionService) identityFrom(p *ports.IdentityPayload, createdAt time.Time) domain.Identity {
	if createdAt.IsZero() {
		createdAt = p.CreatedAt
	}
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}
	return domain.Identity{
		ID:        p.ID,
		Email:     p.Email,
		Role:      domain.NormalizeRole(p.Role),
		Name:      p.Name,
		Phone:     p.Phone,
		CreatedAt: createdAt,
	}
}
