package ports

import (
	"context"
	"time"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// IdentityPayload carries identity fields exactly as the backend returned
// them; the role is not normalized yet.
type IdentityPayload struct {
	ID        string
	Email     string
	Role      string
	Name      string
	Phone     string
	CreatedAt time.Time
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type ProfileRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// RemoteAuthClient performs the backend auth calls. Failures are returned as
// errors whose message is already normalized for display.
type RemoteAuthClient interface {
	Register(ctx context.Context, req RegisterRequest) (*IdentityPayload, error)
	FetchIdentity(ctx context.Context, creds domain.Credentials) (*IdentityPayload, error)
	UpdateProfile(ctx context.Context, req ProfileRequest, creds domain.Credentials) (*IdentityPayload, error)
	ChangePassword(ctx context.Context, req PasswordChangeRequest, creds domain.Credentials) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error)
}
