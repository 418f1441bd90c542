package ports

import (
	"context"

	"github.com/loanportal/portal-client/internal/core/domain"
)

type LoginInput struct {
	Email        string
	Password     string
	ExpectedRole string
}

type RegistrationInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

type ProfileInput struct {
	Email string
	Name  string
	Phone string
}

// SessionService is the session lifecycle surface the front doors use.
type SessionService interface {
	Login(ctx context.Context, in LoginInput) (*domain.Identity, error)
	Logout(ctx context.Context)
	Register(ctx context.Context, in RegistrationInput) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, in ProfileInput) (*domain.Identity, error)
	ChangePassword(ctx context.Context, current, next string) (string, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) (string, error)
	ClearError()
	Restore(ctx context.Context)
	State() domain.SessionState
}

// LoanService is the loan surface the gateway uses.
type LoanService interface {
	Submit(ctx context.Context, req domain.LoanApplicationRequest) (*domain.LoanApplication, error)
	Applications(ctx context.Context, filter ApplicationFilter) ([]domain.LoanApplication, error)
	Notifications(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}
