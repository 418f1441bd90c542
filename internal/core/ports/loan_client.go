package ports

import (
	"context"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// ApplicationFilter narrows ListApplications. Empty fields are not sent.
type ApplicationFilter struct {
	UserID   string
	Status   string
	LoanType string
}

// NotificationFilter narrows ListNotifications. A nil Read is not sent.
type NotificationFilter struct {
	UserID string
	Read   *bool
	Type   string
}

// LoanClient performs the authenticated loan and notification calls.
type LoanClient interface {
	SubmitApplication(ctx context.Context, req domain.LoanApplicationRequest, creds domain.Credentials) (*domain.LoanApplication, error)
	ListApplications(ctx context.Context, filter ApplicationFilter, creds domain.Credentials) ([]domain.LoanApplication, error)
	ListNotifications(ctx context.Context, filter NotificationFilter, creds domain.Credentials) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, id string, creds domain.Credentials) error
}
