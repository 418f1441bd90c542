package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

// CredentialSource yields the stored Basic-Authentication pair, or nil when
// there is no active session.
type CredentialSource interface {
	Credentials(ctx context.Context) (*domain.Credentials, error)
}

// LoanService sends loan and notification requests with the session's
// stored credentials.
type LoanService struct {
	client ports.LoanClient
	creds  CredentialSource
	log    zerolog.Logger
}

func NewLoanService(client ports.LoanClient, creds CredentialSource, log zerolog.Logger) *LoanService {
	return &LoanService{client: client, creds: creds, log: log}
}

func (s *LoanService) credentials(ctx context.Context) (domain.Credentials, error) {
	creds, err := s.creds.Credentials(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	if creds == nil {
		return domain.Credentials{}, domain.ErrAuthRequired
	}
	return *creds, nil
}

// Submit sends a new application. A zero interest rate is replaced by
// domain.DefaultInterestRate.
func (s *LoanService) Submit(ctx context.Context, req domain.LoanApplicationRequest) (*domain.LoanApplication, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	if req.InterestRate == 0 {
		req.InterestRate = domain.DefaultInterestRate
	}

	app, err := s.client.SubmitApplication(ctx, req, creds)
	if err != nil {
		s.log.Warn().Str("loan_type", req.LoanType).Str("reason", err.Error()).Msg("loan submission failed")
		return nil, err
	}
	s.log.Info().Str("application_id", app.ID).Str("loan_type", app.LoanType).Msg("loan application submitted")
	return app, nil
}

func (s *LoanService) Applications(ctx context.Context, filter ports.ApplicationFilter) ([]domain.LoanApplication, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListApplications(ctx, filter, creds)
}

func (s *LoanService) Notifications(ctx context.Context, filter ports.NotificationFilter) ([]domain.Notification, error) {
	creds, err := s.credentials(ctx)
	if err != nil {
		return nil, err
	}
	return s.client.ListNotifications(ctx, filter, creds)
}

func (s *LoanService) MarkNotificationRead(ctx context.Context, id string) error {
	creds, err := s.credentials(ctx)
	if err != nil {
		return err
	}
	return s.client.MarkNotificationRead(ctx, id, creds)
}
