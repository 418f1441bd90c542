package remote

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

func (c *Client) SubmitApplication(ctx context.Context, req domain.LoanApplicationRequest, creds domain.Credentials) (*domain.LoanApplication, error) {
	rc := call{
		op:       "submit_application",
		method:   http.MethodPost,
		path:     "/api/loans/apply",
		body:     req,
		creds:    &creds,
		fallback: "Failed to submit loan application",
	}
	body, err := c.do(ctx, rc)
	if err != nil {
		return nil, err
	}
	var dto applicationDTO
	if err := decode(rc.op, body, &dto, rc.fallback); err != nil {
		return nil, err
	}
	app := dto.toDomain()
	return &app, nil
}

func (c *Client) ListApplications(ctx context.Context, filter ports.ApplicationFilter, creds domain.Credentials) ([]domain.LoanApplication, error) {
	q := url.Values{}
	setIf(q, "userId", filter.UserID)
	setIf(q, "status", filter.Status)
	setIf(q, "loanType", filter.LoanType)

	rc := call{
		op:       "list_applications",
		method:   http.MethodGet,
		path:     "/api/loans",
		query:    q,
		creds:    &creds,
		fallback: "Failed to fetch loan applications",
	}
	body, err := c.do(ctx, rc)
	if err != nil {
		return nil, err
	}
	var dtos []applicationDTO
	if err := decode(rc.op, body, &dtos, rc.fallback); err != nil {
		return nil, err
	}
	apps := make([]domain.LoanApplication, 0, len(dtos))
	for _, d := range dtos {
		apps = append(apps, d.toDomain())
	}
	return apps, nil
}

func (c *Client) ListNotifications(ctx context.Context, filter ports.NotificationFilter, creds domain.Credentials) ([]domain.Notification, error) {
	q := url.Values{}
	setIf(q, "userId", filter.UserID)
	setIf(q, "type", filter.Type)
	if filter.Read != nil {
		q.Set("read", strconv.FormatBool(*filter.Read))
	}

	rc := call{
		op:       "list_notifications",
		method:   http.MethodGet,
		path:     "/api/notifications",
		query:    q,
		creds:    &creds,
		fallback: "Failed to fetch notifications",
	}
	body, err := c.do(ctx, rc)
	if err != nil {
		return nil, err
	}
	var dtos []notificationDTO
	if err := decode(rc.op, body, &dtos, rc.fallback); err != nil {
		return nil, err
	}
	notes := make([]domain.Notification, 0, len(dtos))
	for _, d := range dtos {
		notes = append(notes, d.toDomain())
	}
	return notes, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string, creds domain.Credentials) error {
	_, err := c.do(ctx, call{
		op:       "mark_notification_read",
		method:   http.MethodPut,
		path:     "/api/notifications/" + url.PathEscape(id) + "/read",
		body:     struct{}{},
		creds:    &creds,
		fallback: "Failed to mark notification as read",
	})
	return err
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
