package remote

import (
	"context"
	"net/http"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

func (c *Client) Register(ctx context.Context, req ports.RegisterRequest) (*ports.IdentityPayload, error) {
	return c.identityCall(ctx, call{
		op:       "register",
		method:   http.MethodPost,
		path:     "/api/auth/register",
		body:     req,
		fallback: "Registration failed",
	})
}

// FetchIdentity returns the account behind creds ("me").
func (c *Client) FetchIdentity(ctx context.Context, creds domain.Credentials) (*ports.IdentityPayload, error) {
	return c.identityCall(ctx, call{
		op:       "me",
		method:   http.MethodGet,
		path:     "/api/auth/me",
		creds:    &creds,
		fallback: "Unauthorized",
	})
}

func (c *Client) UpdateProfile(ctx context.Context, req ports.ProfileRequest, creds domain.Credentials) (*ports.IdentityPayload, error) {
	return c.identityCall(ctx, call{
		op:       "update_profile",
		method:   http.MethodPut,
		path:     "/api/auth/profile",
		body:     req,
		creds:    &creds,
		fallback: "Failed to update profile",
	})
}

func (c *Client) ChangePassword(ctx context.Context, req ports.PasswordChangeRequest, creds domain.Credentials) (string, error) {
	return c.textCall(ctx, call{
		op:       "change_password",
		method:   http.MethodPost,
		path:     "/api/auth/change-password",
		body:     req,
		creds:    &creds,
		fallback: "Failed to change password",
	})
}

func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	return c.textCall(ctx, call{
		op:       "forgot_password",
		method:   http.MethodPost,
		path:     "/api/auth/forgot-password",
		body:     map[string]string{"email": email},
		fallback: "Failed to send reset link",
	})
}

func (c *Client) ResetPassword(ctx context.Context, req ports.ResetPasswordRequest) (string, error) {
	return c.textCall(ctx, call{
		op:       "reset_password",
		method:   http.MethodPost,
		path:     "/api/auth/reset-password",
		body:     req,
		fallback: "Failed to reset password",
	})
}

func (c *Client) identityCall(ctx context.Context, rc call) (*ports.IdentityPayload, error) {
	body, err := c.do(ctx, rc)
	if err != nil {
		return nil, err
	}
	var dto identityDTO
	if err := decode(rc.op, body, &dto, rc.fallback); err != nil {
		return nil, err
	}
	return dto.toPayload(), nil
}

func (c *Client) textCall(ctx context.Context, rc call) (string, error) {
	body, err := c.do(ctx, rc)
	if err != nil {
		return "", err
	}
	return text(body), nil
}
