package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

type stubSessionService struct {
	state domain.SessionState

	loginFn          func(ctx context.Context, in ports.LoginInput) (*domain.Identity, error)
	registerFn       func(ctx context.Context, in ports.RegistrationInput) (*domain.Identity, error)
	updateProfileFn  func(ctx context.Context, in ports.ProfileInput) (*domain.Identity, error)
	changePasswordFn func(ctx context.Context, current, next string) (string, error)
	forgotFn         func(ctx context.Context, email string) (string, error)
	resetFn          func(ctx context.Context, token, newPassword string) (string, error)

	loggedOut    bool
	errorCleared bool
}

func (s *stubSessionService) Login(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
	return s.loginFn(ctx, in)
}

func (s *stubSessionService) Logout(context.Context) {
	s.loggedOut = true
	s.state = domain.SessionState{}
}

func (s *stubSessionService) Register(ctx context.Context, in ports.RegistrationInput) (*domain.Identity, error) {
	return s.registerFn(ctx, in)
}

func (s *stubSessionService) UpdateProfile(ctx context.Context, in ports.ProfileInput) (*domain.Identity, error) {
	return s.updateProfileFn(ctx, in)
}

func (s *stubSessionService) ChangePassword(ctx context.Context, current, next string) (string, error) {
	return s.changePasswordFn(ctx, current, next)
}

func (s *stubSessionService) ForgotPassword(ctx context.Context, email string) (string, error) {
	return s.forgotFn(ctx, email)
}

func (s *stubSessionService) ResetPassword(ctx context.Context, token, newPassword string) (string, error) {
	return s.resetFn(ctx, token, newPassword)
}

func (s *stubSessionService) ClearError() {
	s.errorCleared = true
	s.state.Error = ""
}

func (s *stubSessionService) Restore(context.Context) {}

func (s *stubSessionService) State() domain.SessionState { return s.state }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator("IN")
	return e
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func expectHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func TestSessionHandler_Login_Success(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{}
	stub.loginFn = func(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
		if in.Email != "a@b.com" || in.Password != "pw" || in.ExpectedRole != "customer" {
			t.Fatalf("unexpected input: %+v", in)
		}
		id := &domain.Identity{ID: "1", Email: in.Email, Role: "customer"}
		stub.state = domain.SessionState{Identity: id, IsAuthenticated: true}
		return id, nil
	}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/session/login", `{"email":" a@b.com ","password":"pw","role":"customer"}`), rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["phase"] != "authenticated" || resp["isAuthenticated"] != true {
		t.Fatalf("unexpected session payload: %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["role"] != "customer" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestSessionHandler_Login_ServiceErrorIsReturned(t *testing.T) {
	e := newTestEcho()
	mismatch := &domain.RoleMismatchError{Actual: "customer", Selected: "admin"}
	stub := &stubSessionService{
		loginFn: func(context.Context, ports.LoginInput) (*domain.Identity, error) {
			return nil, mismatch
		},
	}
	h := NewSessionHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/session/login", `{"email":"a@b.com","password":"pw","role":"admin"}`), httptest.NewRecorder())

	if err := h.Login(c); !errors.Is(err, domain.ErrRoleMismatch) {
		t.Fatalf("expected role mismatch, got %v", err)
	}
}

func TestSessionHandler_Login_InvalidPayload(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		loginFn: func(context.Context, ports.LoginInput) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewSessionHandler(stub)

	c := e.NewContext(jsonRequest(http.MethodPost, "/session/login", "not-json"), httptest.NewRecorder())
	expectHTTPError(t, h.Login(c), http.StatusBadRequest)

	c = e.NewContext(jsonRequest(http.MethodPost, "/session/login", `{"email":"nope","password":""}`), httptest.NewRecorder())
	expectHTTPError(t, h.Login(c), http.StatusUnprocessableEntity)
}

func TestSessionHandler_Login_RoleSpellings(t *testing.T) {
	e := newTestEcho()
	var got string
	stub := &stubSessionService{
		loginFn: func(_ context.Context, in ports.LoginInput) (*domain.Identity, error) {
			got = in.ExpectedRole
			return &domain.Identity{ID: "1", Email: in.Email, Role: domain.RoleCustomer}, nil
		},
	}
	h := NewSessionHandler(stub)

	for _, role := range []string{"customer", "Customer", "CUSTOMER", "ROLE_CUSTOMER", "role_officer"} {
		t.Run(role, func(t *testing.T) {
			body := `{"email":"a@b.com","password":"pw","role":"` + role + `"}`
			c := e.NewContext(jsonRequest(http.MethodPost, "/session/login", body), httptest.NewRecorder())
			if err := h.Login(c); err != nil {
				t.Fatalf("login with role %q: %v", role, err)
			}
			if got != role {
				t.Fatalf("expected role %q passed through, got %q", role, got)
			}
		})
	}

	c := e.NewContext(jsonRequest(http.MethodPost, "/session/login", `{"email":"a@b.com","password":"pw","role":"auditor"}`), httptest.NewRecorder())
	expectHTTPError(t, h.Login(c), http.StatusUnprocessableEntity)
}

func TestSessionHandler_Login_DetachedContext(t *testing.T) {
	e := newTestEcho()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubSessionService{
		loginFn: func(ctx context.Context, in ports.LoginInput) (*domain.Identity, error) {
			if ctx.Err() != nil {
				t.Fatalf("client cancellation must not reach the session")
			}
			return &domain.Identity{ID: "1"}, nil
		},
	}
	h := NewSessionHandler(stub)

	req := jsonRequest(http.MethodPost, "/session/login", `{"email":"a@b.com","password":"pw"}`).WithContext(ctx)
	if err := h.Login(e.NewContext(req, httptest.NewRecorder())); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{state: domain.SessionState{Identity: &domain.Identity{ID: "1"}, IsAuthenticated: true}}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	if err := h.Logout(e.NewContext(httptest.NewRequest(http.MethodDelete, "/session", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || !stub.loggedOut {
		t.Fatalf("expected 204 and logout, got %d %v", rec.Code, stub.loggedOut)
	}
}

func TestSessionHandler_Register(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(ctx context.Context, in ports.RegistrationInput) (*domain.Identity, error) {
			if in.FirstName != "Asha" || in.LastName != "Rao" || in.Phone != "+91 98765 43210" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Identity{ID: "7", Email: in.Email, Role: "customer", Name: "Asha Rao"}, nil
		},
	}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"firstName":"Asha","lastName":"Rao","email":"asha@example.com","password":"secret1","phone":"+91 98765 43210"}`
	if err := h.Register(e.NewContext(jsonRequest(http.MethodPost, "/session/register", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.state.IsAuthenticated {
		t.Fatalf("registration must not log in")
	}
}

func TestSessionHandler_Register_InvalidPhone(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		registerFn: func(context.Context, ports.RegistrationInput) (*domain.Identity, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewSessionHandler(stub)

	body := `{"firstName":"Asha","email":"asha@example.com","password":"secret1","phone":"12345"}`
	expectHTTPError(t, h.Register(e.NewContext(jsonRequest(http.MethodPost, "/session/register", body), httptest.NewRecorder())), http.StatusUnprocessableEntity)
}

func TestSessionHandler_UpdateProfile(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		updateProfileFn: func(ctx context.Context, in ports.ProfileInput) (*domain.Identity, error) {
			if in.Name != "New Name" {
				t.Fatalf("name not trimmed: %q", in.Name)
			}
			return &domain.Identity{ID: "1", Email: in.Email, Name: in.Name}, nil
		},
	}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"email":"a@b.com","name":"  New Name  "}`
	if err := h.UpdateProfile(e.NewContext(jsonRequest(http.MethodPut, "/session/profile", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSessionHandler_ChangePassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		changePasswordFn: func(ctx context.Context, current, next string) (string, error) {
			if current != "old" || next != "newpass" {
				t.Fatalf("unexpected args %q %q", current, next)
			}
			return "Password changed successfully", nil
		},
	}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	body := `{"currentPassword":"old","newPassword":"newpass"}`
	if err := h.ChangePassword(e.NewContext(jsonRequest(http.MethodPost, "/session/password", body), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Message != "Password changed successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestSessionHandler_ResetPassword_MissingTokenReachesService(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		resetFn: func(ctx context.Context, token, newPassword string) (string, error) {
			if token != "" {
				t.Fatalf("unexpected token %q", token)
			}
			return "", domain.ErrMissingResetToken
		},
	}
	h := NewSessionHandler(stub)

	body := `{"newPassword":"newpass"}`
	err := h.ResetPassword(e.NewContext(jsonRequest(http.MethodPost, "/session/password/reset", body), httptest.NewRecorder()))
	if !errors.Is(err, domain.ErrMissingResetToken) {
		t.Fatalf("expected ErrMissingResetToken, got %v", err)
	}
}

func TestSessionHandler_ForgotPassword(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{
		forgotFn: func(ctx context.Context, email string) (string, error) {
			return "Reset link sent to " + email, nil
		},
	}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	if err := h.ForgotPassword(e.NewContext(jsonRequest(http.MethodPost, "/session/password/forgot", `{"email":"a@b.com"}`), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Reset link sent to a@b.com") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestSessionHandler_StateAndClearError(t *testing.T) {
	e := newTestEcho()
	stub := &stubSessionService{state: domain.SessionState{Error: "Invalid credentials"}}
	h := NewSessionHandler(stub)

	rec := httptest.NewRecorder()
	if err := h.State(e.NewContext(httptest.NewRequest(http.MethodGet, "/session", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["phase"] != "auth_failed" || resp["error"] != "Invalid credentials" {
		t.Fatalf("unexpected state payload: %+v", resp)
	}

	rec = httptest.NewRecorder()
	if err := h.ClearError(e.NewContext(httptest.NewRequest(http.MethodDelete, "/session/error", nil), rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp = map[string]any{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !stub.errorCleared || resp["phase"] != "anonymous" {
		t.Fatalf("error not cleared: %+v", resp)
	}
}
