package handler

import (
	"time"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Session ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	// Role is the role picked on the login form; empty skips the check.
	Role string `json:"role" validate:"omitempty,role"`
}

type registerRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"     validate:"required,email"`
	Password  string `json:"password"  validate:"required,min=6"`
	Phone     string `json:"phone"     validate:"omitempty,phone"`
}

type profileRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"  validate:"required"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// resetPasswordRequest leaves the token unvalidated so a missing token gets
// the session's own message.
type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type sessionResponse struct {
	Phase           domain.Phase     `json:"phase"`
	User            *domain.Identity `json:"user"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	Loading         bool             `json:"loading"`
	Error           string           `json:"error,omitempty"`
}

func newSessionResponse(s domain.SessionState) sessionResponse {
	return sessionResponse{
		Phase:           s.Phase(),
		User:            s.Identity,
		IsAuthenticated: s.IsAuthenticated,
		Loading:         s.Loading,
		Error:           s.Error,
	}
}

// --- Loans ---

type loanApplicationRequest struct {
	LoanType       string  `json:"loanType"       validate:"required"`
	LoanAmount     float64 `json:"loanAmount"     validate:"required,gt=0"`
	InterestRate   float64 `json:"interestRate"   validate:"gte=0"`
	LoanTermMonths int     `json:"loanTermMonths" validate:"required,gt=0"`
	Purpose        string  `json:"purpose"        validate:"required"`
	Collateral     *string `json:"collateral"`
}

type syncResponse struct {
	Applications  []domain.LoanApplication `json:"applications"`
	Notifications []domain.Notification    `json:"notifications"`
	Changes       []domain.StatusChange    `json:"changes"`
	SyncedAt      *time.Time               `json:"syncedAt,omitempty"`
}
