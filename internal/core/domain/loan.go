package domain

import "time"

// Application statuses reported by the backend. Older deployments still emit
// the lower-case maker/checker values.
const (
	LoanStatusPending     = "PENDING"
	LoanStatusUnderReview = "UNDER_REVIEW"
	LoanStatusApproved    = "APPROVED"
	LoanStatusRejected    = "REJECTED"

	LoanStatusSubmitted          = "submitted"
	LoanStatusUnderMakerReview   = "under_maker_review"
	LoanStatusMakerApproved      = "maker_approved"
	LoanStatusMakerRejected      = "maker_rejected"
	LoanStatusUnderCheckerReview = "under_checker_review"
	LoanStatusFinalApproved      = "final_approved"
	LoanStatusFinalRejected      = "final_rejected"
)

// DefaultInterestRate is sent when the applicant leaves the rate empty.
const DefaultInterestRate = 8.5

// LoanApplicationRequest is what a customer submits.
type LoanApplicationRequest struct {
	LoanType       string  `json:"loanType"`
	LoanAmount     float64 `json:"loanAmount"`
	InterestRate   float64 `json:"interestRate"`
	LoanTermMonths int     `json:"loanTermMonths"`
	Purpose        string  `json:"purpose"`
	Collateral     *string `json:"collateral"`
}

// LoanApplication is a submitted application as reported by the backend.
type LoanApplication struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId,omitempty"`
	LoanType        string    `json:"loanType"`
	LoanAmount      float64   `json:"loanAmount"`
	InterestRate    float64   `json:"interestRate"`
	LoanTermMonths  int       `json:"loanTermMonths"`
	MonthlyEMI      float64   `json:"monthlyEmi,omitempty"`
	TotalAmount     float64   `json:"totalAmount,omitempty"`
	Status          string    `json:"status"`
	Purpose         string    `json:"purpose,omitempty"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt,omitempty"`
}

// Notification is a message addressed to the user by the backend.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type,omitempty"`
	Title     string    `json:"title,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// StatusChange records an application whose status moved between two polls.
type StatusChange struct {
	ApplicationID string    `json:"applicationId"`
	LoanType      string    `json:"loanType"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
	DetectedAt    time.Time `json:"detectedAt"`
}
