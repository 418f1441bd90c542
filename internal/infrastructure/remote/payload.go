package remote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

// backendLayouts are tried in order; the backend serializes LocalDateTime
// without a zone.
var backendLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// flexString accepts a JSON string or number. Numeric ids come from the
// backend's Long keys.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexTime accepts the backend timestamp layouts or epoch milliseconds.
// Unparseable values decode to the zero time.
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] != '"' {
		if ms, err := strconv.ParseInt(string(data), 10, 64); err == nil {
			*f = flexTime(time.UnixMilli(ms).UTC())
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range backendLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime(t.UTC())
			return nil
		}
	}
	return nil
}

func (f flexTime) Time() time.Time { return time.Time(f) }

type identityDTO struct {
	ID        flexString `json:"id"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	CreatedAt flexTime   `json:"createdAt"`
}

func (d identityDTO) toPayload() *ports.IdentityPayload {
	return &ports.IdentityPayload{
		ID:        string(d.ID),
		Email:     d.Email,
		Role:      d.Role,
		Name:      d.Name,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt.Time(),
	}
}

type applicationDTO struct {
	ID              flexString `json:"id"`
	UserID          flexString `json:"userId"`
	LoanType        string     `json:"loanType"`
	LoanAmount      float64    `json:"loanAmount"`
	InterestRate    float64    `json:"interestRate"`
	LoanTermMonths  int        `json:"loanTermMonths"`
	MonthlyEMI      float64    `json:"monthlyEmi"`
	TotalAmount     float64    `json:"totalAmount"`
	Status          string     `json:"status"`
	Purpose         string     `json:"purpose"`
	RejectionReason string     `json:"rejectionReason"`
	SubmittedAt     flexTime   `json:"submittedAt"`
	UpdatedAt       flexTime   `json:"updatedAt"`
}

func (d applicationDTO) toDomain() domain.LoanApplication {
	return domain.LoanApplication{
		ID:              string(d.ID),
		UserID:          string(d.UserID),
		LoanType:        d.LoanType,
		LoanAmount:      d.LoanAmount,
		InterestRate:    d.InterestRate,
		LoanTermMonths:  d.LoanTermMonths,
		MonthlyEMI:      d.MonthlyEMI,
		TotalAmount:     d.TotalAmount,
		Status:          d.Status,
		Purpose:         d.Purpose,
		RejectionReason: d.RejectionReason,
		SubmittedAt:     d.SubmittedAt.Time(),
		UpdatedAt:       d.UpdatedAt.Time(),
	}
}

type notificationDTO struct {
	ID        flexString `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	CreatedAt flexTime   `json:"createdAt"`
}

func (d notificationDTO) toDomain() domain.Notification {
	return domain.Notification{
		ID:        string(d.ID),
		Type:      d.Type,
		Title:     d.Title,
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt.Time(),
	}
}
