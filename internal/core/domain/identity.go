package domain

import (
	"strings"
	"time"
)

const (
	RoleCustomer = "customer"
	RoleOfficer  = "officer"
	RoleAdmin    = "admin"

	// rolePrefix is the Spring Security authority prefix the backend may
	// prepend to role names.
	rolePrefix = "ROLE_"
)

// Identity is the normalized user record exposed after authentication.
// Values are replaced wholesale, never patched in place.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// Credentials is the Basic-Authentication pair sent with authenticated requests.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"-"`
}

// Complete reports whether both halves of the pair are present.
func (c Credentials) Complete() bool {
	return c.Email != "" && c.Password != ""
}

// NormalizeRole returns the canonical lower-case form of a backend role:
// "CUSTOMER", "ROLE_CUSTOMER" and "role_customer" all become "customer".
func NormalizeRole(role string) string {
	upper := strings.ToUpper(strings.TrimSpace(role))
	return strings.ToLower(strings.TrimPrefix(upper, rolePrefix))
}

// RoleMatches reports whether the role returned by the backend satisfies the
// role selected by the user: the selection is upper-cased and compared against
// both the bare and the ROLE_-prefixed backend value.
func RoleMatches(actual, selected string) bool {
	want := strings.ToUpper(selected)
	got := strings.ToUpper(actual)
	return got == want || got == rolePrefix+want
}
