package domain

import (
	"errors"
	"fmt"
)

// Messages are surfaced verbatim to the user, hence the sentence case.
var (
	ErrReloginProfile    = errors.New("Please re-login to update profile")
	ErrReloginPassword   = errors.New("Please re-login to change password")
	ErrAuthRequired      = errors.New("Authentication required. Please login again.")
	ErrMissingResetToken = errors.New("Invalid or missing token")
)

var ErrRoleMismatch = errors.New("role mismatch")
var ErrUnauthorized = errors.New("unauthorized")

// RoleMismatchError is returned by login when the backend-assigned role does
// not match the role picked by the user.
type RoleMismatchError struct {
	Actual   string
	Selected string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("Access denied. Your account role is %s, but you selected %s.", e.Actual, e.Selected)
}

func (e *RoleMismatchError) Is(target error) bool {
	return target == ErrRoleMismatch
}
