// Package state holds the session state store: a closed set of actions, a
// pure transition function and a subscribable store around it.
package state

import "github.com/loanportal/portal-client/internal/core/domain"

// Action is one of Start, Success, Failure, Logout, ClearError or SetLoading.
// The set is closed; Reduce panics on anything else.
type Action interface {
	action()
}

// Start marks an action as in flight and clears the previous error.
type Start struct{}

// Success installs a freshly authenticated or updated identity.
type Success struct {
	Identity domain.Identity
}

// Failure drops the identity and records the surfaced message.
type Failure struct {
	Message string
}

type Logout struct{}

type ClearError struct{}

type SetLoading struct {
	Loading bool
}

func (Start) action()      {}
func (Success) action()    {}
func (Failure) action()    {}
func (Logout) action()     {}
func (ClearError) action() {}
func (SetLoading) action() {}
