package state

import (
	"fmt"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// Initial is the state before startup restoration has run.
func Initial() domain.SessionState {
	return domain.SessionState{Loading: true}
}

// Reduce returns the state that follows s after a. It has no side effects.
func Reduce(s domain.SessionState, a Action) domain.SessionState {
	switch act := a.(type) {
	case Start:
		s.Loading = true
		s.Error = ""
	case Success:
		id := act.Identity
		s.Identity = &id
		s.IsAuthenticated = true
		s.Loading = false
		s.Error = ""
	case Failure:
		s.Identity = nil
		s.IsAuthenticated = false
		s.Loading = false
		s.Error = act.Message
	case Logout:
		s.Identity = nil
		s.IsAuthenticated = false
		s.Loading = false
		s.Error = ""
	case ClearError:
		s.Error = ""
	case SetLoading:
		s.Loading = act.Loading
	default:
		panic(fmt.Sprintf("state: unknown action %T", a))
	}
	return s
}
