package domain

// Phase is the lifecycle position of a session, derived from SessionState.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
	PhaseAuthFailed     Phase = "auth_failed"
)

// SessionState is the observable authentication tuple.
// IsAuthenticated is true iff Identity is non-nil; an empty Error means none.
type SessionState struct {
	Identity        *Identity `json:"identity"`
	IsAuthenticated bool      `json:"isAuthenticated"`
	Loading         bool      `json:"loading"`
	Error           string    `json:"error,omitempty"`
}

// Phase maps the tuple onto the session state machine.
func (s SessionState) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseAuthenticating
	case s.Identity != nil:
		return PhaseAuthenticated
	case s.Error != "":
		return PhaseAuthFailed
	default:
		return PhaseAnonymous
	}
}

// Clone returns a copy that shares no memory with s.
func (s SessionState) Clone() SessionState {
	if s.Identity != nil {
		id := *s.Identity
		s.Identity = &id
	}
	return s
}
