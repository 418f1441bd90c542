package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/loanportal/portal-client/internal/api/metrics"
	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/core/ports"
)

// changeRetention is how long a detected status change stays in snapshots.
const changeRetention = 30 * time.Second

// IdentitySource exposes the current identity, used to scope polling.
type IdentitySource interface {
	State() domain.SessionState
}

// SyncSnapshot is the result of the most recent successful sync.
type SyncSnapshot struct {
	Applications  []domain.LoanApplication `json:"applications"`
	Notifications []domain.Notification    `json:"notifications"`
	Changes       []domain.StatusChange    `json:"changes"`
	SyncedAt      time.Time                `json:"syncedAt"`
}

// StatusTracker polls applications and notifications and remembers which
// applications changed status between polls.
type StatusTracker struct {
	loans   ports.LoanService
	session IdentitySource
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.RWMutex
	snapshot SyncSnapshot
	// generation is bumped by Reset; a sync started under an older
	// generation drops its result.
	generation uint64
}

func NewStatusTracker(loans ports.LoanService, session IdentitySource, log zerolog.Logger) *StatusTracker {
	return &StatusTracker{loans: loans, session: session, log: log, now: time.Now}
}

// Sync fetches the current applications and notifications. It is a no-op
// without stored credentials. A Reset that happens while the fetch is in
// flight discards the result.
func (t *StatusTracker) Sync(ctx context.Context) error {
	t.mu.RLock()
	gen := t.generation
	t.mu.RUnlock()

	var userID string
	if id := t.session.State().Identity; id != nil {
		userID = id.ID
		if userID == "" {
			userID = id.Email
		}
	}

	apps, err := t.loans.Applications(ctx, ports.ApplicationFilter{})
	if errors.Is(err, domain.ErrAuthRequired) {
		metrics.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}
	if err != nil {
		return t.fail(err, "applications")
	}

	notes, err := t.loans.Notifications(ctx, ports.NotificationFilter{UserID: userID})
	if err != nil {
		return t.fail(err, "notifications")
	}

	now := t.now()

	t.mu.Lock()
	if t.generation != gen {
		t.mu.Unlock()
		metrics.SyncRunsTotal.WithLabelValues("discarded").Inc()
		t.log.Debug().Msg("session reset during sync, result discarded")
		return nil
	}
	changes := DetectStatusChanges(t.snapshot.Applications, apps, now)
	for _, c := range t.snapshot.Changes {
		if now.Sub(c.DetectedAt) < changeRetention && !containsApplication(changes, c.ApplicationID) {
			changes = append(changes, c)
		}
	}
	t.snapshot = SyncSnapshot{
		Applications:  apps,
		Notifications: notes,
		Changes:       changes,
		SyncedAt:      now,
	}
	t.mu.Unlock()

	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	metrics.UnreadNotifications.Set(float64(unread))
	metrics.SyncRunsTotal.WithLabelValues("success").Inc()

	for _, c := range changes {
		if c.DetectedAt.Equal(now) {
			metrics.StatusChangesTotal.WithLabelValues(c.NewStatus).Inc()
			t.log.Info().
				Str("application_id", c.ApplicationID).
				Str("old_status", c.OldStatus).
				Str("new_status", c.NewStatus).
				Msg("application status changed")
		}
	}
	return nil
}

func (t *StatusTracker) fail(err error, what string) error {
	metrics.SyncRunsTotal.WithLabelValues("failure").Inc()
	if errors.Is(err, domain.ErrUnauthorized) {
		t.log.Warn().Err(err).Str("resource", what).Msg("stored credentials rejected, re-login required")
	} else {
		t.log.Error().Err(err).Str("resource", what).Msg("status sync failed")
	}
	return fmt.Errorf("sync %s: %w", what, err)
}

// Snapshot returns the last successful sync.
func (t *StatusTracker) Snapshot() SyncSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Reset forgets the previous snapshot, e.g. after logout.
func (t *StatusTracker) Reset() {
	t.mu.Lock()
	t.snapshot = SyncSnapshot{}
	t.generation++
	t.mu.Unlock()
}

// DetectStatusChanges compares two polls by application id. Applications
// that are new in next are not reported.
func DetectStatusChanges(prev, next []domain.LoanApplication, at time.Time) []domain.StatusChange {
	old := make(map[string]string, len(prev))
	for _, a := range prev {
		old[a.ID] = a.Status
	}

	var changes []domain.StatusChange
	for _, a := range next {
		status, ok := old[a.ID]
		if !ok || status == a.Status {
			continue
		}
		changes = append(changes, domain.StatusChange{
			ApplicationID: a.ID,
			LoanType:      a.LoanType,
			OldStatus:     status,
			NewStatus:     a.Status,
			DetectedAt:    at,
		})
	}
	return changes
}

func containsApplication(changes []domain.StatusChange, id string) bool {
	for _, c := range changes {
		if c.ApplicationID == id {
			return true
		}
	}
	return false
}
