package session

import (
	"log"
	"time"

	"github.com/codeshare/server/metrics"
)

// DefaultGracePeriod is how long an abandoned session survives before the
// reaper deletes it.
const DefaultGracePeriod = time.Hour

// ParticipantCounter reports the number of live connections currently joined
// to a session.
type ParticipantCounter interface {
	ParticipantCount(sessionID string) int
}

// CounterFunc adapts a plain function to the ParticipantCounter interface.
type CounterFunc func(sessionID string) int

// ParticipantCount implements ParticipantCounter.
func (f CounterFunc) ParticipantCount(sessionID string) int {
	return f(sessionID)
}

// Reaper schedules deferred deletion of abandoned sessions. A scheduled
// deletion carries no cancel handle: it re-checks the live participant count
// at fire time and becomes a no-op if anyone rejoined during the grace
// period. Rescheduling the same session is harmless for the same reason.
type Reaper struct {
	store   *Store
	grace   time.Duration
	counter ParticipantCounter
}

// NewReaper creates a reaper that deletes sessions from store once their
// participant count has stayed at zero for the grace period.
func NewReaper(store *Store, grace time.Duration, counter ParticipantCounter) *Reaper {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &Reaper{
		store:   store,
		grace:   grace,
		counter: counter,
	}
}

// GracePeriod returns the configured grace period.
func (r *Reaper) GracePeriod() time.Duration {
	return r.grace
}

// Schedule arms a one-shot deletion of the session after the grace period.
// The deletion only happens if the session still has zero participants when
// the timer fires.
func (r *Reaper) Schedule(sessionID string) {
	time.AfterFunc(r.grace, func() {
		if r.counter.ParticipantCount(sessionID) > 0 {
			return
		}

		if err := r.store.Delete(sessionID); err == nil {
			metrics.SessionsReaped.Inc()
			log.Printf("Reaped abandoned session %s after %s grace period", sessionID, r.grace)
		}
	})
}
