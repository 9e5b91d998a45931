// Package ledger holds the per-referee, append-only scoring record of one court.
//
// A Ledger is not safe for concurrent use; the owning court serializes access.
package ledger

import (
	"fmt"
	"time"

	"github.com/okian/courtside/internal/domain/model"
)

// Ledger maps each panel referee to the ordered sequence of events they submitted.
type Ledger struct {
	referees []string
	entries  map[string][]model.ScoreEvent
	seq      int64
	now      func() time.Time
}

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithClock overrides the timestamp source used for appended events.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a ledger with one empty sequence per referee.
func New(referees []string, opts ...Option) *Ledger {
	l := &Ledger{
		referees: append([]string(nil), referees...),
		entries:  make(map[string][]model.ScoreEvent, len(referees)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, r := range referees {
		l.entries[r] = []model.ScoreEvent{}
	}
	return l
}

// Has reports whether referee is on the panel.
func (l *Ledger) Has(referee string) bool {
	_, ok := l.entries[referee]
	return ok
}

// Append records an event for referee and returns it with Seq and At filled in.
func (l *Ledger) Append(referee string, player model.Player, points int) (model.ScoreEvent, error) {
	seq, ok := l.entries[referee]
	if !ok {
		return model.ScoreEvent{}, fmt.Errorf("%w: %q", model.ErrUnknownReferee, referee)
	}
	l.seq++
	ev := model.ScoreEvent{Player: player, Points: points, Seq: l.seq, At: l.now()}
	l.entries[referee] = append(seq, ev)
	return ev, nil
}

// Latest returns the most recent event of every referee that has voted.
// Referees with an empty sequence are absent from the result.
func (l *Ledger) Latest() map[string]model.ScoreEvent {
	out := make(map[string]model.ScoreEvent, len(l.entries))
	for ref, seq := range l.entries {
		if n := len(seq); n > 0 {
			out[ref] = seq[n-1]
		}
	}
	return out
}

// History returns a copy of referee's full sequence.
func (l *Ledger) History(referee string) []model.ScoreEvent {
	return append([]model.ScoreEvent{}, l.entries[referee]...)
}

// Referees returns the panel in creation order.
func (l *Ledger) Referees() []string {
	return append([]string(nil), l.referees...)
}

// Len returns the number of events referee has submitted.
func (l *Ledger) Len(referee string) int {
	return len(l.entries[referee])
}

// Seq returns the number of events appended across all referees.
func (l *Ledger) Seq() int64 {
	return l.seq
}

// Export returns a copy of every sequence keyed by referee.
func (l *Ledger) Export() map[string][]model.ScoreEvent {
	out := make(map[string][]model.ScoreEvent, len(l.entries))
	for ref := range l.entries {
		out[ref] = l.History(ref)
	}
	return out
}
