// Package court implements one live match: its panel, scoring ledger and
// cumulative score, serialized behind a per-court lock.
package court

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/courtside/internal/domain/decision"
	"github.com/okian/courtside/internal/domain/dedupe"
	"github.com/okian/courtside/internal/domain/ledger"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
)

// Default court configuration constants.
const (
	initialRound       = 1
	defaultDedupeSize  = 256
	defaultMaxReferees = 3
)

// Court is the state of one match. All mutations hold mu.
type Court struct {
	mu sync.Mutex

	id        string
	secret    string
	createdAt time.Time

	ledger       *ledger.Ledger
	engine       decision.Engine
	guard        decision.Round
	round        int
	roundWins    model.Tally
	totalScore   model.Tally
	lastDecision *model.Player

	seen dedupe.Deduper
}

// Result describes what a successful submission changed.
type Result struct {
	Event     model.ScoreEvent
	Snapshot  model.Snapshot
	Outcome   decision.Outcome
	Duplicate bool
}

// Option applies a configuration option to a Court.
type Option func(*settings)

type settings struct {
	engine      decision.Engine
	dedupeSize  int
	maxReferees int
	now         func() time.Time
}

// WithEngine overrides the decision engine.
func WithEngine(e decision.Engine) Option {
	return func(s *settings) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithDedupeSize sets how many submission ids the court remembers.
func WithDedupeSize(n int) Option {
	return func(s *settings) {
		s.dedupeSize = n
	}
}

// WithMaxReferees caps the panel size. n <= 0 removes the cap.
func WithMaxReferees(n int) Option {
	return func(s *settings) {
		s.maxReferees = n
	}
}

// WithClock overrides the time source for creation and ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// New validates the definition and returns a court with empty ledgers,
// round 1 and zeroed tallies.
func New(id, secret string, referees []string, opts ...Option) (*Court, error) {
	s := settings{
		engine:      decision.NewMajority(),
		dedupeSize:  defaultDedupeSize,
		maxReferees: defaultMaxReferees,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	if err := validate(id, referees, s.maxReferees); err != nil {
		return nil, err
	}

	return &Court{
		id:        id,
		secret:    secret,
		createdAt: s.now(),
		ledger:    ledger.New(referees, ledger.WithClock(s.now)),
		engine:    s.engine,
		round:     initialRound,
		seen:      dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize)),
	}, nil
}

func validate(id string, referees []string, maxReferees int) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: missing court id", model.ErrInvalidCourt)
	}
	if len(referees) == 0 {
		return fmt.Errorf("%w: court %q has no referees", model.ErrInvalidCourt, id)
	}
	if maxReferees > 0 && len(referees) > maxReferees {
		return fmt.Errorf("%w: court %q has %d referees, at most %d allowed",
			model.ErrInvalidCourt, id, len(referees), maxReferees)
	}
	seen := make(map[string]struct{}, len(referees))
	for _, r := range referees {
		if strings.TrimSpace(r) == "" {
			return fmt.Errorf("%w: blank referee id", model.ErrInvalidCourt)
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("%w: referee %q listed twice", model.ErrInvalidCourt, r)
		}
		seen[r] = struct{}{}
	}
	return nil
}

// ID returns the court identifier.
func (c *Court) ID() string { return c.id }

// Secret returns the admission secret.
func (c *Court) Secret() string { return c.secret }

// Authorize reports whether secret matches the court secret.
func (c *Court) Authorize(secret string) bool {
	return subtle.ConstantTimeCompare([]byte(c.secret), []byte(secret)) == 1
}

// HasReferee reports whether referee sits on the panel.
func (c *Court) HasReferee(referee string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Has(referee)
}

// Submit appends a vote, recomputes the round and calls notify with the new
// snapshot while still holding the court lock, so notifications leave in
// mutation order. notify must not block.
func (c *Court) Submit(ctx context.Context, sub model.Submission, notify func(model.Snapshot)) (Result, error) {
	if !sub.Player.Valid() {
		return Result{}, fmt.Errorf("%w: %q", model.ErrInvalidPlayer, sub.Player)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ledger.Has(sub.Referee) {
		return Result{}, fmt.Errorf("%w: %q on court %q", model.ErrUnknownReferee, sub.Referee, c.id)
	}
	if sub.SubmissionID != "" && c.seen.SeenAndRecord(ctx, sub.SubmissionID) {
		return Result{Snapshot: c.snapshotLocked(nil), Duplicate: true},
			fmt.Errorf("%w: %q", model.ErrDuplicateSubmission, sub.SubmissionID)
	}

	ev, err := c.ledger.Append(sub.Referee, sub.Player, sub.Points)
	if err != nil {
		return Result{}, err
	}

	out := c.engine.Recompute(c.ledger.Latest(), &c.guard)
	if out.Winner != nil {
		c.totalScore.Inc(*out.Winner)
	}
	c.lastDecision = out.Winner

	snap := c.snapshotLocked(out.Winner)
	if notify != nil {
		notify(snap)
	}
	return Result{Event: ev, Snapshot: snap, Outcome: out}, nil
}

// Snapshot returns the current state with lastDecision = nil, the form
// delivered to a newly joined viewer.
func (c *Court) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked(nil)
}

// Attach runs fn with the current viewer snapshot while holding the court
// lock. Subscribing inside fn guarantees no update is published between the
// snapshot and the subscription.
func (c *Court) Attach(fn func(model.Snapshot)) model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshotLocked(nil)
	fn(snap)
	return snap
}

func (c *Court) snapshotLocked(decided *model.Player) model.Snapshot {
	var last *model.Player
	if decided != nil {
		p := *decided
		last = &p
	}
	return model.Snapshot{
		CourtID:      c.id,
		TotalScore:   c.totalScore,
		Round:        c.round,
		RoundWins:    c.roundWins,
		LastDecision: last,
	}
}

// View returns the full read model, ledger included. The secret is omitted.
func (c *Court) View() types.CourtView {
	c.mu.Lock()
	defer c.mu.Unlock()

	var last *model.Player
	if c.lastDecision != nil {
		p := *c.lastDecision
		last = &p
	}
	var held *model.Player
	if p, ok := c.guard.Decided(); ok {
		held = &p
	}
	return types.CourtView{
		CourtID:      c.id,
		Referees:     c.ledger.Referees(),
		Scores:       c.ledger.Export(),
		Round:        c.round,
		RoundWins:    c.roundWins,
		TotalScore:   c.totalScore,
		LastDecision: last,
		Decided:      held,
		Submissions:  c.ledger.Seq(),
		CreatedAt:    c.createdAt,
	}
}
