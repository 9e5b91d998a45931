// Package decision turns the referees' current votes into round decisions.
package decision

import (
	"github.com/okian/courtside/internal/domain/model"
)

// Threshold is the number of agreeing current votes that decides a round.
// It does not scale with the panel size.
const Threshold = 2

// Round is the per-round decided guard. The zero value is an undecided round.
type Round struct {
	decided bool
	winner  model.Player
}

// Decided reports whether the round holds a consumed decision, and for whom.
func (r Round) Decided() (model.Player, bool) {
	return r.winner, r.decided
}

// Outcome is the result of one recompute.
type Outcome struct {
	// Votes counts the current vote of each referee that has voted.
	Votes model.Tally
	// Winner is set only when this recompute realized a new decision.
	Winner *model.Player
	// Ambiguous is true when both competitors reached the threshold at once.
	Ambiguous bool
	// Released is true when a held decision lost its majority during this recompute.
	Released bool
}

// Engine recomputes a round from the latest vote of each referee.
type Engine interface {
	Recompute(latest map[string]model.ScoreEvent, round *Round) Outcome
}

// Majority decides a round when one competitor holds Threshold current votes.
type Majority struct {
	threshold int
}

// NewMajority creates the fixed two-vote majority engine.
func NewMajority() *Majority {
	return &Majority{threshold: Threshold}
}

// Count tallies current votes by competitor.
func Count(latest map[string]model.ScoreEvent) model.Tally {
	var t model.Tally
	for _, ev := range latest {
		t.Inc(ev.Player)
	}
	return t
}

// Recompute derives the outcome and updates the guard.
//
// A decision for P is consumed once: while P keeps at least the threshold of
// current votes no further decision is produced. The guard is released when
// P drops below the threshold, after which a competitor reaching it again is a
// new decision.
func (m *Majority) Recompute(latest map[string]model.ScoreEvent, round *Round) Outcome {
	out := Outcome{Votes: Count(latest)}

	if round.decided && out.Votes.Get(round.winner) < m.threshold {
		*round = Round{}
		out.Released = true
	}

	var leaders []model.Player
	for _, p := range model.Players {
		if out.Votes.Get(p) >= m.threshold {
			leaders = append(leaders, p)
		}
	}

	switch {
	case len(leaders) > 1:
		out.Ambiguous = true
	case len(leaders) == 1 && !round.decided:
		w := leaders[0]
		*round = Round{decided: true, winner: w}
		out.Winner = &w
	}
	return out
}
