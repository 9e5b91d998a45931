package simulator

import (
	"sort"

	"github.com/okian/courtside/internal/domain/decision"
	"github.com/okian/courtside/internal/domain/model"
)

// Replayed is the state rebuilt from a court's ledger.
type Replayed struct {
	TotalScore model.Tally
	Decisions  int
	Ambiguous  int
	Events     int
	// Decided is the competitor whose decision is held at the end.
	Decided *model.Player
}

type ledgerEntry struct {
	referee string
	event   model.ScoreEvent
}

// Replay feeds every ledger event through the decision engine in seq order,
// the order the server applied them under the court lock.
func Replay(scores map[string][]model.ScoreEvent) Replayed {
	var entries []ledgerEntry
	for ref, events := range scores {
		for _, ev := range events {
			entries = append(entries, ledgerEntry{referee: ref, event: ev})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].event.Seq < entries[j].event.Seq
	})

	engine := decision.NewMajority()
	var round decision.Round
	latest := make(map[string]model.ScoreEvent)
	out := Replayed{Events: len(entries)}

	for _, e := range entries {
		latest[e.referee] = e.event
		res := engine.Recompute(latest, &round)
		if res.Winner != nil {
			out.TotalScore.Inc(*res.Winner)
			out.Decisions++
		}
		if res.Ambiguous {
			out.Ambiguous++
		}
	}
	if p, ok := round.Decided(); ok {
		out.Decided = &p
	}
	return out
}
