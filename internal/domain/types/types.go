// Package types contains read shapes returned by court queries.
package types

import (
	"time"

	"github.com/okian/courtside/internal/domain/model"
)

// CourtView is the full state of a court as exposed to organizers and auditors.
type CourtView struct {
	CourtID      string                        `json:"courtId"`
	Referees     []string                      `json:"referees"`
	Scores       map[string][]model.ScoreEvent `json:"scores"`
	Round        int                           `json:"round"`
	RoundWins    model.Tally                   `json:"roundWins"`
	TotalScore   model.Tally                   `json:"totalScore"`
	LastDecision *model.Player                 `json:"lastDecision"`
	// Decided is the competitor whose decision is currently held for the round.
	Decided     *model.Player `json:"decided"`
	Submissions int64         `json:"submissions"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CourtCreated is returned to the organizer that created a court. It is the
// only shape that carries the secret.
type CourtCreated struct {
	CourtID  string         `json:"courtId"`
	Secret   string         `json:"secret"`
	Referees []string       `json:"referees"`
	Snapshot model.Snapshot `json:"snapshot"`
}
