package model

import "time"

// ScoreEvent is one referee click. Its position in the referee's sequence
// encodes recency; Seq orders it against every other event on the court.
type ScoreEvent struct {
	Player Player    `json:"player"`
	Points int       `json:"points"`
	Seq    int64     `json:"seq"`
	At     time.Time `json:"at"`
}

// Submission is a vote as received from either ingestion transport.
type Submission struct {
	SubmissionID string // optional; replays of an accepted id are ignored
	CourtID      string
	Referee      string
	Player       Player
	Points       int
}

// Snapshot is the externally visible state of a court, used for both initial
// sync and push updates. A nil LastDecision means no new decision.
type Snapshot struct {
	CourtID      string  `json:"courtId"`
	TotalScore   Tally   `json:"totalScore"`
	Round        int     `json:"round"`
	RoundWins    Tally   `json:"roundWins"`
	LastDecision *Player `json:"lastDecision"`
}

// Binding identifies an admitted referee on a court.
type Binding struct {
	Referee string `json:"referee"`
	Court   string `json:"court"`
}
