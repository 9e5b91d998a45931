// Package simulator drives a running scoreboard server with a panel of
// simulated referees and checks its arithmetic against a local replay.
package simulator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
)

// Defaults used by the court-sim binary.
const (
	DefaultBaseURL  = "http://localhost:9080"
	DefaultReferees = 3
	DefaultVotes    = 200
	DefaultTimeout  = 30 * time.Second
)

// ErrInvalidConfig is returned when a Config cannot be run.
var ErrInvalidConfig = errors.New("invalid simulator config")

// ErrMismatch is returned when the server total differs from the replay.
var ErrMismatch = errors.New("server total does not match replay")

// Config holds configuration for one simulation run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Referees int           // Panel size
	Votes    int           // Votes per referee
	Seed     uint64        // Seed for vote generation
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every vote
}

// Validate reports the first unusable field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: url must not be empty", ErrInvalidConfig)
	case c.Referees <= 0:
		return fmt.Errorf("%w: referees must be positive", ErrInvalidConfig)
	case c.Votes < 0:
		return fmt.Errorf("%w: votes must not be negative", ErrInvalidConfig)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// Vote is one planned referee submission.
type Vote struct {
	SubmissionID string       `json:"submissionId"`
	Referee      string       `json:"referee"`
	Player       model.Player `json:"player"`
	Points       int          `json:"points"`
}

// Stats holds run statistics.
type Stats struct {
	VotesPlanned    int
	VotesAccepted   int
	VotesDuplicate  int
	VotesFailed     int
	LedgerEvents    int
	ReplayDecisions int
	Ambiguous       int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}

// Report is the outcome of a run.
type Report struct {
	CourtID string
	Server  types.CourtView
	Replay  Replayed
	Stats   Stats
}

// Match reports whether the server agrees with the replay.
func (r *Report) Match() bool {
	return r.Server.TotalScore == r.Replay.TotalScore
}
