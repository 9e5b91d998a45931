package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/courtside/pkg/logger"
)

// Run executes one simulation against the configured server and writes the
// report to w. A report is returned whenever the court view was fetched,
// including when it does not match the replay.
func Run(ctx context.Context, cfg *Config, w io.Writer) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get().Named("court-sim")
	stats := Stats{StartTime: time.Now()}
	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting court simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("referees", cfg.Referees),
		logger.Int("votes", cfg.Votes),
		logger.Any("seed", cfg.Seed),
		logger.Duration("timeout", cfg.Timeout))

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Create the court and admit the panel
	courtID := "sim-" + uuid.NewString()
	referees := RefereeIDs(cfg.Referees)
	created, err := client.CreateCourt(ctx, courtID, "", referees)
	if err != nil {
		return nil, fmt.Errorf("court creation failed: %w", err)
	}
	for _, ref := range referees {
		if err := client.JoinReferee(ctx, courtID, ref, created.Secret); err != nil {
			return nil, fmt.Errorf("referee %s failed to join: %w", ref, err)
		}
	}
	log.Info(ctx, "court ready", logger.String("court", courtID))

	// Step 3: Submit votes concurrently
	plan := Plan(referees, cfg.Votes, cfg.Seed)
	stats.VotesPlanned = cfg.Votes * len(referees)
	submitVotes(ctx, log, client, courtID, plan, cfg.Verbose, &stats)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("submission interrupted: %w", err)
	}

	// Step 4: Fetch the court and replay its ledger
	view, err := client.Court(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("court retrieval failed: %w", err)
	}
	replayed := Replay(view.Scores)

	stats.LedgerEvents = replayed.Events
	stats.ReplayDecisions = replayed.Decisions
	stats.Ambiguous = replayed.Ambiguous
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	report := &Report{CourtID: courtID, Server: view, Replay: replayed, Stats: stats}
	if err := Render(w, report); err != nil {
		log.Warn(ctx, "failed to render report", logger.Error(err))
	}

	if !report.Match() {
		log.Error(ctx, "verification failed", logger.String("court", courtID))
		return report, fmt.Errorf("%w: court %s", ErrMismatch, courtID)
	}
	log.Info(ctx, "simulation completed successfully", logger.Duration("duration", stats.Duration))
	return report, nil
}

// submitVotes runs one worker per referee so each referee's votes reach the
// server in order while referees race each other.
func submitVotes(ctx context.Context, log logger.Logger, client *HTTPClient, courtID string, plan map[string][]Vote, verbose bool, stats *Stats) {
	var (
		accepted  atomic.Int64
		duplicate atomic.Int64
		failed    atomic.Int64
		wg        sync.WaitGroup
	)

	for ref, votes := range plan {
		wg.Add(1)
		go func(ref string, votes []Vote) {
			defer wg.Done()
			for _, v := range votes {
				if ctx.Err() != nil {
					return
				}
				dup, err := client.Submit(ctx, courtID, v)
				var se *StatusError
				switch {
				case err == nil && dup, errors.As(err, &se) && se.Code == "duplicate_submission":
					duplicate.Add(1)
				case err != nil:
					failed.Add(1)
					log.Warn(ctx, "vote failed", logger.String("referee", ref), logger.Error(err))
					continue
				default:
					accepted.Add(1)
				}
				if verbose {
					log.Debug(ctx, "vote submitted",
						logger.String("referee", ref),
						logger.String("player", string(v.Player)),
						logger.Int("points", v.Points),
						logger.Bool("duplicate", dup))
				}
			}
		}(ref, votes)
	}
	wg.Wait()

	stats.VotesAccepted = int(accepted.Load())
	stats.VotesDuplicate = int(duplicate.Load())
	stats.VotesFailed = int(failed.Load())
}
