package simulator

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"

	"github.com/okian/courtside/internal/domain/model"
)

// Render writes the comparison table and verdict.
func Render(w io.Writer, r *Report) error {
	table, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData{
		{"", "server", "replay"},
		{"competitorA", strconv.Itoa(r.Server.TotalScore.Get(model.CompetitorA)), strconv.Itoa(r.Replay.TotalScore.Get(model.CompetitorA))},
		{"competitorB", strconv.Itoa(r.Server.TotalScore.Get(model.CompetitorB)), strconv.Itoa(r.Replay.TotalScore.Get(model.CompetitorB))},
		{"ledger events", strconv.FormatInt(r.Server.Submissions, 10), strconv.Itoa(r.Replay.Events)},
		{"held decision", playerName(r.Server.Decided), playerName(r.Replay.Decided)},
	}).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}

	s := r.Stats
	summary := pterm.Sprintf("court %s: %d planned, %d accepted, %d duplicate, %d failed, %d ambiguous recomputes in %s",
		r.CourtID, s.VotesPlanned, s.VotesAccepted, s.VotesDuplicate, s.VotesFailed, s.Ambiguous, s.Duration.Round(time.Millisecond))

	verdict := pterm.Success.Sprintf("server total matches replay")
	if !r.Match() {
		verdict = pterm.Error.Sprintf("server total %+v, replay %+v", r.Server.TotalScore, r.Replay.TotalScore)
	}

	_, err = fmt.Fprintf(w, "%s\n%s\n%s\n", table, summary, verdict)
	return err
}

func playerName(p *model.Player) string {
	if p == nil {
		return "-"
	}
	return string(*p)
}
