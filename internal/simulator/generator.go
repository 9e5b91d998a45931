package simulator

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/courtside/internal/domain/model"
)

// RefereeIDs returns the panel names r1..rN.
func RefereeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("r%d", i+1)
	}
	return ids
}

// Plan generates votes per referee. The same seed yields the same players
// and points; submission ids are always fresh.
func Plan(referees []string, votes int, seed uint64) map[string][]Vote {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // simulation only
	plan := make(map[string][]Vote, len(referees))
	for _, ref := range referees {
		vs := make([]Vote, votes)
		for i := range vs {
			vs[i] = Vote{
				SubmissionID: uuid.NewString(),
				Referee:      ref,
				Player:       model.Players[rng.IntN(len(model.Players))],
				Points:       1 + rng.IntN(3),
			}
		}
		plan[ref] = vs
	}
	return plan
}
