// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/courtside/internal/adapters/mq/broadcast"
	"github.com/okian/courtside/internal/adapters/mq/worker"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/domain/types"
)

// maxBodyBytes bounds request bodies on every JSON route.
const maxBodyBytes = 64 << 10

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	CreateCourt(ctx context.Context, courtID, secret string, referees []string) (types.CourtCreated, error)
	JoinAsReferee(ctx context.Context, referee, courtID, secret string, sink worker.Sink) (model.Binding, *broadcast.Subscription, error)
	JoinAsViewer(ctx context.Context, courtID string, sink worker.Sink) (model.Snapshot, *broadcast.Subscription, error)
	SubmitScore(ctx context.Context, sub model.Submission) (model.Snapshot, error)
	GetCourt(ctx context.Context, courtID string) (types.CourtView, error)
	ListCourts(ctx context.Context) []types.CourtView
}

// Server wires HTTP routes for the scoreboard API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	courtsHandler *CourtsHandler
	scoresHandler *ScoresHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		courtsHandler: NewCourtsHandler(deps),
		scoresHandler: NewScoresHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /api/test", MetricsMiddleware(s.healthHandler.HandlePing, "test"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /api/courts", MetricsMiddleware(s.courtsHandler.HandleCreate, "courts_create"))
	mux.HandleFunc("GET /api/courts", MetricsMiddleware(s.courtsHandler.HandleList, "courts_list"))
	mux.HandleFunc("GET /api/courts/{courtId}", MetricsMiddleware(s.courtsHandler.HandleGet, "courts_get"))
	mux.HandleFunc("POST /api/courts/{courtId}/referees", MetricsMiddleware(s.courtsHandler.HandleJoinReferee, "referees_join"))
	mux.HandleFunc("GET /api/courts/{courtId}/scoreboard", MetricsMiddleware(s.courtsHandler.HandleScoreboard, "scoreboard"))

	mux.HandleFunc("POST /api/courts/{courtId}/scores", MetricsMiddleware(s.scoresHandler.HandleSubmit, "scores_submit"))
	mux.HandleFunc("POST /api/refereeScore", MetricsMiddleware(s.scoresHandler.HandleLegacySubmit, "referee_score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and code and writes the error body.
func writeError(w http.ResponseWriter, err error) {
	status, code := Classify(err)
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
