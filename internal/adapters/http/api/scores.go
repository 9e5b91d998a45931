package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/okian/courtside/internal/domain/model"
)

// ScoresHandler handles referee vote submissions.
type ScoresHandler struct {
	deps Dependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps Dependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreRequest struct {
	SubmissionID string `json:"submissionId"`
	Referee      string `json:"referee"`
	Court        string `json:"court"`
	Player       string `json:"player"`
	Points       int    `json:"points"`
}

func (s scoreRequest) validate() error {
	if strings.TrimSpace(s.Referee) == "" {
		return errors.New("missing referee")
	}
	return nil
}

// submission converts the request. An unrecognized player is passed through
// so the service reports it after the court and referee checks.
func (s scoreRequest) submission(courtID string) model.Submission {
	p, err := model.ParsePlayer(s.Player)
	if err != nil {
		p = model.Player(s.Player)
	}
	return model.Submission{
		SubmissionID: s.SubmissionID,
		CourtID:      courtID,
		Referee:      s.Referee,
		Player:       p,
		Points:       s.Points,
	}
}

type scoreResponse struct {
	model.Snapshot
	Duplicate bool `json:"duplicate"`
}

// HandleSubmit handles POST /api/courts/{courtId}/scores requests.
func (h *ScoresHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.submit_score", r.PathValue("courtId"))
}

// HandleLegacySubmit handles POST /api/refereeScore requests, which carry
// the court in the body.
func (h *ScoresHandler) HandleLegacySubmit(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "api.referee_score", "")
}

func (h *ScoresHandler) submit(w http.ResponseWriter, r *http.Request, op, courtID string) {
	var req scoreRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if courtID == "" {
		courtID = req.Court
	}
	if strings.TrimSpace(courtID) == "" {
		writeError(w, WrapKind(op, ErrBadRequest, errors.New("missing court")))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}

	snap, err := h.deps.SubmitScore(r.Context(), req.submission(courtID))
	switch {
	case errors.Is(err, model.ErrDuplicateSubmission):
		writeJSON(w, http.StatusOK, scoreResponse{Snapshot: snap, Duplicate: true})
	case err != nil:
		writeError(w, Wrap(op, err))
	default:
		writeJSON(w, http.StatusOK, scoreResponse{Snapshot: snap})
	}
}
