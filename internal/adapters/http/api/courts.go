package api

import (
	"errors"
	"net/http"
	"strings"
)

// CourtsHandler handles court creation, lookup and admission.
type CourtsHandler struct {
	deps Dependencies
}

// NewCourtsHandler creates a new courts handler.
func NewCourtsHandler(deps Dependencies) *CourtsHandler {
	return &CourtsHandler{deps: deps}
}

type createCourtRequest struct {
	CourtID  string   `json:"courtId"`
	Secret   string   `json:"secret"`
	Referees []string `json:"referees"`
}

func (c createCourtRequest) validate() error {
	switch {
	case strings.TrimSpace(c.CourtID) == "":
		return errors.New("missing courtId")
	case len(c.Referees) == 0:
		return errors.New("missing referees")
	}
	return nil
}

type joinRefereeRequest struct {
	Referee string `json:"referee"`
	Secret  string `json:"secret"`
}

// HandleCreate handles POST /api/courts requests.
func (h *CourtsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_court"
	var req createCourtRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	created, err := h.deps.CreateCourt(r.Context(), req.CourtID, req.Secret, req.Referees)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleList handles GET /api/courts requests.
func (h *CourtsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.ListCourts(r.Context()))
}

// HandleGet handles GET /api/courts/{courtId} requests.
func (h *CourtsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_court"
	view, err := h.deps.GetCourt(r.Context(), r.PathValue("courtId"))
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleJoinReferee handles POST /api/courts/{courtId}/referees requests.
// HTTP callers cannot receive pushes, so no subscription is made.
func (h *CourtsHandler) HandleJoinReferee(w http.ResponseWriter, r *http.Request) {
	const op = "api.join_referee"
	var req joinRefereeRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Referee) == "" {
		writeError(w, NewKind(op, ErrBadRequest))
		return
	}
	binding, _, err := h.deps.JoinAsReferee(r.Context(), req.Referee, r.PathValue("courtId"), req.Secret, nil)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, binding)
}

// HandleScoreboard handles GET /api/courts/{courtId}/scoreboard requests.
func (h *CourtsHandler) HandleScoreboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.scoreboard"
	snap, _, err := h.deps.JoinAsViewer(r.Context(), r.PathValue("courtId"), nil)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
