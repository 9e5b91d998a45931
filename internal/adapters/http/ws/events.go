package ws

import (
	"encoding/json"

	"github.com/okian/courtside/internal/domain/model"
)

// Inbound event names.
const (
	EventCreateCourt    = "createCourt"
	EventRefereeJoined  = "refereeJoined"
	EventRefereeScore   = "refereeScore"
	EventJoinScoreboard = "joinScoreboard"
)

// Outbound event names.
const (
	EventCourtCreated     = "courtCreated"
	EventJoinSuccess      = "joinSuccess"
	EventJoinError        = "joinError"
	EventUpdateScoreboard = "updateScoreboard"
	EventError            = "error"
)

// Envelope is the frame exchanged in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type createCourtPayload struct {
	CourtID  string   `json:"courtId"`
	OTP      string   `json:"otp"`
	Referees []string `json:"referees"`
}

type refereeJoinedPayload struct {
	Referee string `json:"referee"`
	Court   string `json:"court"`
	OTP     string `json:"otp"`
}

type refereeScorePayload struct {
	Referee      string `json:"referee"`
	Court        string `json:"court"`
	Player       string `json:"player"`
	Points       int    `json:"points"`
	SubmissionID string `json:"submissionId"`
}

func (p refereeScorePayload) submission() model.Submission {
	player, err := model.ParsePlayer(p.Player)
	if err != nil {
		player = model.Player(p.Player)
	}
	return model.Submission{
		SubmissionID: p.SubmissionID,
		CourtID:      p.Court,
		Referee:      p.Referee,
		Player:       player,
		Points:       p.Points,
	}
}

type joinScoreboardPayload struct {
	Court string `json:"court"`
}

type courtCreatedPayload struct {
	CourtID  string   `json:"courtId"`
	Secret   string   `json:"secret"`
	Referees []string `json:"referees"`
}

// ErrorPayload is the data of joinError and error events.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
