package simulator_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/courtside/internal/adapters/http/api"
	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/internal/simulator"
	"github.com/okian/courtside/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer() (*httptest.Server, *service.Service) {
	svc := service.New()
	_ = svc.Start(context.Background())
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux), svc
}

func config(url string) *simulator.Config {
	return &simulator.Config{
		BaseURL:  url,
		Referees: 3,
		Votes:    20,
		Seed:     42,
		Timeout:  5 * time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	Convey("Given simulator configs", t, func() {
		So(config("http://x").Validate(), ShouldBeNil)

		cases := []struct {
			name   string
			mutate func(*simulator.Config)
		}{
			{"empty url", func(c *simulator.Config) { c.BaseURL = " " }},
			{"no referees", func(c *simulator.Config) { c.Referees = 0 }},
			{"negative votes", func(c *simulator.Config) { c.Votes = -1 }},
			{"zero timeout", func(c *simulator.Config) { c.Timeout = 0 }},
		}
		for _, tc := range cases {
			c := config("http://x")
			tc.mutate(c)
			Convey("Then "+tc.name+" is rejected", func() {
				So(errors.Is(c.Validate(), simulator.ErrInvalidConfig), ShouldBeTrue)
			})
		}
	})
}

func TestPlan(t *testing.T) {
	Convey("Given a three referee panel", t, func() {
		refs := simulator.RefereeIDs(3)
		So(refs, ShouldResemble, []string{"r1", "r2", "r3"})

		a := simulator.Plan(refs, 10, 7)
		b := simulator.Plan(refs, 10, 7)

		Convey("Then every referee gets its votes", func() {
			So(len(a), ShouldEqual, 3)
			for _, ref := range refs {
				So(len(a[ref]), ShouldEqual, 10)
			}
		})

		Convey("Then the same seed yields the same votes with fresh ids", func() {
			for _, ref := range refs {
				for i := range a[ref] {
					So(a[ref][i].Player, ShouldEqual, b[ref][i].Player)
					So(a[ref][i].Points, ShouldEqual, b[ref][i].Points)
					So(a[ref][i].Player.Valid(), ShouldBeTrue)
					So(a[ref][i].SubmissionID, ShouldNotEqual, b[ref][i].SubmissionID)
				}
			}
		})
	})
}

func TestReplay(t *testing.T) {
	Convey("Given a ledger where A is decided and then B takes over", t, func() {
		ev := func(p model.Player, seq int64) model.ScoreEvent {
			return model.ScoreEvent{Player: p, Points: 1, Seq: seq}
		}
		scores := map[string][]model.ScoreEvent{
			"r1": {ev(model.CompetitorA, 1), ev(model.CompetitorB, 4)},
			"r2": {ev(model.CompetitorA, 2), ev(model.CompetitorB, 5)},
			"r3": {ev(model.CompetitorA, 3)},
		}

		out := simulator.Replay(scores)

		Convey("Then both decisions are counted once in seq order", func() {
			So(out.Events, ShouldEqual, 5)
			So(out.Decisions, ShouldEqual, 2)
			So(out.TotalScore, ShouldResemble, model.Tally{CompetitorA: 1, CompetitorB: 1})
			So(out.Decided, ShouldNotBeNil)
			So(*out.Decided, ShouldEqual, model.CompetitorB)
		})
	})

	Convey("Given an empty ledger", t, func() {
		out := simulator.Replay(nil)
		So(out.Events, ShouldEqual, 0)
		So(out.TotalScore, ShouldResemble, model.Tally{})
		So(out.Decided, ShouldBeNil)
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running scoreboard server", t, func() {
		srv, svc := newServer()
		defer srv.Close()
		defer svc.Stop()

		Convey("When the simulation runs", func() {
			var out bytes.Buffer
			report, err := simulator.Run(context.Background(), config(srv.URL), &out)

			Convey("Then the server total matches the replay", func() {
				So(err, ShouldBeNil)
				So(report.Match(), ShouldBeTrue)
				So(report.Stats.VotesPlanned, ShouldEqual, 60)
				So(report.Stats.VotesAccepted, ShouldEqual, 60)
				So(report.Stats.VotesFailed, ShouldEqual, 0)
				So(report.Stats.LedgerEvents, ShouldEqual, 60)
				So(report.Server.Submissions, ShouldEqual, 60)
				So(out.String(), ShouldContainSubstring, "server total matches replay")
				So(out.String(), ShouldContainSubstring, report.CourtID)
			})

			Convey("Then the court is left on the server", func() {
				view, err := svc.GetCourt(context.Background(), report.CourtID)
				So(err, ShouldBeNil)
				So(view.TotalScore, ShouldResemble, report.Replay.TotalScore)
			})
		})

		Convey("When the config is invalid", func() {
			c := config(srv.URL)
			c.Referees = 0
			report, err := simulator.Run(context.Background(), c, &bytes.Buffer{})
			So(report, ShouldBeNil)
			So(errors.Is(err, simulator.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the panel is larger than the server allows", func() {
			c := config(srv.URL)
			c.Referees = 9
			_, err := simulator.Run(context.Background(), c, &bytes.Buffer{})

			Convey("Then court creation fails with the server's code", func() {
				var se *simulator.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Status, ShouldEqual, http.StatusBadRequest)
				So(se.Code, ShouldEqual, "invalid_court")
			})
		})
	})

	Convey("Given no server", t, func() {
		srv, svc := newServer()
		url := srv.URL
		srv.Close()
		svc.Stop()

		_, err := simulator.Run(context.Background(), config(url), &bytes.Buffer{})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}

func TestRender(t *testing.T) {
	Convey("Given a report that disagrees with its replay", t, func() {
		r := &simulator.Report{CourtID: "C9"}
		r.Server.TotalScore = model.Tally{CompetitorA: 2}
		r.Replay.TotalScore = model.Tally{CompetitorA: 1}

		var out bytes.Buffer
		So(simulator.Render(&out, r), ShouldBeNil)

		So(r.Match(), ShouldBeFalse)
		So(out.String(), ShouldContainSubstring, "competitorA")
		So(out.String(), ShouldContainSubstring, "C9")
		So(out.String(), ShouldNotContainSubstring, "matches replay")
	})
}
