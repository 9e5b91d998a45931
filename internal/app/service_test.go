package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/courtside/internal/app"
	"github.com/okian/courtside/internal/domain/model"
	"github.com/okian/courtside/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

type chanSink struct {
	ch chan model.Snapshot
}

func newChanSink() *chanSink { return &chanSink{ch: make(chan model.Snapshot, 32)} }

func (s *chanSink) Send(_ context.Context, snap model.Snapshot) error {
	s.ch <- snap
	return nil
}

func (s *chanSink) next() (model.Snapshot, bool) {
	select {
	case snap := <-s.ch:
		return snap, true
	case <-time.After(time.Second):
		return model.Snapshot{}, false
	}
}

func vote(court, referee string, p model.Player) model.Submission {
	return model.Submission{CourtID: court, Referee: referee, Player: p, Points: 1}
}

func newStartedService(opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(
			service.WithShardCount(2),
			service.WithMaxReferees(5),
			service.WithDedupeSize(16),
			service.WithSubscriberBuffer(8),
		)
		defer svc.Stop()

		Convey("Then it reports its configuration before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(stats["shardCount"], ShouldEqual, 2)
			So(stats["maxReferees"], ShouldEqual, 5)
			So(stats["courts"], ShouldEqual, 0)
		})

		Convey("When it is started twice", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
				So(stats, ShouldContainKey, "uptimeSeconds")
			})

			Convey("And stopping twice is safe", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldBeFalse)
			})
		})
	})
}

func TestService_CreateCourt(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		defer svc.Stop()

		Convey("When a court is created", func() {
			created, err := svc.CreateCourt(ctx, "C1", "7421", []string{"r1", "r2", "r3"})
			So(err, ShouldBeNil)

			Convey("Then it starts at round 1 with zeroed tallies", func() {
				So(created.CourtID, ShouldEqual, "C1")
				So(created.Secret, ShouldEqual, "7421")
				So(created.Referees, ShouldResemble, []string{"r1", "r2", "r3"})
				So(created.Snapshot.Round, ShouldEqual, 1)
				So(created.Snapshot.TotalScore, ShouldResemble, model.Tally{})
				So(created.Snapshot.RoundWins, ShouldResemble, model.Tally{})
				So(created.Snapshot.LastDecision, ShouldBeNil)

				view, err := svc.GetCourt(ctx, "C1")
				So(err, ShouldBeNil)
				So(view.Scores, ShouldHaveLength, 3)
				for _, events := range view.Scores {
					So(events, ShouldBeEmpty)
				}
			})

			Convey("And creating it again fails with ErrDuplicateCourt", func() {
				_, err := svc.CreateCourt(ctx, "C1", "other", []string{"x"})
				So(errors.Is(err, model.ErrDuplicateCourt), ShouldBeTrue)

				view, _ := svc.GetCourt(ctx, "C1")
				So(view.Referees, ShouldResemble, []string{"r1", "r2", "r3"})
			})
		})

		Convey("When no secret is supplied", func() {
			created, err := svc.CreateCourt(ctx, "C2", "  ", []string{"r1", "r2"})
			So(err, ShouldBeNil)

			Convey("Then one is generated", func() {
				So(created.Secret, ShouldNotBeBlank)
				_, _, err := svc.JoinAsReferee(ctx, "r1", "C2", created.Secret, nil)
				So(err, ShouldBeNil)
			})
		})

		Convey("When the panel is larger than allowed", func() {
			_, err := svc.CreateCourt(ctx, "C3", "s", []string{"a", "b", "c", "d"})
			So(errors.Is(err, model.ErrInvalidCourt), ShouldBeTrue)
			So(svc.ListCourts(ctx), ShouldBeEmpty)
		})
	})
}

func TestService_Join(t *testing.T) {
	Convey("Given a court C1 with secret 7421", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		defer svc.Stop()
		_, err := svc.CreateCourt(ctx, "C1", "7421", []string{"r1", "r2", "r3"})
		So(err, ShouldBeNil)

		Convey("When a referee joins with the right secret", func() {
			binding, sub, err := svc.JoinAsReferee(ctx, "r1", "C1", "7421", newChanSink())
			So(err, ShouldBeNil)

			Convey("Then the binding names the referee and court", func() {
				So(binding, ShouldResemble, model.Binding{Referee: "r1", Court: "C1"})
				So(sub, ShouldNotBeNil)
				So(svc.Subscribers("C1"), ShouldEqual, 1)
			})
		})

		Convey("When a referee joins with a wrong secret", func() {
			_, sub, err := svc.JoinAsReferee(ctx, "r1", "C1", "0000", newChanSink())
			So(errors.Is(err, model.ErrInvalidCredential), ShouldBeTrue)
			So(sub, ShouldBeNil)
			So(svc.Subscribers("C1"), ShouldEqual, 0)
		})

		Convey("When a referee joins an unknown court", func() {
			_, _, err := svc.JoinAsReferee(ctx, "r1", "nope", "7421", nil)
			So(errors.Is(err, model.ErrInvalidCredential), ShouldBeTrue)
		})

		Convey("When a viewer joins before any submission", func() {
			sink := newChanSink()
			snap, sub, err := svc.JoinAsViewer(ctx, "C1", sink)
			So(err, ShouldBeNil)
			So(sub, ShouldNotBeNil)

			Convey("Then it receives the zeroed snapshot with no decision", func() {
				So(snap.TotalScore, ShouldResemble, model.Tally{})
				So(snap.LastDecision, ShouldBeNil)

				pushed, ok := sink.next()
				So(ok, ShouldBeTrue)
				So(pushed, ShouldResemble, snap)
			})

			Convey("And after leaving it is no longer subscribed", func() {
				svc.Leave(ctx, sub)
				So(svc.Subscribers("C1"), ShouldEqual, 0)
			})
		})

		Convey("When a viewer joins an unknown court", func() {
			_, _, err := svc.JoinAsViewer(ctx, "nope", newChanSink())
			So(errors.Is(err, model.ErrUnknownCourt), ShouldBeTrue)
		})

		Convey("When a viewer joins without a sink", func() {
			snap, sub, err := svc.JoinAsViewer(ctx, "C1", nil)
			So(err, ShouldBeNil)
			So(sub, ShouldBeNil)
			So(snap.CourtID, ShouldEqual, "C1")
		})
	})
}

func TestService_SubmitScore(t *testing.T) {
	Convey("Given court C1 with referees r1, r2, r3 and a subscribed viewer", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		defer svc.Stop()
		_, err := svc.CreateCourt(ctx, "C1", "7421", []string{"r1", "r2", "r3"})
		So(err, ShouldBeNil)

		viewer := newChanSink()
		_, _, err = svc.JoinAsViewer(ctx, "C1", viewer)
		So(err, ShouldBeNil)
		_, ok := viewer.next()
		So(ok, ShouldBeTrue)

		Convey("When r1 and r2 vote for competitor A", func() {
			first, err := svc.SubmitScore(ctx, vote("C1", "r1", model.CompetitorA))
			So(err, ShouldBeNil)
			second, err := svc.SubmitScore(ctx, vote("C1", "r2", model.CompetitorA))
			So(err, ShouldBeNil)

			Convey("Then the second vote decides the round for A", func() {
				So(first.LastDecision, ShouldBeNil)
				So(first.TotalScore.CompetitorA, ShouldEqual, 0)
				So(second.LastDecision, ShouldNotBeNil)
				So(*second.LastDecision, ShouldEqual, model.CompetitorA)
				So(second.TotalScore.CompetitorA, ShouldEqual, 1)
			})

			Convey("Then the viewer sees both updates in order", func() {
				u1, ok := viewer.next()
				So(ok, ShouldBeTrue)
				So(u1.LastDecision, ShouldBeNil)
				u2, ok := viewer.next()
				So(ok, ShouldBeTrue)
				So(*u2.LastDecision, ShouldEqual, model.CompetitorA)
			})

			Convey("And r3 agreeing does not score again", func() {
				third, err := svc.SubmitScore(ctx, vote("C1", "r3", model.CompetitorA))
				So(err, ShouldBeNil)
				So(third.LastDecision, ShouldBeNil)
				So(third.TotalScore.CompetitorA, ShouldEqual, 1)
			})

			Convey("And a flip away and back scores once more", func() {
				_, err := svc.SubmitScore(ctx, vote("C1", "r1", model.CompetitorB))
				So(err, ShouldBeNil)
				back, err := svc.SubmitScore(ctx, vote("C1", "r1", model.CompetitorA))
				So(err, ShouldBeNil)
				So(*back.LastDecision, ShouldEqual, model.CompetitorA)
				So(back.TotalScore.CompetitorA, ShouldEqual, 2)
			})
		})

		Convey("When the court is unknown", func() {
			_, err := svc.SubmitScore(ctx, vote("nope", "r1", model.CompetitorA))
			So(errors.Is(err, model.ErrUnknownCourt), ShouldBeTrue)
		})

		Convey("When the referee is not on the panel", func() {
			_, err := svc.SubmitScore(ctx, vote("C1", "r9", model.CompetitorA))
			So(errors.Is(err, model.ErrUnknownReferee), ShouldBeTrue)

			Convey("Then the court is unchanged and nothing is pushed", func() {
				view, _ := svc.GetCourt(ctx, "C1")
				So(view.Submissions, ShouldEqual, 0)
				select {
				case <-viewer.ch:
					So("unexpected push", ShouldBeEmpty)
				case <-time.After(50 * time.Millisecond):
				}
			})
		})

		Convey("When the player is not recognized", func() {
			_, err := svc.SubmitScore(ctx, vote("C1", "r1", model.Player("nobody")))
			So(errors.Is(err, model.ErrInvalidPlayer), ShouldBeTrue)
		})

		Convey("When a submission id is replayed", func() {
			sub := vote("C1", "r1", model.CompetitorA)
			sub.SubmissionID = "click-1"
			_, err := svc.SubmitScore(ctx, sub)
			So(err, ShouldBeNil)

			snap, err := svc.SubmitScore(ctx, sub)

			Convey("Then it is reported as a duplicate with the current snapshot", func() {
				So(errors.Is(err, model.ErrDuplicateSubmission), ShouldBeTrue)
				So(snap.CourtID, ShouldEqual, "C1")
				view, _ := svc.GetCourt(ctx, "C1")
				So(view.Submissions, ShouldEqual, 1)
			})
		})
	})
}

func TestService_ConcurrentCourts(t *testing.T) {
	Convey("Given several courts receiving votes in parallel", t, func() {
		ctx := context.Background()
		svc := newStartedService()
		defer svc.Stop()

		courts := []string{"A", "B", "C", "D"}
		for _, id := range courts {
			_, err := svc.CreateCourt(ctx, id, "s", []string{"r1", "r2", "r3"})
			So(err, ShouldBeNil)
		}

		var wg sync.WaitGroup
		for _, id := range courts {
			for _, ref := range []string{"r1", "r2", "r3"} {
				wg.Add(1)
				go func(id, ref string) {
					defer wg.Done()
					for i := 0; i < 50; i++ {
						_, _ = svc.SubmitScore(ctx, vote(id, ref, model.Players[i%2]))
					}
				}(id, ref)
			}
		}
		wg.Wait()

		Convey("Then every court recorded every vote", func() {
			views := svc.ListCourts(ctx)
			So(views, ShouldHaveLength, 4)
			for _, v := range views {
				So(v.Submissions, ShouldEqual, 150)
				for _, events := range v.Scores {
					So(events, ShouldHaveLength, 50)
				}
			}
		})
	})
}
