package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/adapters/gamelog"
	"github.com/okian/pitchrecord/internal/adapters/repository"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/review"
	"github.com/okian/pitchrecord/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var s5 = gamelog.Season{Season: "S5", Era: 5, RegularSeasonGames: 1}

// oneInning builds a single-inning game. When homeScores is false it ends 0-0.
func oneInning(id string, session int, homeScores bool) []model.PlateAppearance {
	var plays []model.PlateAppearance
	add := func(inning, batter, pteam, pitcher, code string) {
		plays = append(plays, model.PlateAppearance{
			Season: "S5", Era: 5, GameID: id, Session: session, InningLabel: inning,
			BatterTeam: batter, PitcherTeam: pteam, PitcherID: pitcher,
			ExactResult: code, Seq: len(plays),
		})
	}
	for i := 0; i < 3; i++ {
		add("T1", "AWY", "HOM", "h1", "K")
	}
	if homeScores {
		add("B1", "HOM", "AWY", "a1", "HR")
		return plays
	}
	for i := 0; i < 3; i++ {
		add("B1", "HOM", "AWY", "a1", "K")
	}
	return plays
}

func concat(games ...[]model.PlateAppearance) []model.PlateAppearance {
	var out []model.PlateAppearance
	for _, g := range games {
		out = append(out, g...)
	}
	return out
}

func newService(opts ...service.Option) *service.Service {
	return service.New(append([]service.Option{
		service.WithWorkerCount(2),
		service.WithQueueSize(16),
		service.WithLogger(logger.Discard()),
	}, opts...)...)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When it is used before Start", func() {
			_, err := svc.ProcessSeason(ctx, s5, oneInning("1", 1, true))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.TopN(ctx, "S5", model.StatWin, 5)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["corrections"], ShouldEqual, 4)
			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_CorrectionsDisabled(t *testing.T) {
	Convey("Given a service without log corrections", t, func() {
		svc := newService(service.WithCorrections(nil))

		Convey("Then it reports none registered", func() {
			So(svc.GetStats()["corrections"], ShouldEqual, 0)
		})
	})
}

func TestService_ProcessSeason(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		plays := concat(
			oneInning("1", 1, true),
			oneInning("2", 1, false),
			oneInning("3", 2, true), // postseason
		)
		sum, err := svc.ProcessSeason(ctx, s5, plays)
		So(err, ShouldBeNil)

		Convey("Then every game is accounted for", func() {
			So(sum.Season, ShouldEqual, "S5")
			So(sum.Games, ShouldEqual, 3)
			So(sum.Decided, ShouldEqual, 2)
			So(sum.Tied, ShouldEqual, 1)
			So(sum.Flagged, ShouldEqual, 1)
			So(sum.Duplicates, ShouldEqual, 0)
		})

		Convey("Then only regular-season decisions reach the standings", func() {
			line, err := svc.Line(ctx, "S5", "h1")
			So(err, ShouldBeNil)
			So(line.Wins, ShouldEqual, 1)

			top, err := svc.TopN(ctx, "S5", model.StatLoss, 10)
			So(err, ShouldBeNil)
			So(len(top), ShouldEqual, 1)
			So(top[0].PitcherID, ShouldEqual, "a1")
			So(top[0].Count, ShouldEqual, 1)

			rank, err := svc.Rank(ctx, "S5", model.StatWin, "h1")
			So(err, ShouldBeNil)
			So(rank.Rank, ShouldEqual, 1)

			_, err = svc.Rank(ctx, "S5", model.StatWin, "a1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then the published lines and seasons reflect the batch", func() {
			So(svc.Seasons(ctx), ShouldResemble, []string{"S5"})
			lines := svc.Lines("S5")
			So(len(lines), ShouldEqual, 2)
		})

		Convey("Then each game can be looked up", func() {
			g, err := svc.Game(ctx, model.GameKey{Season: "S5", GameID: "3"})
			So(err, ShouldBeNil)
			So(g.Regular, ShouldBeFalse)
			So(g.Status, ShouldEqual, "decided")
			So(g.Decision.Win, ShouldEqual, "h1")
			So(g.HomeScore, ShouldEqual, 1)

			_, err = svc.Game(ctx, model.GameKey{Season: "S5", GameID: "99"})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)

			games := svc.Games("S5")
			So(len(games), ShouldEqual, 3)
			So(games[0].Key.GameID, ShouldEqual, "1")
		})

		Convey("Then the tied game is on the review list", func() {
			flags := svc.Review()
			So(len(flags), ShouldEqual, 1)
			So(flags[0].Key.GameID, ShouldEqual, "2")
			So(flags[0].Reason, ShouldEqual, review.ReasonTied)
			So(svc.Review(review.ReasonInvalid), ShouldBeEmpty)
		})

		Convey("When the same games arrive again", func() {
			again, err := svc.ProcessSeason(ctx, s5, plays)
			So(err, ShouldBeNil)

			Convey("Then they are skipped and nothing double counts", func() {
				So(again.Duplicates, ShouldEqual, 3)
				So(again.Games, ShouldEqual, 0)
				line, err := svc.Line(ctx, "S5", "h1")
				So(err, ShouldBeNil)
				So(line.Wins, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a service that counts playoffs", t, func() {
		svc := newService(service.WithIncludePlayoffs(true))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.ProcessSeason(ctx, s5, concat(oneInning("1", 1, true), oneInning("3", 2, true)))
		So(err, ShouldBeNil)

		Convey("Then postseason wins count too", func() {
			line, err := svc.Line(ctx, "S5", "h1")
			So(err, ShouldBeNil)
			So(line.Wins, ShouldEqual, 2)
		})
	})
}

// highDiffGame is played in a season whose log rows carry no era. The top of
// the first opens with runners on first and third and a 498-diff grounder to
// the left side.
func highDiffGame() []model.PlateAppearance {
	row := func(inning, batter, pteam, pitcher, code string, obc, outs, diff int) model.PlateAppearance {
		return model.PlateAppearance{
			Season: "S9", GameID: "1", Session: 1, InningLabel: inning,
			BatterTeam: batter, PitcherTeam: pteam, PitcherID: pitcher,
			ExactResult: code, OBC: model.BasesFromCode(obc), Outs: outs, Diff: diff,
		}
	}
	plays := []model.PlateAppearance{
		row("T1", "AWY", "HOM", "h1", "LGO", 5, 0, 498),
		row("T1", "AWY", "HOM", "h1", "K", 3, 2, 0),
		row("B1", "HOM", "AWY", "a1", "HR", 0, 0, 0),
	}
	for i := range plays {
		plays[i].Seq = i
	}
	return plays
}

func TestService_SeasonEra(t *testing.T) {
	Convey("Given log rows without an era in an era 9 season", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		_, err := svc.ProcessSeason(ctx, gamelog.Season{Season: "S9", Era: 9}, highDiffGame())
		So(err, ShouldBeNil)

		Convey("Then the season's rules apply and the runner on third is stranded", func() {
			g, err := svc.Game(ctx, model.GameKey{Season: "S9", GameID: "1"})
			So(err, ShouldBeNil)
			So(g.AwayScore, ShouldEqual, 0)
			So(g.HomeScore, ShouldEqual, 1)
			So(g.Decision.Win, ShouldEqual, "h1")
			So(g.Trace, ShouldBeEmpty)
		})

		Convey("Then the trace shows the grounder moving only the lead runner", func() {
			g, err := svc.Trace(ctx, model.GameKey{Season: "S9", GameID: "1"})
			So(err, ShouldBeNil)
			So(g.Trace, ShouldHaveLength, 3)

			lgo := g.Trace[0]
			So(lgo.BasesBefore, ShouldEqual, model.OnFirst|model.OnThird)
			So(lgo.BasesAfter, ShouldEqual, model.OnThird)
			So(lgo.Outs, ShouldEqual, 2)
			So(lgo.Runs, ShouldEqual, 0)

			hr := g.Trace[2]
			So(hr.Runs, ShouldEqual, 1)
			So(hr.HomeScore, ShouldEqual, 1)
			So(hr.AwayScore, ShouldEqual, 0)
		})

		Convey("Then an unknown game has no trace", func() {
			_, err := svc.Trace(ctx, model.GameKey{Season: "S9", GameID: "2"})
			So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Submit(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		key := model.GameKey{Season: "S5", GameID: "40"}

		Convey("When a game is submitted", func() {
			dup, err := svc.Submit(ctx, key, 0, oneInning("ignored", 0, true))
			So(err, ShouldBeNil)
			So(dup, ShouldBeFalse)

			Convey("Then it is decided under the submitted key", func() {
				var g service.GameResult
				So(func() bool {
					for i := 0; i < 200; i++ {
						if g, err = svc.Game(ctx, key); err == nil {
							return true
						}
						time.Sleep(5 * time.Millisecond)
					}
					return false
				}(), ShouldBeTrue)
				So(g.Decision.Win, ShouldEqual, "h1")
			})

			Convey("Then a repeat submission is a duplicate", func() {
				dup, err := svc.Submit(ctx, key, 5, oneInning("40", 0, true))
				So(err, ShouldBeNil)
				So(dup, ShouldBeTrue)
			})
		})

		Convey("When a game has no plays", func() {
			_, err := svc.Submit(ctx, key, 5, nil)
			So(errors.Is(err, service.ErrEmptyGame), ShouldBeTrue)
		})
	})
}

func TestService_Ledger(t *testing.T) {
	Convey("Given a service writing to a ledger", t, func() {
		path := filepath.Join(t.TempDir(), "ledger.db")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		first := newService(service.WithLedgerPath(path))
		So(first.Start(ctx), ShouldBeNil)
		_, err := first.ProcessSeason(ctx, s5, oneInning("1", 1, true))
		So(err, ShouldBeNil)
		So(first.GetStats()["run_id"], ShouldNotBeEmpty)
		first.Stop()

		Convey("When a fresh service opens the same ledger", func() {
			second := newService(service.WithLedgerPath(path))
			So(second.Start(ctx), ShouldBeNil)
			defer second.Stop()

			Convey("Then earlier games are still found", func() {
				g, err := second.Game(ctx, model.GameKey{Season: "S5", GameID: "1"})
				So(err, ShouldBeNil)
				So(g.Decision.Win, ShouldEqual, "h1")
				So(g.Decision.Loss, ShouldEqual, "a1")
				So(g.Home, ShouldEqual, "HOM")
			})
		})
	})
}
