package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/pitchrecord/internal/adapters/http/api"
	"github.com/okian/pitchrecord/internal/adapters/repository"
	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/reconstruct"
	"github.com/okian/pitchrecord/internal/domain/review"
	"github.com/okian/pitchrecord/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	seasons   []string
	topN      []types.Entry
	rank      types.Entry
	rankErr   error
	line      types.Line
	game      service.GameResult
	gameErr   error
	trace     []reconstruct.Step
	submitErr error
	submitted map[model.GameKey][]model.PlateAppearance
	flags     []review.Flag

	gotSeason, gotStat string
	gotLimit           int
	gotReasons         []review.Reason
}

func (m *mockDeps) Submit(_ context.Context, key model.GameKey, _ int, plays []model.PlateAppearance) (bool, error) {
	if m.submitErr != nil {
		return false, m.submitErr
	}
	if m.submitted == nil {
		m.submitted = make(map[model.GameKey][]model.PlateAppearance)
	}
	if _, ok := m.submitted[key]; ok {
		return true, nil
	}
	m.submitted[key] = plays
	return false, nil
}

func (m *mockDeps) TopN(_ context.Context, season, stat string, n int) ([]types.Entry, error) {
	m.gotSeason, m.gotStat, m.gotLimit = season, stat, n
	if stat != model.StatWin && stat != model.StatSave {
		return nil, repository.ErrUnknownStat
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, season, stat, _ string) (types.Entry, error) {
	m.gotSeason, m.gotStat = season, stat
	return m.rank, m.rankErr
}

func (m *mockDeps) Line(_ context.Context, season, pitcherID string) (types.Line, error) {
	m.gotSeason = season
	l := m.line
	l.Season, l.PitcherID = season, pitcherID
	return l, nil
}

func (m *mockDeps) Seasons(context.Context) []string { return m.seasons }

func (m *mockDeps) Game(_ context.Context, key model.GameKey) (service.GameResult, error) {
	if m.gameErr != nil {
		return service.GameResult{}, m.gameErr
	}
	g := m.game
	g.Key = key
	return g, nil
}

func (m *mockDeps) Trace(ctx context.Context, key model.GameKey) (service.GameResult, error) {
	g, err := m.Game(ctx, key)
	if err != nil || m.trace == nil {
		return service.GameResult{}, service.ErrNotFound
	}
	g.Trace = m.trace
	return g, nil
}

func (m *mockDeps) Review(reasons ...review.Reason) []review.Flag {
	m.gotReasons = reasons
	return m.flags
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true, "games_processed": 3}
}

func serve(mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

const validGame = `{"season":"S5","game_id":"12","era":5,"plays":[
 {"inning":"T1","batter_team":"AWY","pitcher_team":"HOM","pitcher_id":"h1","exact_result":"K","obc":0,"outs":0}
]}`

func TestServer(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{
			seasons: []string{"S4", "S5"},
			topN: []types.Entry{
				{Rank: 1, PitcherID: "394", Count: 9},
				{Rank: 2, PitcherID: "12", Count: 7},
			},
			rank: types.Entry{Rank: 2, PitcherID: "12", Count: 7},
			line: types.Line{Wins: 3, Losses: 1},
			game: service.GameResult{Status: "decided", Decision: model.Decision{Win: "h1", Loss: "a1"}, HomeScore: 2},
		}
		mux := http.NewServeMux()
		api.NewServer(deps, deps, 50).Register(mux)

		Convey("When GET /leaderboard has no season", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?limit=1", "")

			Convey("Then the latest season and wins are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotSeason, ShouldEqual, "S5")
				So(deps.gotStat, ShouldEqual, model.StatWin)
				var resp struct {
					Season  string        `json:"season"`
					Entries []types.Entry `json:"entries"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Season, ShouldEqual, "S5")
				So(len(resp.Entries), ShouldEqual, 1)
				So(resp.Entries[0].PitcherID, ShouldEqual, "394")
			})
		})

		Convey("When GET /leaderboard asks for saves in a season", func() {
			w := serve(mux, http.MethodGet, "/leaderboard?season=S4&stat=sv", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotSeason, ShouldEqual, "S4")
			So(deps.gotStat, ShouldEqual, model.StatSave)
			So(deps.gotLimit, ShouldEqual, 10)
		})

		Convey("When GET /leaderboard has bad input", func() {
			So(serve(mux, http.MethodGet, "/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/leaderboard?limit=abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/leaderboard?limit=51", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodGet, "/leaderboard?stat=ERA", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When nothing has been loaded yet", func() {
			deps.seasons = nil
			So(serve(mux, http.MethodGet, "/leaderboard", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When GET /rank/{pitcher}", func() {
			w := serve(mux, http.MethodGet, "/rank/12?season=S5&stat=W", "")

			Convey("Then the entry is returned with its board", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"rank":2`)
				So(w.Body.String(), ShouldContainSubstring, `"stat":"W"`)
			})
		})

		Convey("When the pitcher has no row", func() {
			deps.rankErr = repository.ErrNotFound
			So(serve(mux, http.MethodGet, "/rank/99", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When GET /pitchers/{pitcher}", func() {
			w := serve(mux, http.MethodGet, "/pitchers/394?season=S4", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var line types.Line
			So(json.Unmarshal(w.Body.Bytes(), &line), ShouldBeNil)
			So(line.PitcherID, ShouldEqual, "394")
			So(line.Season, ShouldEqual, "S4")
			So(line.Wins, ShouldEqual, 3)
		})

		Convey("When GET /games/{season}/{game}", func() {
			w := serve(mux, http.MethodGet, "/games/S5/7", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"win":"h1"`)
			So(w.Body.String(), ShouldContainSubstring, `"game_id":"7"`)

			deps.gameErr = service.ErrNotFound
			So(serve(mux, http.MethodGet, "/games/S5/8", "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When GET /games/{season}/{game} asks for the trace", func() {
			So(serve(mux, http.MethodGet, "/games/S5/7", "").Body.String(), ShouldNotContainSubstring, `"trace"`)
			So(serve(mux, http.MethodGet, "/games/S5/7?trace=1", "").Code, ShouldEqual, http.StatusNotFound)

			deps.trace = []reconstruct.Step{{
				Seq: 3, Inning: model.Inning{Number: 1, Half: model.Bottom}, PitcherID: "a1", Code: "HR", Rule: "home_run",
				BasesBefore: model.OnFirst, OutsBefore: 1, Runs: 2, HomeScore: 2,
			}}
			w := serve(mux, http.MethodGet, "/games/S5/7?trace=true", "")
			So(w.Code, ShouldEqual, http.StatusOK)

			var got struct {
				Trace []map[string]any `json:"trace"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Trace, ShouldHaveLength, 1)
			So(got.Trace[0]["inning"], ShouldEqual, "B1")
			So(got.Trace[0]["bases_before"], ShouldEqual, "100")
			So(got.Trace[0]["bases_after"], ShouldEqual, "000")
			So(got.Trace[0]["runs"], ShouldEqual, 2.0)
			So(got.Trace[0]["home_score"], ShouldEqual, 2.0)
		})

		Convey("When POST /games carries a valid game", func() {
			first := serve(mux, http.MethodPost, "/games", validGame)
			again := serve(mux, http.MethodPost, "/games", validGame)

			Convey("Then it is accepted once and then acknowledged as a duplicate", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(again.Code, ShouldEqual, http.StatusOK)
				So(again.Body.String(), ShouldContainSubstring, `"duplicate":true`)
				plays := deps.submitted[model.GameKey{Season: "S5", GameID: "12"}]
				So(len(plays), ShouldEqual, 1)
				So(plays[0].InningLabel, ShouldEqual, "T1")
				So(plays[0].PitcherID, ShouldEqual, "h1")
			})
		})

		Convey("When POST /games is malformed", func() {
			So(serve(mux, http.MethodPost, "/games", "{").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodPost, "/games", `{"season":"S5","game_id":"1","plays":[]}`).Code, ShouldEqual, http.StatusBadRequest)
			So(serve(mux, http.MethodPost, "/games", `{"season":"S5","game_id":"1","plays":[{"inning":"T1","batter_team":"A","pitcher_team":"H","pitcher_id":"p","obc":9}]}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			deps.submitErr = service.ErrBackpressure
			So(serve(mux, http.MethodPost, "/games", validGame).Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When the service is not running", func() {
			deps.submitErr = service.ErrNotStarted
			So(serve(mux, http.MethodPost, "/games", validGame).Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When GET /review filters by reason", func() {
			deps.flags = []review.Flag{{Key: model.GameKey{Season: "S5", GameID: "3"}, Reason: review.ReasonTied}}
			w := serve(mux, http.MethodGet, "/review?reason=tied,invalid", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(deps.gotReasons, ShouldResemble, []review.Reason{review.ReasonTied, review.ReasonInvalid})
			So(w.Body.String(), ShouldContainSubstring, `"count":1`)
		})

		Convey("When GET /stats", func() {
			w := serve(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"games_processed":3`)
		})

		Convey("When GET /healthz", func() {
			serve(mux, http.MethodGet, "/stats", "")
			w := serve(mux, http.MethodGet, "/healthz", "")

			Convey("Then the metrics exposition is served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "pitchrecord_")
			})
		})

		Convey("When a route is called with the wrong method", func() {
			So(serve(mux, http.MethodPost, "/leaderboard", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}
