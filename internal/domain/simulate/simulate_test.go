package simulate_test

import (
	"testing"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/internal/domain/simulate"
	"github.com/okian/pitchrecord/internal/domain/vocab"
	. "github.com/smartystreets/goconvey/convey"
)

func bases(s string) model.BaseState {
	return model.Bases(s[0] == '1', s[1] == '1', s[2] == '1')
}

func run(code, before string, outs, era int) simulate.Result {
	return simulate.Simulate(simulate.Input{
		Bases: bases(before),
		Outs:  outs,
		Play:  vocab.Resolve(code, ""),
		Era:   era,
	})
}

func TestSimulateScenarios(t *testing.T) {
	Convey("Given the play outcome simulator", t, func() {
		Convey("When a home run is hit with the bases empty", func() {
			res := run("HR", "000", 0, 5)

			Convey("Then one run scores and no out is recorded", func() {
				So(res.Bases, ShouldEqual, model.Empty)
				So(res.Runs, ShouldEqual, 1)
				So(res.Outs, ShouldEqual, 0)
				So(res.Covered, ShouldBeTrue)
			})
		})

		Convey("When a normal groundout left comes with a runner on first", func() {
			res := run("LGO", "100", 0, 5)

			Convey("Then it is a double play", func() {
				So(res.Bases, ShouldEqual, model.Empty)
				So(res.Runs, ShouldEqual, 0)
				So(res.Outs, ShouldEqual, 2)
				So(res.Rule, ShouldEqual, "double_play")
			})
		})

		Convey("When the bases are loaded with two outs and the batter walks", func() {
			res := run("BB", "111", 2, 5)

			Convey("Then one forced run scores and the bases stay loaded", func() {
				So(res.Bases, ShouldEqual, model.Loaded)
				So(res.Runs, ShouldEqual, 1)
				So(res.Outs, ShouldEqual, 0)
			})
		})
	})
}

func TestSimulateSpecialRules(t *testing.T) {
	Convey("Given era specific rules", t, func() {
		Convey("When the infield is in from era 7", func() {
			in := simulate.Input{Bases: bases("100"), Play: vocab.Resolve("RGO", ""), Era: 7, Subtype: 2}
			res := simulate.Simulate(in)

			Convey("Then the runner moves up and the batter is out", func() {
				So(res.Rule, ShouldEqual, "infield_in")
				So(res.Bases.String(), ShouldEqual, "010")
				So(res.Outs, ShouldEqual, 1)
			})

			Convey("Then a loaded infield-in grounder keeps the bases loaded", func() {
				in.Bases = model.Loaded
				res := simulate.Simulate(in)
				So(res.Bases, ShouldEqual, model.Loaded)
				So(res.Runs, ShouldEqual, 0)
			})

			Convey("Then earlier eras ignore the subtype", func() {
				in.Era = 6
				So(simulate.Simulate(in).Rule, ShouldEqual, "double_play")
			})
		})

		Convey("When a high-diff groundout left happens in era 9", func() {
			in := simulate.Input{Bases: bases("111"), Play: vocab.Resolve("LGO", ""), Diff: 498, Era: 9}

			Convey("Then the table decides the result", func() {
				res := simulate.Simulate(in)
				So(res.Rule, ShouldEqual, "high_diff_lgo")
				So(res.Outs, ShouldEqual, 3)
				So(res.Bases.String(), ShouldEqual, "001")
				So(res.Runs, ShouldEqual, 0)

				in.Outs = 2
				res = simulate.Simulate(in)
				So(res.Outs, ShouldEqual, 1)
				So(res.Bases, ShouldEqual, model.Empty)
			})

			Convey("Then values outside the range use normal logic", func() {
				in.Diff = 501
				So(simulate.Simulate(in).Rule, ShouldEqual, "double_play")
			})
		})

		Convey("When a high-diff groundout left happens before era 9", func() {
			in := simulate.Input{Bases: bases("110"), Play: vocab.Resolve("LGO", ""), Diff: 496, Era: 4}

			Convey("Then runners on first and second make a triple play", func() {
				res := simulate.Simulate(in)
				So(res.Rule, ShouldEqual, "high_diff_triple_play")
				So(res.Outs, ShouldEqual, 3)
				So(res.Bases, ShouldEqual, model.Empty)
			})

			Convey("Then other states fall through", func() {
				in.Bases = bases("001")
				res := simulate.Simulate(in)
				So(res.Rule, ShouldEqual, "groundout_left")
				So(res.Runs, ShouldEqual, 1)
				So(res.Outs, ShouldEqual, 1)
			})
		})

		Convey("When legacy DP and TP codes appear", func() {
			Convey("Then eras 2 and 3 resolve them", func() {
				res := run("DP", "101", 0, 2)
				So(res.Rule, ShouldEqual, "legacy_double_play")
				So(res.Outs, ShouldEqual, 2)
				So(res.Runs, ShouldEqual, 1)

				res = run("DP", "010", 1, 3)
				So(res.Outs, ShouldEqual, 1)
				So(res.Bases.String(), ShouldEqual, "010")

				res = run("TP", "110", 0, 3)
				So(res.Outs, ShouldEqual, 3)
				So(res.Bases, ShouldEqual, model.Empty)
			})

			Convey("Then later eras report them as uncovered", func() {
				res := run("DP", "100", 0, 6)
				So(res.Covered, ShouldBeFalse)
				So(res.Rule, ShouldEqual, simulate.RuleUncovered)
				So(res.Outs, ShouldEqual, 0)
				So(res.Bases.String(), ShouldEqual, "100")
			})
		})
	})
}

func TestSimulateDefaultTable(t *testing.T) {
	Convey("Given the default table", t, func() {
		Convey("Then hits advance runners", func() {
			res := run("3B", "110", 1, 5)
			So(res.Runs, ShouldEqual, 2)
			So(res.Bases.String(), ShouldEqual, "001")

			res = run("2B", "101", 0, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases.String(), ShouldEqual, "011")

			res = run("2B", "111", 2, 5)
			So(res.Runs, ShouldEqual, 3)
			So(res.Bases.String(), ShouldEqual, "010")

			res = run("1B", "110", 0, 5)
			So(res.Runs, ShouldEqual, 0)
			So(res.Bases, ShouldEqual, model.Loaded)

			res = run("1B", "111", 2, 5)
			So(res.Runs, ShouldEqual, 2)
			So(res.Bases.String(), ShouldEqual, "101")

			res = run("BUNT 1B", "111", 2, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases, ShouldEqual, model.Loaded)
		})

		Convey("Then walks only move forced runners", func() {
			res := run("IBB", "101", 0, 5)
			So(res.Runs, ShouldEqual, 0)
			So(res.Bases, ShouldEqual, model.Loaded)

			res = run("BB", "010", 0, 5)
			So(res.Bases.String(), ShouldEqual, "110")
		})

		Convey("Then steals move one runner", func() {
			So(run("STEAL 2B", "100", 0, 5).Bases.String(), ShouldEqual, "010")
			So(run("STEAL 3B", "010", 0, 5).Bases.String(), ShouldEqual, "001")
			res := run("STEAL HOME", "001", 1, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases, ShouldEqual, model.Empty)

			So(run("SB", "110", 0, 3).Bases.String(), ShouldEqual, "101")
			So(run("MSTEAL 3B", "110", 0, 5).Bases.String(), ShouldEqual, "011")
			res = run("MSTEAL HOME", "101", 0, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases.String(), ShouldEqual, "010")
		})

		Convey("Then caught stealing removes a runner and credits an out", func() {
			res := run("CS 2B", "100", 0, 5)
			So(res.Bases, ShouldEqual, model.Empty)
			So(res.Outs, ShouldEqual, 1)

			res = run("CS", "110", 0, 2)
			So(res.Bases.String(), ShouldEqual, "100")
			So(res.Outs, ShouldEqual, 0)

			res = simulate.Simulate(simulate.Input{Bases: bases("110"), Play: vocab.Resolve("", "CS"), Era: 2})
			So(res.Outs, ShouldEqual, 1)

			res = run("CMS 3B", "110", 0, 5)
			So(res.Bases.String(), ShouldEqual, "010")
			So(res.Outs, ShouldEqual, 1)

			res = run("CMS HOME", "011", 0, 5)
			So(res.Bases.String(), ShouldEqual, "001")
		})

		Convey("Then flyouts score a runner from third with less than two outs", func() {
			res := run("FO", "001", 1, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Outs, ShouldEqual, 1)

			res = run("Sac", "001", 2, 5)
			So(res.Runs, ShouldEqual, 0)
			So(res.Bases.String(), ShouldEqual, "001")
		})

		Convey("Then strikeouts leave runners in place", func() {
			res := run("K", "111", 0, 5)
			So(res.Bases, ShouldEqual, model.Loaded)
			So(res.Outs, ShouldEqual, 1)
			So(res.Runs, ShouldEqual, 0)
		})

		Convey("Then sacrifice bunts advance runners with less than two outs", func() {
			So(run("BUNT Sac", "100", 0, 5).Bases.String(), ShouldEqual, "010")
			So(run("Bunt Sac", "110", 1, 5).Bases.String(), ShouldEqual, "011")
			So(run("BUNT Sac", "011", 0, 5).Bases.String(), ShouldEqual, "011")
			So(run("BUNT Sac", "100", 2, 5).Bases.String(), ShouldEqual, "100")
		})

		Convey("Then bunt groundouts follow the table and are clipped at three outs", func() {
			res := run("BUNT GO", "110", 0, 5)
			So(res.Bases.String(), ShouldEqual, "001")
			So(res.Outs, ShouldEqual, 2)

			res = run("BUNT DP", "100", 2, 5)
			So(res.Outs, ShouldEqual, 1)
		})

		Convey("Then plain groundouts differ left and right", func() {
			res := run("RGO", "011", 0, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases.String(), ShouldEqual, "001")

			res = run("LGO", "011", 0, 5)
			So(res.Runs, ShouldEqual, 1)
			So(res.Bases.String(), ShouldEqual, "010")

			res = run("RGO", "011", 2, 5)
			So(res.Runs, ShouldEqual, 0)
			So(res.Bases, ShouldEqual, model.Empty)
		})

		Convey("Then unknown codes change nothing", func() {
			res := run("E6", "101", 1, 5)
			So(res.Covered, ShouldBeFalse)
			So(res.Runs, ShouldEqual, 0)
			So(res.Outs, ShouldEqual, 0)
			So(res.Bases.String(), ShouldEqual, "101")
		})
	})
}

func TestSimulateInvariants(t *testing.T) {
	Convey("Given every code, base state and out count", t, func() {
		codes := append(vocab.Spellings(), "E6", "")

		Convey("Then outs stay in range, runs are never negative and grounders never score on the third out", func() {
			for _, code := range codes {
				for era := 1; era <= 10; era++ {
					for outs := 0; outs < 3; outs++ {
						for b := 0; b < 8; b++ {
							for _, diff := range []int{0, 498} {
								in := simulate.Input{
									Bases:   model.BasesFromCode(b),
									Outs:    outs,
									Play:    vocab.Resolve(code, ""),
									Diff:    diff,
									Era:     era,
									Subtype: era % 3,
								}
								res := simulate.Simulate(in)
								So(res.Outs, ShouldBeBetweenOrEqual, 0, 3)
								So(res.Runs, ShouldBeGreaterThanOrEqualTo, 0)
								if in.Play.Outcome.Grounder() && outs+res.Outs >= 3 {
									So(res.Runs, ShouldEqual, 0)
								}
								So(simulate.Simulate(in), ShouldResemble, res)
							}
						}
					}
				}
			}
		})

		Convey("Then rules are listed in evaluation order", func() {
			names := simulate.Rules()
			So(names[0], ShouldEqual, "infield_in")
			So(names, ShouldContain, "home_run")
			So(names[len(names)-1], ShouldEqual, "bunt_groundout")
		})
	})
}
