package game

import (
	"math/rand"
	"testing"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

func newTestJump(h hill.Profile, best int) *Jump {
	return NewJump(h, Options{Rand: midRand{}, BestScore: best})
}

// flyToLanding takes off near the lift point and steps until the jumper
// lands, returning the landing event.
func flyToLanding(t *testing.T, j *Jump) Event {
	t.Helper()
	lift := DefaultTuning().LiftPointX
	for i := 0; i < 2000; i++ {
		var cmds []Command
		if j.Phase() == PhaseRunUp && j.State().X >= lift-0.3 {
			cmds = []Command{CmdTakeoff}
		}
		_, events := j.Step(DT, cmds)
		for _, ev := range events {
			if ev.Kind == EventLanded {
				return ev
			}
		}
	}
	t.Fatalf("no landing after 2000 ticks: %+v", j.State())
	return Event{}
}

func TestNewJumpInitialState(t *testing.T) {
	j := newTestJump(k90, 77)
	s := j.State()
	if s.Phase != PhaseRunUp {
		t.Fatalf("phase = %v, want run_up", s.Phase)
	}
	if s.BodyAngle != k90.InrunAngle {
		t.Fatalf("body angle = %v, want inrun angle %v", s.BodyAngle, k90.InrunAngle)
	}
	if s.Gate != 10 || s.Wind != 0 || s.BestScore != 77 {
		t.Fatalf("gate/wind/best = %d/%v/%d, want 10/0/77", s.Gate, s.Wind, s.BestScore)
	}
}

func TestWindDrawnOnceInRange(t *testing.T) {
	for seed := int64(0); seed < 300; seed++ {
		j := NewJump(k90, Options{Rand: rand.New(rand.NewSource(seed))})
		w := j.State().Wind
		if w < -15 || w > 15 || w != float64(int(w)) {
			t.Fatalf("seed %d: wind %v not an integer in [-15, 15]", seed, w)
		}
		for i := 0; i < 50; i++ {
			j.Step(DT, nil)
		}
		if j.State().Wind != w {
			t.Fatalf("seed %d: wind changed during run", seed)
		}
	}
}

func TestRunUpForcesSpeed(t *testing.T) {
	j := newTestJump(k90, 0)
	want := DefaultTuning().RunUpSpeed(k90.BaseSpeed, 10)
	for i := 0; i < 10; i++ {
		s, _ := j.Step(DT, nil)
		if s.VX != want || s.VY != 0 {
			t.Fatalf("tick %d: velocity (%v, %v), want (%v, 0)", i, s.VX, s.VY, want)
		}
		if s.Distance != s.X {
			t.Fatalf("tick %d: run-up distance %v, want displacement %v", i, s.Distance, s.X)
		}
	}
}

func TestTakeoffExactlyAtLiftPoint(t *testing.T) {
	tu := DefaultTuning()
	tu.Gate = 0
	h := k90
	h.BaseSpeed = 9
	j := NewJump(h, Options{Tuning: &tu, Rand: midRand{}})

	// two one-second ticks at 9 m/s put the jumper on the 18 m lift point
	j.Step(1, nil)
	j.Step(1, nil)
	if x := j.State().X; x != tu.LiftPointX {
		t.Fatalf("x = %v, want %v", x, tu.LiftPointX)
	}
	// short tick so the flight step after takeoff cannot reach the slope
	_, events := j.Step(0.001, []Command{CmdTakeoff})
	if len(events) != 1 || events[0].Kind != EventTakeoff {
		t.Fatalf("events = %+v, want one takeoff", events)
	}
	if events[0].Timing != 1.0 || events[0].Forced {
		t.Fatalf("timing = %v forced=%v, want 1.0 unforced", events[0].Timing, events[0].Forced)
	}
	s := j.State()
	if s.Phase != PhaseFlight || s.Timing != 1.0 || s.TakeoffX != tu.LiftPointX {
		t.Fatalf("after takeoff: %+v", s)
	}
}

func TestTakeoffVelocityScalesWithTiming(t *testing.T) {
	tu := DefaultTuning()
	j := newTestJump(k90, 0)
	_, events := j.Step(DT, []Command{CmdTakeoff}) // at x=0, far too early
	if len(events) != 1 || events[0].Timing != tu.MinTiming {
		t.Fatalf("early takeoff events = %+v, want timing %v", events, tu.MinTiming)
	}
	s := j.State()
	speed := tu.LaunchSpeed(k90.BaseSpeed, 10)
	// one flight tick has run; velocity is still close to the launch vector
	if s.VX > speed*tu.MinTiming || s.VX < speed*tu.MinTiming-0.1 {
		t.Fatalf("vx = %v, want about %v", s.VX, speed*tu.MinTiming)
	}
	if s.VY >= 0 {
		t.Fatalf("vy = %v, want upward after takeoff", s.VY)
	}
}

func TestSecondTakeoffIgnored(t *testing.T) {
	j := newTestJump(k90, 0)
	j.Step(DT, []Command{CmdTakeoff})
	before := j.State()
	_, events := j.Step(DT, []Command{CmdTakeoff, CmdTakeoff})
	if len(events) != 0 {
		t.Fatalf("repeated takeoff produced events: %+v", events)
	}
	after := j.State()
	if after.Timing != before.Timing || after.TakeoffX != before.TakeoffX {
		t.Fatalf("takeoff re-evaluated: %+v -> %+v", before, after)
	}
}

func TestForcedTakeoffPastTableEdge(t *testing.T) {
	tu := DefaultTuning()
	j := newTestJump(k90, 0)
	for i := 0; i < 500; i++ {
		_, events := j.Step(DT, nil)
		for _, ev := range events {
			if ev.Kind != EventTakeoff {
				continue
			}
			if !ev.Forced || ev.Timing != tu.MinTiming {
				t.Fatalf("forced takeoff = %+v, want forced at timing %v", ev, tu.MinTiming)
			}
			if x := j.State().TakeoffX; x <= tu.LiftPointX+tu.ToleranceWindow {
				t.Fatalf("forced at x=%v, before the table edge", x)
			}
			return
		}
	}
	t.Fatalf("never took off")
}

func TestPitchDuringRunUpIsNoop(t *testing.T) {
	a := newTestJump(k90, 0)
	b := newTestJump(k90, 0)
	for i := 0; i < 5; i++ {
		sa, _ := a.Step(DT, nil)
		sb, _ := b.Step(DT, []Command{CmdPitchUp, CmdPitchDown, CmdPitchUp})
		if sa.JumpState != sb.JumpState {
			t.Fatalf("tick %d: pitch in run-up changed state:\n%+v\n%+v", i, sa.JumpState, sb.JumpState)
		}
	}
}

func TestPitchStepsAndClamp(t *testing.T) {
	j := newTestJump(k90, 0)
	j.Step(DT, []Command{CmdTakeoff})
	start := j.State().BodyAngle

	j.Step(DT, []Command{CmdPitchDown})
	if got := j.State().BodyAngle; got != start+2 {
		t.Fatalf("pitch down: angle %v, want %v", got, start+2)
	}
	j.Step(DT, []Command{CmdPitchUp, CmdPitchUp})
	if got := j.State().BodyAngle; got != start-2 {
		t.Fatalf("pitch up twice: angle %v, want %v", got, start-2)
	}

	many := make([]Command, 100)
	for i := range many {
		many[i] = CmdPitchUp
	}
	j.Step(DT, many)
	if got := j.State().BodyAngle; got != -90 {
		t.Fatalf("angle after 100 pitch ups = %v, want clamp at -90", got)
	}
}

func TestUnclampedWhenMaxAngleZero(t *testing.T) {
	tu := DefaultTuning()
	tu.MaxBodyAngle = 0
	j := NewJump(k90, Options{Tuning: &tu, Rand: midRand{}})
	j.Step(DT, []Command{CmdTakeoff})
	many := make([]Command, 60)
	for i := range many {
		many[i] = CmdPitchDown
	}
	j.Step(DT, many)
	if got := j.State().BodyAngle; got != k90.InrunAngle+120 {
		t.Fatalf("angle = %v, want %v", got, k90.InrunAngle+120)
	}
}

func TestFullRun(t *testing.T) {
	j := newTestJump(k90, 0)
	landed := flyToLanding(t, j)

	s := j.State()
	if s.Phase != PhaseLanded {
		t.Fatalf("phase = %v, want landed", s.Phase)
	}
	jd := landed.Judging
	if jd == nil {
		t.Fatalf("landing event without judging")
	}
	if jd.Distance <= 0 || jd.Distance != s.Distance {
		t.Fatalf("judged distance %v, state distance %v", jd.Distance, s.Distance)
	}
	want := Judge(DefaultTuning(), k90, s.Distance, s.BodyAngle, midRand{})
	if *jd != want {
		t.Fatalf("judging = %+v, want %+v", *jd, want)
	}
	if s.Score != jd.Score || s.BestScore != jd.Score {
		t.Fatalf("score/best = %d/%d, want %d", s.Score, s.BestScore, jd.Score)
	}
	if s.VX != 0 || s.VY != 0 {
		t.Fatalf("kinematics not frozen: (%v, %v)", s.VX, s.VY)
	}

	// run complete fires once, after the delay
	ticks := 0
	var complete *Event
	for complete == nil && ticks < 1000 {
		_, events := j.Step(DT, []Command{CmdPitchUp, CmdTakeoff})
		ticks++
		for i := range events {
			if events[i].Kind == EventRunComplete {
				complete = &events[i]
			}
		}
		if got := j.State(); got.BodyAngle != s.BodyAngle || got.X != s.X || got.Score != s.Score {
			t.Fatalf("input after landing changed state")
		}
	}
	if complete == nil {
		t.Fatalf("run never completed")
	}
	if wantTicks := int(DefaultTuning().CompleteDelay / DT); ticks < wantTicks-1 || ticks > wantTicks+1 {
		t.Fatalf("run complete after %d ticks, want about %d", ticks, wantTicks)
	}
	if complete.Score != s.Score || complete.BestScore != s.BestScore {
		t.Fatalf("complete event = %+v", *complete)
	}

	final := j.State()
	snap, events := j.Step(DT, []Command{CmdPitchDown})
	if len(events) != 0 || snap.JumpState != final {
		t.Fatalf("step after completion changed something: %+v", events)
	}
}

func TestDistanceNeverDecreasesInFlight(t *testing.T) {
	rules, _ := LookupRuleset("arcade")
	// a headwind strong enough to push the jumper backwards
	rules.Aero.Wind = 0.05
	j := NewJump(k90, Options{Ruleset: &rules, Rand: &seqRand{vals: []int{0}}})
	if j.State().Wind != -15 {
		t.Fatalf("wind = %v, want -15", j.State().Wind)
	}
	j.Step(DT, []Command{CmdTakeoff})
	prev := j.State().Distance
	backwards := false
	for i := 0; i < 400 && j.Phase() == PhaseFlight; i++ {
		s, _ := j.Step(DT, nil)
		if s.VX < 0 {
			backwards = true
		}
		if s.Distance < prev {
			t.Fatalf("tick %d: distance fell from %v to %v", i, prev, s.Distance)
		}
		prev = s.Distance
	}
	if !backwards {
		t.Fatalf("headwind never reversed the jumper; test exercises nothing")
	}
}

func TestEveryRulesetLandsOnEveryHill(t *testing.T) {
	for _, h := range hill.Default().List() {
		for _, name := range RulesetNames() {
			rules, _ := LookupRuleset(name)
			j := NewJump(h, Options{Ruleset: &rules, Rand: midRand{}})
			ev := flyToLanding(t, j)
			if ev.Judging.Distance < h.KPoint/2 {
				t.Fatalf("%s/%s: clean jump only %.1fm", h.Key, name, ev.Judging.Distance)
			}
			s := j.State()
			if s.Y-s.TakeoffY > rules.Landing.Surface(h, s.X-s.TakeoffX)+1e-9 {
				t.Fatalf("%s/%s: landed below the hill surface", h.Key, name)
			}
		}
	}
}

func TestBestScoreCarriedIn(t *testing.T) {
	j := newTestJump(k90, 10_000)
	flyToLanding(t, j)
	s := j.State()
	if s.BestScore != 10_000 {
		t.Fatalf("best = %d, want carried-in 10000", s.BestScore)
	}
	if s.Score >= 10_000 {
		t.Fatalf("score = %d, implausibly high", s.Score)
	}
}

func TestStepIgnoresNonPositiveDelta(t *testing.T) {
	j := newTestJump(k90, 0)
	before := j.State()
	if _, events := j.Step(0, []Command{CmdTakeoff}); len(events) != 0 {
		t.Fatalf("zero dt produced events")
	}
	j.Step(-1, nil)
	if j.State() != before {
		t.Fatalf("non-positive dt changed state")
	}
}

func TestParseCommand(t *testing.T) {
	cases := map[string]Command{
		"takeoff":    CmdTakeoff,
		"pitch_up":   CmdPitchUp,
		"pitch_down": CmdPitchDown,
		"jump":       CmdNone,
		"":           CmdNone,
	}
	for in, want := range cases {
		if got := ParseCommand(in); got != want {
			t.Fatalf("ParseCommand(%q) = %v, want %v", in, got, want)
		}
	}
	if CmdPitchUp.String() != "pitch_up" {
		t.Fatalf("String() = %q", CmdPitchUp.String())
	}
}
