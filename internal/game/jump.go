package game

import (
	"math/rand"
	"time"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

// Flights longer than this land wherever they are.
const maxFlightTicks = 60 * TickRate

// Options configure a Jump. Zero values fall back to the defaults.
type Options struct {
	Tuning    *Tuning
	Ruleset   *Ruleset
	Rand      Rand
	BestScore int
}

// Jump simulates one attempt from run-up to run complete. It is not safe for
// concurrent use; the host drives it from a single loop.
type Jump struct {
	hill    hill.Profile
	tuning  Tuning
	rules   Ruleset
	rng     Rand
	state   JumpState
	judging *Judging
	flight  int
}

func NewJump(h hill.Profile, opts Options) *Jump {
	t := DefaultTuning()
	if opts.Tuning != nil {
		t = *opts.Tuning
	}
	rules := rulesets[DefaultRuleset]
	if opts.Ruleset != nil && opts.Ruleset.Landing != nil {
		rules = *opts.Ruleset
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	wind := 0
	if t.MaxWind > 0 {
		wind = rng.Intn(2*t.MaxWind+1) - t.MaxWind
	}

	return &Jump{
		hill:   h,
		tuning: t,
		rules:  rules,
		rng:    rng,
		state: JumpState{
			Phase:     PhaseRunUp,
			BodyAngle: h.InrunAngle,
			Wind:      float64(wind),
			Gate:      t.Gate,
			BestScore: opts.BestScore,
		},
	}
}

func (j *Jump) Hill() hill.Profile { return j.hill }
func (j *Jump) Ruleset() Ruleset   { return j.rules }
func (j *Jump) Phase() JumpPhase   { return j.state.Phase }
func (j *Jump) Complete() bool     { return j.state.Complete }

// State returns a copy of the current state.
func (j *Jump) State() JumpState { return j.state }

// Judging returns the landing breakdown, or nil before landing.
func (j *Jump) Judging() *Judging {
	if j.judging == nil {
		return nil
	}
	cp := *j.judging
	return &cp
}

func (j *Jump) Snapshot() Snapshot {
	return Snapshot{JumpState: j.state, Hill: j.hill.Key}
}

// Step applies the queued commands in order, then advances the simulation by
// one tick of dt seconds. A non-positive dt or a completed run leaves the
// state untouched.
func (j *Jump) Step(dt float64, cmds []Command) (Snapshot, []Event) {
	if dt <= 0 || j.state.Complete {
		return j.Snapshot(), nil
	}

	var events []Event
	for _, c := range cmds {
		if ev, ok := j.apply(c); ok {
			events = append(events, ev)
		}
	}

	j.state.Tick++
	switch j.state.Phase {
	case PhaseRunUp:
		if ev, ok := j.tickRunUp(dt); ok {
			events = append(events, ev)
		}
	case PhaseFlight:
		if ev, ok := j.tickFlight(dt); ok {
			events = append(events, ev)
		}
	case PhaseLanded:
		if ev, ok := j.tickLanded(dt); ok {
			events = append(events, ev)
		}
	}
	return j.Snapshot(), events
}

// apply executes one command. Commands that do not fit the current phase
// are ignored.
func (j *Jump) apply(c Command) (Event, bool) {
	switch c {
	case CmdTakeoff:
		if j.state.Phase == PhaseRunUp {
			return j.takeoff(false), true
		}
	case CmdPitchUp:
		j.pitch(-1)
	case CmdPitchDown:
		j.pitch(1)
	}
	return Event{}, false
}

func (j *Jump) pitch(dir float64) {
	s := &j.state
	if s.Phase != PhaseFlight {
		return
	}
	s.BodyAngle += dir * j.tuning.PitchStep
	if m := j.tuning.MaxBodyAngle; m > 0 {
		s.BodyAngle = clamp(s.BodyAngle, -m, m)
	}
}

func (j *Jump) takeoff(forced bool) Event {
	s := &j.state
	t := j.tuning

	timing := t.Timing(s.X)
	speed := t.LaunchSpeed(j.hill.BaseSpeed, s.Gate)
	s.VX = speed * timing
	s.VY = -t.LiftImpulse * timing
	s.Timing = timing
	s.TakeoffX = s.X
	s.TakeoffY = s.Y
	s.Distance = 0
	s.Phase = PhaseFlight

	return Event{Kind: EventTakeoff, Tick: s.Tick, Timing: timing, Forced: forced}
}

func (j *Jump) tickRunUp(dt float64) (Event, bool) {
	s := &j.state
	t := j.tuning

	s.VX = t.RunUpSpeed(j.hill.BaseSpeed, s.Gate)
	s.VY = 0
	s.X += s.VX * dt
	s.Distance = s.X

	if s.X > t.LiftPointX+t.ToleranceWindow {
		return j.takeoff(true), true
	}
	return Event{}, false
}

func (j *Jump) tickFlight(dt float64) (Event, bool) {
	s := &j.state

	j.rules.Aero.Apply(s)
	s.VY += j.tuning.Gravity * dt
	s.X += s.VX * dt
	s.Y += s.VY * dt
	if s.VX > 0 {
		s.Distance += s.VX * j.tuning.DistanceScale
	}
	j.flight++

	if j.rules.Landing.Touchdown(j.hill, s) || j.flight >= maxFlightTicks {
		return j.land(), true
	}
	return Event{}, false
}

func (j *Jump) land() Event {
	s := &j.state

	if dx := s.X - s.TakeoffX; dx > 0 {
		if surface := s.TakeoffY + j.rules.Landing.Surface(j.hill, dx); s.Y > surface {
			s.Y = surface
		}
	}
	s.VX, s.VY = 0, 0

	judged := Judge(j.tuning, j.hill, s.Distance, s.BodyAngle, j.rng)
	j.judging = &judged
	s.Score = judged.Score
	if s.Score > s.BestScore {
		s.BestScore = s.Score
	}
	s.Phase = PhaseLanded

	cp := judged
	return Event{Kind: EventLanded, Tick: s.Tick, Judging: &cp}
}

func (j *Jump) tickLanded(dt float64) (Event, bool) {
	s := &j.state
	s.LandedFor += dt
	if s.LandedFor < j.tuning.CompleteDelay {
		return Event{}, false
	}
	s.Complete = true
	return Event{Kind: EventRunComplete, Tick: s.Tick, Score: s.Score, BestScore: s.BestScore}, true
}
