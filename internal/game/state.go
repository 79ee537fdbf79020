package game

// Simulation clock
const (
	TickRate = 50
	DT       = 1.0 / float64(TickRate)
)

type JumpPhase uint8

const (
	PhaseRunUp JumpPhase = iota
	PhaseFlight
	PhaseLanded
)

func (p JumpPhase) String() string {
	switch p {
	case PhaseRunUp:
		return "run_up"
	case PhaseFlight:
		return "flight"
	case PhaseLanded:
		return "landed"
	}
	return "unknown"
}

// Command is a discrete player input. Commands are queued by the host and
// applied at the start of the next tick.
type Command uint8

const (
	CmdNone Command = iota
	CmdTakeoff
	CmdPitchUp
	CmdPitchDown
)

var commandNames = map[string]Command{
	"takeoff":    CmdTakeoff,
	"pitch_up":   CmdPitchUp,
	"pitch_down": CmdPitchDown,
}

// ParseCommand maps a wire name to a Command. Unknown names yield CmdNone.
func ParseCommand(name string) Command {
	return commandNames[name]
}

func (c Command) String() string {
	for name, cmd := range commandNames {
		if cmd == c {
			return name
		}
	}
	return "none"
}

// JumpState is the mutable state of one attempt.
type JumpState struct {
	Tick      uint32    `json:"tick"`
	Phase     JumpPhase `json:"phase"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	VX        float64   `json:"vx"`
	VY        float64   `json:"vy"`
	BodyAngle float64   `json:"bodyAngle"` // degrees, negative is nose up
	Distance  float64   `json:"distance"`  // metres
	Wind      float64   `json:"wind"`
	Gate      int       `json:"gate"`
	Timing    float64   `json:"timing"` // takeoff quality, 0 until takeoff
	TakeoffX  float64   `json:"takeoffX"`
	TakeoffY  float64   `json:"takeoffY"`
	Score     int       `json:"score"`
	BestScore int       `json:"bestScore"`
	LandedFor float64   `json:"-"` // seconds spent in PhaseLanded
	Complete  bool      `json:"complete"`
}

// Snapshot is the read-only view handed to the presentation layer each tick.
type Snapshot struct {
	JumpState
	Hill string `json:"hill"`
}

// Judging is the breakdown computed once at landing.
type Judging struct {
	LandingAngle  float64         `json:"landingAngle"`
	Telemark      bool            `json:"telemark"`
	Steep         bool            `json:"steep"`
	Notes         [JudgeCount]int `json:"notes"`
	StyleScore    int             `json:"styleScore"`
	DistanceScore float64         `json:"distanceScore"`
	Distance      float64         `json:"distance"`
	Score         int             `json:"score"`
}

type EventKind uint8

const (
	EventTakeoff EventKind = iota + 1
	EventLanded
	EventRunComplete
)

// Event reports a phase transition that happened during a Step.
type Event struct {
	Kind      EventKind
	Tick      uint32
	Timing    float64  // EventTakeoff
	Forced    bool     // EventTakeoff: jumper ran past the table edge
	Judging   *Judging // EventLanded
	Score     int      // EventRunComplete
	BestScore int      // EventRunComplete
}
