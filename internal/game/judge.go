package game

import (
	"math"
	"sort"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

// Rand is the random source for wind and judge jitter. *rand.Rand satisfies
// it; tests pass a fixed source.
type Rand interface {
	Intn(n int) int
}

// JudgeNotes produces one note per judge for a landing at angle degrees.
func JudgeNotes(t Tuning, angle float64, rng Rand) (notes [JudgeCount]int, telemark, steep bool) {
	a := math.Abs(angle)
	telemark = a < t.TelemarkThreshold
	steep = a > t.SteepThreshold

	base := t.BaseNote
	if steep {
		base -= t.SteepPenalty
	}
	if telemark {
		base += t.TelemarkBonus
	}
	for i := range notes {
		notes[i] = base + jitter(rng, t.JudgeJitter)
	}
	return notes, telemark, steep
}

func jitter(rng Rand, spread int) int {
	if spread == 0 || rng == nil {
		return 0
	}
	return rng.Intn(2*spread+1) - spread
}

// StyleScore drops the lowest and highest notes and sums the rest. The
// result does not depend on the order of notes.
func StyleScore(notes [JudgeCount]int) int {
	sorted := notes
	sort.Ints(sorted[:])
	sum := 0
	for _, n := range sorted[TrimCount : JudgeCount-TrimCount] {
		sum += n
	}
	return sum
}

// DistanceScore awards points relative to the K-point.
func DistanceScore(t Tuning, distance, kPoint float64) float64 {
	return (distance-kPoint)*t.DistanceMultiplier + t.DistanceOffset
}

// Judge scores a finished flight.
func Judge(t Tuning, h hill.Profile, distance, angle float64, rng Rand) Judging {
	notes, telemark, steep := JudgeNotes(t, angle, rng)
	style := StyleScore(notes)
	dist := DistanceScore(t, distance, h.KPoint)
	return Judging{
		LandingAngle:  angle,
		Telemark:      telemark,
		Steep:         steep,
		Notes:         notes,
		StyleScore:    style,
		DistanceScore: dist,
		Distance:      distance,
		Score:         int(math.Floor(dist + float64(style))),
	}
}
