package game

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

// midRand always picks the middle of the range: zero jitter, zero wind.
type midRand struct{}

func (midRand) Intn(n int) int { return n / 2 }

// seqRand replays values, clamped to the requested range.
type seqRand struct {
	vals []int
	i    int
}

func (r *seqRand) Intn(n int) int {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return min(max(v, 0), n-1)
}

var k90 = hill.Profile{Key: "K90", Name: "Normal Hill K90", KPoint: 90, HillSize: 100, InrunAngle: -18, LandingAngle: 23.5, BaseSpeed: 23}

func TestJudgeK90Scenario(t *testing.T) {
	j := Judge(DefaultTuning(), k90, 95, 5, midRand{})
	if !j.Telemark || j.Steep {
		t.Fatalf("telemark=%v steep=%v, want true/false", j.Telemark, j.Steep)
	}
	for i, n := range j.Notes {
		if n != 20 {
			t.Fatalf("note %d = %d, want 20", i, n)
		}
	}
	if j.StyleScore != 60 {
		t.Fatalf("style = %d, want 60", j.StyleScore)
	}
	if j.DistanceScore < 68.999 || j.DistanceScore > 69.001 {
		t.Fatalf("distance score = %v, want 69", j.DistanceScore)
	}
	if j.Score != 129 {
		t.Fatalf("score = %d, want 129", j.Score)
	}
}

func TestJudgeNoteAdjustments(t *testing.T) {
	tu := DefaultTuning()
	cases := []struct {
		angle float64
		note  int
	}{
		{0, 20},
		{-9.9, 20},
		{10, 18},
		{-25, 18},
		{25.1, 15},
		{-60, 15},
	}
	for _, c := range cases {
		notes, _, _ := JudgeNotes(tu, c.angle, midRand{})
		for i, n := range notes {
			if n != c.note {
				t.Fatalf("angle %v: note %d = %d, want %d", c.angle, i, n, c.note)
			}
		}
	}
}

func TestTelemarkAddsTwoPerJudge(t *testing.T) {
	tu := DefaultTuning()
	tele, telemark, _ := JudgeNotes(tu, 5, midRand{})
	plain, plainTelemark, _ := JudgeNotes(tu, 15, midRand{})
	if !telemark || plainTelemark {
		t.Fatalf("telemark flags = %v/%v, want true/false", telemark, plainTelemark)
	}
	for i := range tele {
		if tele[i]-plain[i] != 2 {
			t.Fatalf("judge %d: telemark %d vs plain %d, want +2", i, tele[i], plain[i])
		}
	}
}

func TestJitterStaysInRange(t *testing.T) {
	tu := DefaultTuning()
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		notes, _, _ := JudgeNotes(tu, 0, rng)
		for _, n := range notes {
			if n < 19 || n > 21 {
				t.Fatalf("note %d outside [19, 21]", n)
			}
		}
	}
}

func TestJitterUsesInjectedSource(t *testing.T) {
	tu := DefaultTuning()
	notes, _, _ := JudgeNotes(tu, 15, &seqRand{vals: []int{0, 1, 2, 0, 2}})
	want := [JudgeCount]int{17, 18, 19, 17, 19}
	if notes != want {
		t.Fatalf("notes = %v, want %v", notes, want)
	}
}

func TestStyleScoreTrimmedSum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var notes [JudgeCount]int
		for k := range notes {
			notes[k] = 12 + rng.Intn(10)
		}
		sorted := notes
		sort.Ints(sorted[:])
		want := sorted[1] + sorted[2] + sorted[3]
		if got := StyleScore(notes); got != want {
			t.Fatalf("StyleScore(%v) = %d, want %d", notes, got, want)
		}

		shuffled := notes
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if StyleScore(shuffled) != want {
			t.Fatalf("StyleScore depends on order: %v vs %v", notes, shuffled)
		}
	}
}

func TestStyleScoreDoesNotMutate(t *testing.T) {
	notes := [JudgeCount]int{21, 17, 19, 18, 20}
	StyleScore(notes)
	if notes != [JudgeCount]int{21, 17, 19, 18, 20} {
		t.Fatalf("notes mutated: %v", notes)
	}
}

func TestScoreFloors(t *testing.T) {
	tu := DefaultTuning()
	// (90.5-90)*1.8+60 = 60.9 -> 60.9+54 floors to 114
	j := Judge(tu, k90, 90.5, 15, midRand{})
	if j.Score != 114 {
		t.Fatalf("score = %d, want 114", j.Score)
	}
	// short jumps can go below the offset
	j = Judge(tu, k90, 40, 30, midRand{})
	if want := int((40-90)*1.8 + 60 + 45); j.Score != want {
		t.Fatalf("score = %d, want %d", j.Score, want)
	}
}
