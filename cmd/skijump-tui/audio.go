package main

import (
	"log"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// sound plays short generated tones. The zero value is silent.
type sound struct {
	on bool
}

func newSound() *sound {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		// the game runs without sound
		log.Printf("audio disabled: %v", err)
		return &sound{}
	}
	return &sound{on: true}
}

func note(freq float64, d time.Duration) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		log.Printf("tone %.0fHz: %v", freq, err)
		return beep.Silence(sampleRate.N(d))
	}
	return beep.Take(sampleRate.N(d), sine)
}

func (s *sound) play(st beep.Streamer) {
	if !s.on {
		return
	}
	speaker.Play(&effects.Volume{Streamer: st, Base: 2, Volume: -2})
}

// takeoff pitches up with better timing.
func (s *sound) takeoff(timing float64) {
	s.play(note(440+440*timing, 80*time.Millisecond))
}

func (s *sound) landed(telemark bool) {
	if telemark {
		s.play(beep.Seq(note(659.25, 90*time.Millisecond), note(987.77, 160*time.Millisecond)))
		return
	}
	s.play(note(220, 150*time.Millisecond))
}

func (s *sound) close() {
	if s.on {
		speaker.Close()
	}
}
