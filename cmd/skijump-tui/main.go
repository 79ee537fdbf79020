// Command skijump-tui plays the ski jump in a terminal.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/vladimirvolkov/skijump/server/internal/config"
	"github.com/vladimirvolkov/skijump/server/internal/game"
	"github.com/vladimirvolkov/skijump/server/internal/hill"
	"github.com/vladimirvolkov/skijump/server/internal/store"
)

type app struct {
	screen  tcell.Screen
	catalog *hill.Catalog
	best    *store.Best
	tuning  game.Tuning
	rules   game.Ruleset
	sound   *sound
	rng     game.Rand

	jump    *game.Jump // nil in the menu
	pending []game.Command
	result  *game.Judging // last landed run
}

// key handles one key press and reports whether the game should go on.
func (a *app) key(k tcell.Key, r rune) bool {
	if k == tcell.KeyCtrlC {
		return false
	}
	if a.jump == nil {
		return a.menuKey(k, r)
	}

	switch {
	case k == tcell.KeyEscape:
		log.Printf("run on %s abandoned", a.jump.Hill().Key)
		a.jump = nil
		a.pending = nil
	case k == tcell.KeyUp:
		a.pending = append(a.pending, game.CmdPitchUp)
	case k == tcell.KeyDown:
		a.pending = append(a.pending, game.CmdPitchDown)
	case k == tcell.KeyEnter, k == tcell.KeyRune && r == ' ':
		a.pending = append(a.pending, game.CmdTakeoff)
	}
	return true
}

func (a *app) menuKey(k tcell.Key, r rune) bool {
	if k == tcell.KeyEscape || (k == tcell.KeyRune && r == 'q') {
		return false
	}
	if k != tcell.KeyRune {
		return true
	}
	switch {
	case r >= '1' && r <= '9':
		hills := a.catalog.List()
		if i := int(r - '1'); i < len(hills) {
			a.startRun(hills[i])
		}
	case r == 'r':
		names := game.RulesetNames()
		for i, n := range names {
			if n == a.rules.Name {
				a.rules, _ = game.LookupRuleset(names[(i+1)%len(names)])
				break
			}
		}
	case r == '+':
		a.tuning.Gate++
	case r == '-':
		a.tuning.Gate = max(a.tuning.Gate-1, 0)
	}
	return true
}

func (a *app) startRun(h hill.Profile) {
	tuning := a.tuning
	rules := a.rules
	a.jump = game.NewJump(h, game.Options{
		Tuning:    &tuning,
		Ruleset:   &rules,
		Rand:      a.rng,
		BestScore: a.best.Value(),
	})
	a.pending = nil
	st := a.jump.State()
	log.Printf("run on %s (wind %+.0f, gate %d, %s)", h.Key, st.Wind, st.Gate, rules.Name)
}

// tick advances the current run by one fixed step.
func (a *app) tick() {
	if a.jump == nil {
		return
	}
	cmds := a.pending
	a.pending = nil
	_, events := a.jump.Step(game.DT, cmds)

	for _, ev := range events {
		switch ev.Kind {
		case game.EventTakeoff:
			a.sound.takeoff(ev.Timing)
		case game.EventLanded:
			j := ev.Judging
			log.Printf("LANDED: %.1fm on %s, angle %.0f, notes %v, score %d",
				j.Distance, a.jump.Hill().Key, j.LandingAngle, j.Notes, j.Score)
			a.result = j
			a.sound.landed(j.Telemark)
		case game.EventRunComplete:
			if _, err := a.best.Record(ev.Score); err != nil {
				log.Printf("%v", err)
			}
			a.jump = nil
		}
	}
}

func (a *app) run() {
	ticker := time.NewTicker(time.Second / game.TickRate)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !a.key(ev.Key(), ev.Rune()) {
					return
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
		case <-ticker.C:
			a.tick()
			a.draw()
		}
	}
}

func main() {
	config.InitEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "hills: %v\n", err)
		os.Exit(1)
	}

	logPath := os.Getenv("LOG_FILE")
	if logPath == "" {
		logPath = "skijump-tui.log"
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	screen.HideCursor()

	a := &app{
		screen:  screen,
		catalog: catalog,
		best:    store.NewBest(store.NewFileKV(cfg.ScoreFile)),
		tuning:  cfg.Tuning,
		rules:   cfg.Ruleset,
		sound:   newSound(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	defer func() {
		a.sound.close()
		screen.Fini()
	}()

	a.run()
	log.Printf("quit with best score %d", a.best.Value())
}
