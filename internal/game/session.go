package game

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/vladimirvolkov/skijump/server/internal/hill"
	"github.com/vladimirvolkov/skijump/server/internal/store"
	"github.com/vladimirvolkov/skijump/server/internal/ws"
)

// Peer is the client end of a session.
type Peer interface {
	Send(msg ws.Message) bool
	Name() string
}

// SessionConfig is shared by all sessions of a server.
type SessionConfig struct {
	Catalog        *hill.Catalog
	Best           *store.Best
	Tuning         Tuning
	Ruleset        Ruleset
	BroadcastEvery int         // send jump_state every n ticks; transitions always send
	NewRand        func() Rand // nil seeds from the clock
}

// Session drives one client through hill selection, runs and results. The
// simulation only runs on the loop goroutine; the read side hands it
// commands through a mutex-guarded queue.
type Session struct {
	peer Peer
	cfg  SessionConfig
	rng  Rand

	mu        sync.Mutex
	pending   []Command
	selectKey string

	jump   *Jump // nil while the client is choosing a hill
	runs   int
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(peer Peer, cfg SessionConfig) *Session {
	if cfg.BroadcastEvery <= 0 {
		cfg.BroadcastEvery = 1
	}
	if cfg.Ruleset.Landing == nil {
		cfg.Ruleset = rulesets[DefaultRuleset]
	}
	var rng Rand
	if cfg.NewRand != nil {
		rng = cfg.NewRand()
	} else {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Session{
		peer: peer,
		cfg:  cfg,
		rng:  rng,
		done: make(chan struct{}),
	}
}

// Start sends the hill list and runs the session until ctx ends or inbox
// closes.
func (s *Session) Start(ctx context.Context, inbox <-chan ws.Message) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.sendHills()
	go s.readLoop(ctx, inbox)
	go func() {
		s.gameLoop(ctx)
		close(s.done)
	}()
}

// Done returns a channel that closes when the session's loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) readLoop(ctx context.Context, inbox <-chan ws.Message) {
	for {
		select {
		case msg, ok := <-inbox:
			if !ok {
				s.cancel()
				return
			}
			s.handleMessage(msg)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) handleMessage(msg ws.Message) {
	switch msg.Type {
	case ws.MsgSelectHill:
		sel, err := ws.DecodePayload[ws.SelectHillPayload](msg)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.selectKey = sel.Key
		s.mu.Unlock()

	case ws.MsgInput:
		in, err := ws.DecodePayload[ws.InputPayload](msg)
		if err != nil {
			return
		}
		cmd := ParseCommand(in.Command)
		if cmd == CmdNone {
			return
		}
		s.mu.Lock()
		s.pending = append(s.pending, cmd)
		s.mu.Unlock()

	case ws.MsgPing:
		var ping ws.PingPayload
		if err := json.Unmarshal(msg.Payload, &ping); err != nil {
			return
		}
		pong, _ := ws.NewMessage(ws.MsgPong, msg.Tick, ws.PongPayload{
			ClientTime: ping.ClientTime,
			ServerTime: uint64(time.Now().UnixMilli()),
		})
		s.peer.Send(pong)
	}
}

func (s *Session) gameLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-ctx.Done():
			log.Printf("%s left after %d runs", s.peer.Name(), s.runs)
			return
		}
	}
}

func (s *Session) tick() {
	s.mu.Lock()
	cmds := s.pending
	s.pending = nil
	key := s.selectKey
	s.selectKey = ""
	s.mu.Unlock()

	if s.jump == nil {
		// commands only mean something during a run
		if key != "" {
			s.startRun(key)
		}
		return
	}

	snap, events := s.jump.Step(DT, cmds)
	if len(events) > 0 || snap.Tick%uint32(s.cfg.BroadcastEvery) == 0 {
		s.send(ws.MsgJumpState, snap.Tick, snap)
	}
	for _, ev := range events {
		s.handleEvent(ev)
	}
}

func (s *Session) startRun(key string) {
	h, ok := s.cfg.Catalog.Select(key)
	if !ok {
		log.Printf("%s: unknown hill %q", s.peer.Name(), key)
		return
	}
	tuning := s.cfg.Tuning
	rules := s.cfg.Ruleset
	s.jump = NewJump(h, Options{
		Tuning:    &tuning,
		Ruleset:   &rules,
		Rand:      s.rng,
		BestScore: s.cfg.Best.Value(),
	})
	st := s.jump.State()
	s.send(ws.MsgRunStart, 0, ws.RunStartPayload{
		Hill:    h,
		Ruleset: rules.Name,
		Wind:    st.Wind,
		Gate:    st.Gate,
		Jumper:  s.peer.Name(),
	})
	log.Printf("%s: run on %s (wind %+.0f, gate %d, %s)", s.peer.Name(), h.Key, st.Wind, st.Gate, rules.Name)
}

func (s *Session) handleEvent(ev Event) {
	switch ev.Kind {
	case EventTakeoff:
		s.send(ws.MsgTakeoff, ev.Tick, ws.TakeoffPayload{Timing: ev.Timing, Forced: ev.Forced})

	case EventLanded:
		j := ev.Judging
		log.Printf("LANDED: %s %.1fm on %s, angle %.0f, notes %v, score %d",
			s.peer.Name(), j.Distance, s.jump.Hill().Key, j.LandingAngle, j.Notes, j.Score)
		s.send(ws.MsgLanded, ev.Tick, j)

	case EventRunComplete:
		best, err := s.cfg.Best.Record(ev.Score)
		if err != nil {
			log.Printf("%s: %v", s.peer.Name(), err)
		}
		s.send(ws.MsgRunComplete, ev.Tick, ws.RunCompletePayload{Score: ev.Score, BestScore: best})
		s.jump = nil
		s.runs++
		s.sendHills()
	}
}

func (s *Session) sendHills() {
	s.send(ws.MsgHills, 0, ws.HillsPayload{
		Hills:     s.cfg.Catalog.List(),
		BestScore: s.cfg.Best.Value(),
	})
}

func (s *Session) send(typ uint8, tick uint32, payload any) {
	msg, err := ws.NewMessage(typ, tick, payload)
	if err != nil {
		log.Printf("failed to encode message 0x%02x: %v", typ, err)
		return
	}
	s.peer.Send(msg)
}
