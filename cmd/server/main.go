package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vladimirvolkov/skijump/server/internal/config"
	"github.com/vladimirvolkov/skijump/server/internal/game"
	"github.com/vladimirvolkov/skijump/server/internal/hill"
	"github.com/vladimirvolkov/skijump/server/internal/middleware"
	"github.com/vladimirvolkov/skijump/server/internal/store"
	"github.com/vladimirvolkov/skijump/server/internal/ws"
)

// securityHeaders wraps a handler with common security response headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy",
			"default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:; img-src 'self' data:")
		next.ServeHTTP(w, r)
	})
}

// SessionManager starts one jump session per connection.
type SessionManager struct {
	cfg game.SessionConfig
}

func (sm *SessionManager) StartSession(conn *ws.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	session := game.NewSession(conn, sm.cfg)
	session.Start(ctx, conn.ReadLoop(ctx))
	go func() {
		<-session.Done()
		cancel()
		conn.Close()
	}()
}

type hillsResponse struct {
	Hills     []hill.Profile `json:"hills"`
	BestScore int            `json:"bestScore"`
	Ruleset   string         `json:"ruleset"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func main() {
	// Write logs to stdout so the platform doesn't mark them as errors
	log.SetOutput(os.Stdout)

	config.InitEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		log.Fatalf("hills: %v", err)
	}
	best := store.NewBest(store.NewFileKV(cfg.ScoreFile))
	log.Printf("%d hills, ruleset %s, gate %d, best score %d", catalog.Len(), cfg.Ruleset.Name, cfg.Tuning.Gate, best.Value())

	limits := middleware.DefaultLimits()
	limits.MaxConnsPerIP = cfg.MaxConnsPerIP
	limits.MsgRate = cfg.MsgRate
	limiter := middleware.NewIPRateLimiter(limits)
	defer limiter.Stop()

	manager := &SessionManager{cfg: game.SessionConfig{
		Catalog:        catalog,
		Best:           best,
		Tuning:         cfg.Tuning,
		Ruleset:        cfg.Ruleset,
		BroadcastEvery: 1,
	}}
	hub := ws.NewHub(manager, limiter, cfg.AllowedOrigins)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)

	// Health / stats endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hub.Stats())
	})

	mux.HandleFunc("/api/hills", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, hillsResponse{
			Hills:     catalog.List(),
			BestScore: best.Value(),
			Ruleset:   cfg.Ruleset.Name,
		})
	})

	// Static files with no-cache headers (prevents stale JS in browser)
	fs := http.FileServer(http.Dir(cfg.StaticDir))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
		fs.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           securityHeaders(mux),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("shutting down...")
		server.Close()
	}()

	log.Printf("ski jump server starting on :%s", cfg.Port)
	log.Printf("serving static files from %s", cfg.StaticDir)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
	log.Println("server stopped")
}
