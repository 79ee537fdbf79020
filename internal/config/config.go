// Package config reads server settings from the environment. A .env file in
// the working directory is loaded first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vladimirvolkov/skijump/server/internal/game"
	"github.com/vladimirvolkov/skijump/server/internal/hill"
)

type Config struct {
	Port           string
	StaticDir      string
	AllowedOrigins []string
	HillsFile      string
	ScoreFile      string
	MaxConnsPerIP  int
	MsgRate        int

	Tuning  game.Tuning
	Ruleset game.Ruleset
}

// InitEnv loads .env into the process environment. A missing file is fine.
func InitEnv(files ...string) {
	err := godotenv.Load(files...)
	switch {
	case err == nil:
		log.Println("loaded environment from .env")
	case errors.Is(err, fs.ErrNotExist):
	default:
		log.Printf("ignoring .env: %v", err)
	}
}

// Load builds the configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		StaticDir: getEnv("STATIC_DIR", "../client/dist"),
		HillsFile: os.Getenv("HILLS_FILE"),
		ScoreFile: getEnv("SCORE_FILE", "best.yaml"),
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	var err error
	if cfg.MaxConnsPerIP, err = getInt("MAX_CONNS_PER_IP", 4); err != nil {
		return Config{}, err
	}
	if cfg.MsgRate, err = getInt("MSG_RATE", 120); err != nil {
		return Config{}, err
	}

	cfg.Tuning = game.DefaultTuning()
	if path := os.Getenv("TUNING_FILE"); path != "" {
		if cfg.Tuning, err = game.LoadTuning(path); err != nil {
			return Config{}, err
		}
	}
	if cfg.Tuning.Gate, err = getInt("GATE", cfg.Tuning.Gate); err != nil {
		return Config{}, err
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return Config{}, fmt.Errorf("tuning: %w", err)
	}

	if cfg.Ruleset, err = game.LookupRuleset(getEnv("RULESET", game.DefaultRuleset)); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Catalog returns the hill catalogue from HILLS_FILE, or the built-in one.
func (c Config) Catalog() (*hill.Catalog, error) {
	if c.HillsFile == "" {
		return hill.Default(), nil
	}
	return hill.Load(c.HillsFile)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0, got %d", key, v)
	}
	return v, nil
}
