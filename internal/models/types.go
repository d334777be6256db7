package models

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	config "github.com/CodeAndHammer/whackamole/internal/config"
	game "github.com/CodeAndHammer/whackamole/internal/game"
)

// SessionEntry is one browser session's game.
type SessionEntry struct {
	Game           *game.Game
	LastAccessTime time.Time
}

// RateLimiterEntry is a rate limiter for one client IP.
type RateLimiterEntry struct {
	Limiter        *rate.Limiter
	LastAccessTime time.Time
}

type App struct {
	Config       *config.Config
	Sessions     map[string]*SessionEntry
	SessionMutex sync.RWMutex
	LimiterMap   map[string]*RateLimiterEntry
	LimiterMutex sync.RWMutex
	StartTime    time.Time
	// NewGame builds the game for a fresh session.
	NewGame func() (*game.Game, error)
}

func NewApp(cfg *config.Config) *App {
	return &App{
		Config:     cfg,
		Sessions:   make(map[string]*SessionEntry),
		LimiterMap: make(map[string]*RateLimiterEntry),
		StartTime:  time.Now(),
		NewGame: func() (*game.Game, error) {
			return game.New(game.Options{
				Slots:      cfg.Slots,
				Duration:   cfg.Duration,
				Difficulty: cfg.Difficulty,
			})
		},
	}
}
