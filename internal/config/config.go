package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	constants "github.com/CodeAndHammer/whackamole/internal/constants"
	difficulty "github.com/CodeAndHammer/whackamole/internal/difficulty"
	util "github.com/CodeAndHammer/whackamole/internal/util"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Port           string           `yaml:"port"`
	Duration       int              `yaml:"duration"`
	Difficulty     difficulty.Level `yaml:"difficulty"`
	Slots          int              `yaml:"slots"`
	Production     bool             `yaml:"production"`
	LogLevel       string           `yaml:"log_level"`
	CookieMaxAge   time.Duration    `yaml:"cookie_max_age"`
	StaticCacheAge time.Duration    `yaml:"static_cache_age"`
	RateLimitRPS   int              `yaml:"rate_limit_rps"`
	RateLimitBurst int              `yaml:"rate_limit_burst"`
	RateLimiterTTL time.Duration    `yaml:"rate_limiter_ttl"`
	SessionTTL     time.Duration    `yaml:"session_ttl"`
}

func Default() *Config {
	return &Config{
		Port:           "8080",
		Duration:       constants.DefaultDuration,
		Difficulty:     difficulty.Normal,
		Slots:          constants.DefaultSlots,
		LogLevel:       "info",
		CookieMaxAge:   2 * time.Hour,
		StaticCacheAge: 5 * time.Minute,
		RateLimitRPS:   20,
		RateLimitBurst: 40,
		RateLimiterTTL: time.Hour,
		SessionTTL:     3 * time.Hour,
	}
}

// Load layers configuration: defaults, then the optional YAML file at path,
// then .env and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	_ = godotenv.Load()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	util.LogInfo("Loaded config from %s", path)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = util.GetEnvString("PORT", c.Port)
	c.Duration = util.GetEnvInt("GAME_DURATION", c.Duration)
	c.Slots = util.GetEnvInt("GAME_SLOTS", c.Slots)
	if label := os.Getenv("GAME_DIFFICULTY"); label != "" {
		if err := c.Difficulty.Set(label); err != nil {
			util.LogWarn("Invalid GAME_DIFFICULTY: %v, using %s", err, c.Difficulty)
		}
	}
	if os.Getenv("GIN_MODE") == "release" || os.Getenv("ENV") == "production" {
		c.Production = true
	}
	c.LogLevel = util.GetEnvString("LOG_LEVEL", c.LogLevel)
	c.CookieMaxAge = util.GetEnvDuration("COOKIE_MAX_AGE", c.CookieMaxAge)
	c.StaticCacheAge = util.GetEnvDuration("STATIC_CACHE_AGE", c.StaticCacheAge)
	c.RateLimitRPS = util.GetEnvInt("RATE_LIMIT_RPS", c.RateLimitRPS)
	c.RateLimitBurst = util.GetEnvInt("RATE_LIMIT_BURST", c.RateLimitBurst)
	c.RateLimiterTTL = util.GetEnvDuration("RATE_LIMITER_TTL", c.RateLimiterTTL)
	c.SessionTTL = util.GetEnvDuration("SESSION_TTL", c.SessionTTL)
}

func (c *Config) Validate() error {
	if c.Duration < 1 {
		return fmt.Errorf("duration %d: %w", c.Duration, ErrInvalidConfig)
	}
	if c.Slots < 1 {
		return fmt.Errorf("slots %d: %w", c.Slots, ErrInvalidConfig)
	}
	if _, err := difficulty.Parse(string(c.Difficulty)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Port == "" {
		return fmt.Errorf("empty port: %w", ErrInvalidConfig)
	}
	return nil
}
