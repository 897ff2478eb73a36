package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/park"
)

// EnvConfigPath names the environment variable consulted by Resolve.
const EnvConfigPath = "XP_CONFIG"

// StartingConfig holds the resources a new campaign begins with.
// Zero fields take the defaults.
type StartingConfig struct {
	Credits       int    `json:"credits"`
	Power         int    `json:"power"`
	MaxPower      int    `json:"max_power"`
	Visitors      int    `json:"visitors"`
	Security      string `json:"security"`
	DailyExpenses int    `json:"daily_expenses"`
	TicketPrice   int    `json:"ticket_price"`
	PowerRegen    int    `json:"power_regen"`
	VisitorGrowth int    `json:"visitor_growth"`
}

// Config holds the server's runtime configuration.
type Config struct {
	DBPath               string         `json:"db_path"`
	ListenAddr           string         `json:"listen_addr"`
	CatalogPath          string         `json:"catalog_path"`
	CountdownSec         int            `json:"countdown_sec"`
	GraceMS              int            `json:"grace_ms"`
	DayIntervalSec       int            `json:"day_interval_sec"`
	HistoryCap           int            `json:"history_cap"`
	Seed                 uint64         `json:"seed"`
	RateLimitPerMinute   int            `json:"rate_limit_per_minute"`
	AutosaveIntervalSec  int            `json:"autosave_interval_sec"`
	MaxCheckpoints       int            `json:"max_checkpoints"`
	LogLevel             string         `json:"log_level"`
	NotificationCapacity int            `json:"notification_capacity"`
	Starting             StartingConfig `json:"starting"`
}

// Load reads a JSON config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Resolve picks the config file path: an explicit flag value wins, then
// $XP_CONFIG, then config.json next to the executable, then in the working
// directory. It returns "" when none exists.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	var candidates []string
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "config.json"))
	}
	candidates = append(candidates, "config.json")
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) applyDefaults() {
	if c.DBPath == "" {
		c.DBPath = "xenopark.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":9810"
	}
	if c.CountdownSec == 0 {
		c.CountdownSec = 30
	}
	if c.GraceMS == 0 {
		c.GraceMS = 500
	}
	if c.DayIntervalSec == 0 {
		c.DayIntervalSec = 60
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 120
	}
	if c.AutosaveIntervalSec == 0 {
		c.AutosaveIntervalSec = 300
	}
	if c.MaxCheckpoints == 0 {
		c.MaxCheckpoints = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.NotificationCapacity == 0 {
		c.NotificationCapacity = 50
	}

	s := &c.Starting
	if s.Credits == 0 {
		s.Credits = 5000
	}
	if s.MaxPower == 0 {
		s.MaxPower = 100
	}
	if s.Power == 0 {
		s.Power = s.MaxPower
	}
	if s.Visitors == 0 {
		s.Visitors = 50
	}
	if s.Security == "" {
		s.Security = string(domain.SecurityMedium)
	}
	if s.DailyExpenses == 0 {
		s.DailyExpenses = 200
	}
	if s.TicketPrice == 0 {
		s.TicketPrice = 10
	}
	if s.PowerRegen == 0 {
		s.PowerRegen = 10
	}
}

func (c *Config) validate() error {
	var problems []string

	if c.CountdownSec < 0 {
		problems = append(problems, "countdown_sec must be positive")
	}
	if c.GraceMS < 0 {
		problems = append(problems, "grace_ms must not be negative")
	}
	if c.DayIntervalSec < 0 {
		problems = append(problems, "day_interval_sec must be positive")
	}
	if c.HistoryCap < 0 {
		problems = append(problems, "history_cap must not be negative")
	}
	if c.MaxCheckpoints < 0 {
		problems = append(problems, "max_checkpoints must be positive")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		problems = append(problems, fmt.Sprintf("log_level %q is not a level", c.LogLevel))
	}
	if !domain.SecurityLevel(c.Starting.Security).Valid() {
		problems = append(problems, fmt.Sprintf("starting.security %q is not a security level", c.Starting.Security))
	}
	if c.Starting.MaxPower < 0 || c.Starting.Power > c.Starting.MaxPower {
		problems = append(problems, "starting.power must be within max_power")
	}
	if c.Starting.Credits < 0 || c.Starting.Visitors < 0 || c.Starting.DailyExpenses < 0 {
		problems = append(problems, "starting resources must not be negative")
	}

	if len(problems) > 0 {
		return &domain.EngineError{
			Code:    domain.ErrConfigInvalid.Code,
			Message: fmt.Sprintf("%s: %v", domain.ErrConfigInvalid.Message, problems),
		}
	}
	return nil
}

// Grace returns the delay between a response and its consequences.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.GraceMS) * time.Millisecond
}

// DayInterval returns the wall-clock length of one simulated day.
func (c *Config) DayInterval() time.Duration {
	return time.Duration(c.DayIntervalSec) * time.Second
}

// AutosaveInterval returns the autosave period. A negative
// autosave_interval_sec disables autosave and yields zero.
func (c *Config) AutosaveInterval() time.Duration {
	if c.AutosaveIntervalSec < 0 {
		return 0
	}
	return time.Duration(c.AutosaveIntervalSec) * time.Second
}

// Park converts the starting block into the park's configuration.
func (c *Config) Park() park.Config {
	s := c.Starting
	return park.Config{
		Starting: domain.Resources{
			Credits:       s.Credits,
			Power:         s.Power,
			MaxPower:      s.MaxPower,
			Visitors:      s.Visitors,
			Security:      domain.SecurityLevel(s.Security),
			DailyExpenses: s.DailyExpenses,
		},
		TicketPrice:   s.TicketPrice,
		PowerRegen:    s.PowerRegen,
		VisitorGrowth: s.VisitorGrowth,
	}
}
