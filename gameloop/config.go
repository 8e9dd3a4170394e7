package gameloop

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the engine needs at construction. The CLI or
// host UI resolves these before handing them over; nothing reads the
// environment after startup.
type Config struct {
	APIKey          string `env:"CLAUDEMON_API_KEY"`
	Model           string `env:"CLAUDEMON_MODEL" envDefault:"sonnet"`
	ThinkingEnabled bool   `env:"CLAUDEMON_THINKING" envDefault:"false"`
	SearchEnabled   bool   `env:"CLAUDEMON_SEARCH" envDefault:"false"`
	ThinkingBudget  int    `env:"CLAUDEMON_THINKING_BUDGET" envDefault:"2048"`
	MaxTokens       int    `env:"CLAUDEMON_MAX_TOKENS" envDefault:"1024"`

	TurnInterval         time.Duration `env:"CLAUDEMON_TURN_INTERVAL" envDefault:"2s"`
	RequestTimeout       time.Duration `env:"CLAUDEMON_REQUEST_TIMEOUT" envDefault:"30s"`
	MaxConsecutiveErrors int           `env:"CLAUDEMON_MAX_ERRORS" envDefault:"3"`
	BackoffBase          time.Duration `env:"CLAUDEMON_BACKOFF_BASE" envDefault:"2s"`
	BackoffMax           time.Duration `env:"CLAUDEMON_BACKOFF_MAX" envDefault:"60s"`

	MaxRepeat       int           `env:"CLAUDEMON_MAX_REPEAT" envDefault:"10"`
	DirectionalUnit time.Duration `env:"CLAUDEMON_DIRECTIONAL_UNIT" envDefault:"500ms"`
	TapDuration     time.Duration `env:"CLAUDEMON_TAP_DURATION" envDefault:"150ms"`

	MaxNotes       int `env:"CLAUDEMON_MAX_NOTES" envDefault:"20"`
	MaxHistory     int `env:"CLAUDEMON_MAX_HISTORY" envDefault:"10"`
	MaxTurnRecords int `env:"CLAUDEMON_MAX_TURN_RECORDS" envDefault:"10"`

	// SessionFile is the persistence path; empty disables persistence.
	SessionFile string `env:"CLAUDEMON_SESSION_FILE"`

	// CriticalSaveSlot receives a best-effort save state when the loop
	// halts on a critical error.
	CriticalSaveSlot int `env:"CLAUDEMON_CRITICAL_SAVE_SLOT" envDefault:"9"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Model:                "sonnet",
		ThinkingBudget:       2048,
		MaxTokens:            1024,
		TurnInterval:         2 * time.Second,
		RequestTimeout:       30 * time.Second,
		MaxConsecutiveErrors: 3,
		BackoffBase:          2 * time.Second,
		BackoffMax:           60 * time.Second,
		MaxRepeat:            10,
		DirectionalUnit:      500 * time.Millisecond,
		TapDuration:          150 * time.Millisecond,
		MaxNotes:             20,
		MaxHistory:           10,
		MaxTurnRecords:       10,
		CriticalSaveSlot:     9,
	}
}

// LoadConfig reads configuration from the environment, loading a .env
// file first if one exists.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields a running session depends on.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API key not configured")
	}
	if c.TurnInterval <= 0 {
		return fmt.Errorf("turn interval must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.MaxRepeat < 1 {
		return fmt.Errorf("max repeat must be at least 1")
	}
	return nil
}
