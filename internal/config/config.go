package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	SPADir   string     `env:"SPA_DIR" envDefault:""`

	PackID       string `env:"PACK_ID" envDefault:"classic"`
	Rounds       int    `env:"ROUNDS" envDefault:"3"`
	RoundSeconds int    `env:"ROUND_SECONDS" envDefault:"300"`
	VoteSeconds  int    `env:"VOTE_SECONDS" envDefault:"60"`
	MinPlayers   int    `env:"MIN_PLAYERS" envDefault:"3"`

	// bcrypt hash of the operator passcode; ops endpoints are disabled
	// when empty.
	OpsPasscodeHash string `env:"OPS_PASSCODE_HASH" envDefault:""`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("ROUNDS must be positive")
	}
	if cfg.RoundSeconds <= 0 || cfg.VoteSeconds <= 0 {
		return nil, fmt.Errorf("ROUND_SECONDS and VOTE_SECONDS must be positive")
	}
	if cfg.MinPlayers < 3 {
		return nil, fmt.Errorf("MIN_PLAYERS must be at least 3")
	}
	return &cfg, nil
}
