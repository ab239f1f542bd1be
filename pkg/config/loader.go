package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Validator is implemented by config structs that check cross-field rules
// after parsing.
type Validator interface {
	Validate() error
}

// Load parses environment variables into cfg using its `env` tags and, when
// cfg implements Validator, validates the result.
//
//	type Config struct {
//	    Port  int    `env:"REVIEW_HTTP_PORT" envDefault:"8080"`
//	    Token string `env:"ADMIN_TOKEN"`
//	}
func Load(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	return nil
}
