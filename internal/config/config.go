package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8000"`

	DBDriver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN    string `env:"DB_DSN"    envDefault:"db.sqlite"`

	SecretKey            string        `env:"SECRET_KEY"`
	AccessTokenLifetime  time.Duration `env:"ACCESS_TOKEN_LIFETIME"  envDefault:"5m"`
	RefreshTokenLifetime time.Duration `env:"REFRESH_TOKEN_LIFETIME" envDefault:"24h"`

	OpenAIAPIKey         string        `env:"OPENAI_API_KEY"`
	OpenAIModel          string        `env:"OPENAI_MODEL"           envDefault:"gpt-5-mini"`
	TransformTimeout     time.Duration `env:"TRANSFORM_TIMEOUT"      envDefault:"120s"`
	TransformMinInterval time.Duration `env:"TRANSFORM_MIN_INTERVAL" envDefault:"0s"`
	InstructionsFile     string        `env:"INSTRUCTIONS_FILE"`

	MaxBodyBytes    int64  `env:"MAX_BODY_BYTES"   envDefault:"1048576"`
	MaintenanceSpec string `env:"MAINTENANCE_SPEC" envDefault:"0 * * * *"`
}

func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// ValidateServe checks the settings only the HTTP server needs.
func (c Config) ValidateServe() error {
	var errs []error

	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	if c.AccessTokenLifetime <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_LIFETIME must be positive"))
	}
	if c.RefreshTokenLifetime <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_LIFETIME must be positive"))
	}
	if c.TransformTimeout <= 0 {
		errs = append(errs, errors.New("TRANSFORM_TIMEOUT must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("MAX_BODY_BYTES must be positive"))
	}

	return errors.Join(errs...)
}
