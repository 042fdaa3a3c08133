// Package config loads the server configuration from the environment.
//
// An optional .env file in the working directory is read first; variables
// already set in the process environment win over it.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

type Config struct {
	Port int `env:"PORT" env-default:"5000"`

	Log    LogConfig
	Store  StoreConfig
	Auth   AuthConfig
	CORS   CORSConfig
	GitHub GitHubConfig `env-prefix:"GITHUB_"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Pretty bool   `env:"LOG_PRETTY" env-default:"false"`
}

type StoreConfig struct {
	Driver        string `env:"STORE_DRIVER" env-default:"sqlite"`
	DBPath        string `env:"DB_PATH" env-default:"data/notekeep.db"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" env-default:"notekeep"`
}

type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"168h"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
}

// GitHubConfig enables GitHub sign-in when ClientID is set.
type GitHubConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether GitHub sign-in should be offered.
func (g GitHubConfig) Enabled() bool { return g.ClientID != "" }

// Load reads .env (if present) and the environment, then validates.
func Load() (Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: reading environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the combinations cleanenv cannot express.
func (c Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverMongo, c.Store.Driver))
	}

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET is required and must be at least 16 characters"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", c.Auth.TokenTTL))
	}

	if c.GitHub.Enabled() && (c.GitHub.ClientSecret == "" || c.GitHub.CallbackURL == "") {
		errs = append(errs, errors.New("GITHUB_CLIENT_SECRET and GITHUB_CALLBACK_URL are required when GITHUB_CLIENT_ID is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
