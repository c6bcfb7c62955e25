package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMongo    = "mongo"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverJSON     = "json"
)

type Config struct {
	Token         string   `env:"DISCORD_BOT_TOKEN,required"`
	OwnerID       string   `env:"BOT_OWNER_ID,required"`
	DefaultPrefix string   `env:"DEFAULT_PREFIX" envDefault:"!"`
	NoPrefixUsers []string `env:"NO_PREFIX_USERS" envSeparator:","`
	Shards        int      `env:"SHARDS" envDefault:"0"`

	Database Database

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

type Database struct {
	Driver        string `env:"DB_DRIVER" envDefault:"badger"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"pookie"`
	URL           string `env:"DATABASE_URL"`
	DataPath      string `env:"DATA_PATH" envDefault:"./data"`
}

// Load reads an optional .env file and then parses the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %v: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DefaultPrefix == "" {
		return errors.New("DEFAULT_PREFIX cannot be empty")
	}
	if len(c.DefaultPrefix) > 5 {
		return errors.New("DEFAULT_PREFIX cannot be longer than 5 characters")
	}
	if c.Shards < 0 {
		return errors.New("SHARDS cannot be negative")
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.MongoURI == "" {
			return errors.New("MONGO_URI is required for the mongo driver")
		}
	case DriverPostgres, DriverSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %v driver", c.Database.Driver)
		}
	case DriverBadger, DriverJSON:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// IsNoPrefixUser reports whether the user may invoke commands without the prefix.
func (c *Config) IsNoPrefixUser(userID string) bool {
	if userID == c.OwnerID {
		return true
	}
	for _, id := range c.NoPrefixUsers {
		if id == userID {
			return true
		}
	}
	return false
}
