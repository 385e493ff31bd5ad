package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Database
	MinIO
	HTTPServer
	Board
}

type Database struct {
	Driver     string        `env:"DB_DRIVER" env-default:"postgres"`
	User       string        `env:"POSTGRES_USER" env-default:"postgres"`
	Pass       string        `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	Host       string        `env:"POSTGRES_HOST" env-default:"localhost"`
	Port       string        `env:"POSTGRES_PORT" env-default:"5432"`
	DB         string        `env:"POSTGRES_DB" env-default:"board"`
	SQLitePath string        `env:"SQLITE_PATH" env-default:"./board.db"`
	Timeout    time.Duration `env:"DB_TIMEOUT" env-default:"5s"`
	// Migrations points at a directory of migration files. Empty uses the
	// migrations embedded in the binary.
	Migrations string `env:"DB_MIGRATIONS"`
}

type MinIO struct {
	User   string        `env:"MINIO_USER" env-default:"minioadmin"`
	Pass   string        `env:"MINIO_PASSWORD" env-default:"minioadmin"`
	Host   string        `env:"MINIO_HOST" env-default:"localhost"`
	Port   string        `env:"MINIO_PORT" env-default:"9000"`
	Bucket string        `env:"MINIO_BUCKET" env-default:"board-images"`
	Secure bool          `env:"MINIO_SECURE" env-default:"false"`
	URLTTL time.Duration `env:"MINIO_URL_TTL" env-default:"3m"`
}

type HTTPServer struct {
	BindAddress     string        `env:"BIND_ADDRESS" env-default:"localhost"`
	BindPort        string        `env:"BIND_PORT" env-default:"8000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" env-default:"5s"`
}

// Board holds content policy knobs.
type Board struct {
	// Retention decides what happens to comments and likes of a deleted
	// board: "keep" leaves them as history, "purge" removes them.
	Retention string `env:"BOARD_RETENTION" env-default:"keep"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	RetentionKeep  = "keep"
	RetentionPurge = "purge"
)

func New(env string) (*Config, error) {
	conf := &Config{}

	if err := godotenv.Overload(env); err != nil {
		return nil, fmt.Errorf("godotenv.Overload: %v", err)
	}

	if err := cleanenv.ReadEnv(conf); err != nil {
		return nil, fmt.Errorf("cleanenv.Readenv: %v", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Board.Retention {
	case RetentionKeep, RetentionPurge:
	default:
		return fmt.Errorf("unknown BOARD_RETENTION %q", c.Board.Retention)
	}
	return nil
}
