package peers

import (
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds the dispatcher settings that can come from the environment.
// Command-line flags take precedence.
type Config struct {
	Debug    bool   `env:"PEERS_DEBUG"     envDefault:"false"`
	LogLevel string `env:"PEERS_LOG_LEVEL" envDefault:"warn"`

	// Columns is kept as text: shells export all sorts of things in
	// COLUMNS and a bad value must not stop the program.
	Columns string `env:"COLUMNS"`
}

// Width returns the help width requested through COLUMNS, or 0 when it is
// unset or not a positive number so that the terminal is asked instead.
func (c Config) Width() int {
	w, err := strconv.Atoi(strings.TrimSpace(c.Columns))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// LoadConfig reads a .env file from the working directory, if there is one,
// and then parses the environment into a Config.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse env")
	}
	return cfg, nil
}
