package config

import (
	"errors"
	"io"
	"io/fs"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	loopcfg "github.com/tomz197/typefall/internal/loop/config"
)

// Config holds all process configuration, grouped by concern.
type Config struct {
	Game    GameConfig
	Player  PlayerConfig
	SSH     SSHConfig
	Web     WebConfig
	Score   ScoreConfig
	Logging LoggingConfig
}

// GameConfig holds the periods of the three session tasks.
type GameConfig struct {
	SpawnEvery time.Duration
	TickEvery  time.Duration
	RampEvery  time.Duration
}

// PlayerConfig is the identity used by the local terminal game.
type PlayerConfig struct {
	Address       string
	Username      string
	Authenticated bool
}

// SSHConfig configures the SSH game host.
type SSHConfig struct {
	Host        string
	Port        string
	HostKeyPath string
}

// WebConfig configures the score endpoint and landing page.
type WebConfig struct {
	Host           string
	Port           string
	SSHDisplayHost string
	Env            string // "development" or "production"
}

// ScoreConfig configures the score submission client.
type ScoreConfig struct {
	EndpointURL string
	Timeout     time.Duration
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level  string
	Format string // "text", "json" or "logfmt"
	File   string // terminal game only: stdout is the screen
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over .env entries.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return &Config{
		Game: GameConfig{
			SpawnEvery: GetEnvDuration("TYPEFALL_SPAWN_EVERY", loopcfg.SpawnEvery),
			TickEvery:  GetEnvDuration("TYPEFALL_TICK_EVERY", loopcfg.TickEvery),
			RampEvery:  GetEnvDuration("TYPEFALL_RAMP_EVERY", loopcfg.RampEvery),
		},
		Player: PlayerConfig{
			Address:       GetEnv("TYPEFALL_ADDRESS", ""),
			Username:      GetEnv("TYPEFALL_USERNAME", ""),
			Authenticated: GetEnvBool("TYPEFALL_AUTHENTICATED", true),
		},
		SSH: SSHConfig{
			Host:        GetEnv("SSH_HOST", "::"),
			Port:        GetEnv("SSH_PORT", "2222"),
			HostKeyPath: GetEnv("SSH_HOST_KEY", ".ssh/typefall_ed25519"),
		},
		Web: WebConfig{
			Host:           GetEnv("WEB_HOST", "0.0.0.0"),
			Port:           GetEnv("WEB_PORT", "8080"),
			SSHDisplayHost: GetEnv("SSH_DISPLAY_HOST", "localhost -p 2222"),
			Env:            GetEnv("ENV", "development"),
		},
		Score: ScoreConfig{
			EndpointURL: GetEnv("SCORE_ENDPOINT", "http://localhost:8080"),
			Timeout:     GetEnvDuration("SCORE_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "text"),
			File:   GetEnv("LOG_FILE", ""),
		},
	}, nil
}

// Addr returns the SSH listen address.
func (c SSHConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Addr returns the HTTP listen address.
func (c WebConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c WebConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// NewLogger builds the root logger. Unknown levels fall back to info.
func (c LoggingConfig) NewLogger(w io.Writer) *log.Logger {
	level, err := log.ParseLevel(strings.ToLower(c.Level))
	if err != nil {
		level = log.InfoLevel
	}

	var formatter log.Formatter
	switch strings.ToLower(c.Format) {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	default:
		formatter = log.TextFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		ReportTimestamp: true,
	})
}
