package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config covers the ambient concerns only. Strategy parameters (position
// limit, tick size, hedge threshold and deadline) are build-time constants
// in internal/trader, not runtime configuration.
type Config struct {
	Log      LoggingConfig  `yaml:"log"`
	Session  SessionConfig  `yaml:"session"`
	State    StateConfig    `yaml:"state"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Recorder RecorderConfig `yaml:"recorder"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// SessionConfig points at the venue's execution endpoint. The login
// secret comes from the EXSIM_SECRET environment variable, never from the
// config file.
type SessionConfig struct {
	URL            string        `yaml:"url"`
	Team           string        `yaml:"team"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

type RecorderConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  string `yaml:"chat_id"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Session.URL == "" {
		cfg.Session.URL = "ws://127.0.0.1:12347/exec"
	}
	if cfg.Session.ReconnectDelay == 0 {
		cfg.Session.ReconnectDelay = 3 * time.Second
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/exsim-maker-bot.db"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = "127.0.0.1:9109"
	}
	if cfg.Recorder.Schema == "" {
		cfg.Recorder.Schema = "public"
	}
	if cfg.Recorder.QueueSize == 0 {
		cfg.Recorder.QueueSize = 256
	}
}

func validate(cfg *Config) error {
	if cfg.Session.Team == "" {
		return errors.New("session.team is required")
	}
	if cfg.Recorder.Enabled && cfg.Recorder.DSN == "" {
		return errors.New("recorder.dsn is required when recorder is enabled")
	}
	if cfg.Telegram.Enabled && (cfg.Telegram.Token == "" || cfg.Telegram.ChatID == "") {
		return errors.New("telegram.token and telegram.chat_id are required when telegram is enabled")
	}
	return nil
}
