// Package config loads the dbask configuration file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dbask/dbask/core"
	"github.com/dbask/dbask/llm"
)

type Config struct {
	Connection Connection `yaml:"connection"`
	LLM        LLM        `yaml:"llm"`
	Answer     Answer     `yaml:"answer"`
	Log        Log        `yaml:"log"`
}

type Connection struct {
	Dialect  string            `yaml:"dialect"`
	Database string            `yaml:"database"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Host     string            `yaml:"host"`
	Port     string            `yaml:"port"`
	Options  map[string]string `yaml:"options"`
}

type LLM struct {
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type Answer struct {
	StrictConclusion bool `yaml:"strict_conclusion"`
}

type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Connection: Connection{
			Dialect:  string(core.DialectSQLite),
			Database: core.DefaultDatabase,
		},
		LLM: LLM{
			BaseURL: "https://api.openai.com",
			APIKey:  `{{ env "OPENAI_API_KEY" }}`,
			Model:   "gpt-4",
			Timeout: 60 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// ConnectionConfig returns the expanded default connection.
func (c *Config) ConnectionConfig() (core.ConnectionConfig, error) {
	dialect, err := core.ParseDialect(c.Connection.Dialect)
	if err != nil {
		return core.ConnectionConfig{}, err
	}

	conn := core.ConnectionConfig{
		Dialect:  dialect,
		Database: c.Connection.Database,
		User:     c.Connection.User,
		Password: c.Connection.Password,
		Host:     c.Connection.Host,
		Port:     c.Connection.Port,
		Options:  c.Connection.Options,
	}
	conn, err = conn.Expand()
	if err != nil {
		return core.ConnectionConfig{}, err
	}

	return conn.WithDefaults(), nil
}

// OpenAIConfig returns the expanded generator settings.
func (c *Config) OpenAIConfig() (llm.OpenAIConfig, error) {
	baseURL, err := core.Expand(c.LLM.BaseURL)
	if err != nil {
		return llm.OpenAIConfig{}, fmt.Errorf("llm.base_url: %w", err)
	}
	apiKey, err := core.Expand(c.LLM.APIKey)
	if err != nil {
		return llm.OpenAIConfig{}, fmt.Errorf("llm.api_key: %w", err)
	}

	return llm.OpenAIConfig{
		BaseURL:     baseURL,
		APIKey:      apiKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLM.Timeout,
	}, nil
}

// Logger builds the process logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	if w == nil {
		w = io.Discard
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}

	var handler slog.Handler
	if c.Log.JSON {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With(slog.String("service", "dbask")), nil
}
