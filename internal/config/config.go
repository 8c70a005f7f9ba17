package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// Base URL the payment providers redirect back to, e.g.
	// https://app.example.com
	PublicURL string `yaml:"public_url"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	// HMAC secret the upstream auth layer signs user tokens with. This
	// service only verifies and extracts the user id.
	JWTSecret string `yaml:"jwt_secret"`
}

type ProducerConfig struct {
	Provider     string        `yaml:"provider"` // openai | gemini | stability | noop
	OpenAIKey    string        `yaml:"openai_key"`
	GeminiKey    string        `yaml:"gemini_key"`
	StabilityKey string        `yaml:"stability_key"`
	Model        string        `yaml:"model"`
	Timeout      time.Duration `yaml:"timeout"`
	ImageTokens  int64         `yaml:"image_tokens"` // tokens charged per image
	VideoTokens  int64         `yaml:"video_tokens"` // tokens charged per video
	RateLimit    int           `yaml:"rate_limit"`   // generations per user per window
	RateWindow   time.Duration `yaml:"rate_window"`
}

type PaymentConfig struct {
	PayPal struct {
		ClientID string `yaml:"client_id"`
		Secret   string `yaml:"secret"`
		Sandbox  bool   `yaml:"sandbox"`
	} `yaml:"paypal"`
	NOWPayments struct {
		APIKey  string `yaml:"api_key"`
		Sandbox bool   `yaml:"sandbox"`
	} `yaml:"nowpayments"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Producer   ProducerConfig   `yaml:"producer"`
	Payment    PaymentConfig    `yaml:"payment"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Producer.Timeout <= 0 {
		cfg.Producer.Timeout = 2 * time.Minute
	}
	if cfg.Producer.ImageTokens <= 0 {
		cfg.Producer.ImageTokens = 1
	}
	if cfg.Producer.VideoTokens <= 0 {
		cfg.Producer.VideoTokens = 5
	}
	if cfg.Producer.RateLimit <= 0 {
		cfg.Producer.RateLimit = 10
	}
	if cfg.Producer.RateWindow <= 0 {
		cfg.Producer.RateWindow = time.Minute
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !dev {
		return nil, errors.New("auth.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
