package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Vodeneev/betengine/internal/engine"
)

type Config struct {
	Postgres PostgresConfig `yaml:"postgres"`
	Provider ProviderConfig `yaml:"provider"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
	Engine   engine.Config  `yaml:"engine"`
	LiveFeed LiveFeedConfig `yaml:"live_feed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// ProviderConfig points at the upstream odds/predictions HTTP API.
type ProviderConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AnalyzerConfig struct {
	AsyncEnabled         bool    `yaml:"async_enabled"`          // Enable background scanning
	AsyncInterval        string  `yaml:"async_interval"`         // Interval between scans (e.g., "30s")
	KeepTop              int     `yaml:"keep_top"`               // Recommendations to retain per scan (default: 50)
	AlertCooldownMinutes int     `yaml:"alert_cooldown_minutes"` // Minutes to wait before re-alerting the same fixture (default: 60)
	AlertMinIncrease     float64 `yaml:"alert_min_increase"`     // Minimum margin increase to re-alert early (default: 1.0)
	UpsetAlertThreshold  int     `yaml:"upset_alert_threshold"`  // Upset score that triggers an alert (default: 70)
	TelegramBotToken     string  `yaml:"telegram_bot_token"`     // Telegram bot token for notifications
	TelegramChatID       int64   `yaml:"telegram_chat_id"`       // Telegram chat ID to send notifications
}

type LiveFeedConfig struct {
	URL                  string  `yaml:"url"`
	AlertMinEdge         float64 `yaml:"alert_min_edge"`         // Minimum candidate edge in percent to alert on (default: 10)
	AlertCooldownMinutes int     `yaml:"alert_cooldown_minutes"` // Minutes to wait before re-alerting the same fixture (default: 15)
}

type LoggingConfig struct {
	Level    string `yaml:"level"`     // debug, info, warn, error
	JSONFile string `yaml:"json_file"` // Optional path for a JSON log file
}

func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}
