package config

import "time"

// Config is the root configuration for a dealwatch instance.
type Config struct {
	Instance  InstanceConfig `yaml:"instance"`
	Sources   SourcesConfig  `yaml:"sources"`
	Database  DBConfig       `yaml:"database"`
	Monitor   MonitorConfig  `yaml:"monitor"`
	Detect    DetectConfig   `yaml:"detect"`
	Notify    NotifyConfig   `yaml:"notify"`
	Server    ServerConfig   `yaml:"server"`
	Watchlist string         `yaml:"watchlist"` // Optional path to a watchlist YAML file
}

// InstanceConfig identifies this monitor.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// SourcesConfig holds the two independent provider configurations.
// The providers meter independently, so budgets are never shared.
type SourcesConfig struct {
	Live    SourceConfig `yaml:"live"`
	History SourceConfig `yaml:"history"`
}

// SourceConfig holds one provider's endpoint and rate-limit contract.
type SourceConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
	MaxWait           time.Duration `yaml:"max_wait"` // Ceiling on blocking for a token
	MaxRetries        int           `yaml:"max_retries"`
	RetryBackoff      time.Duration `yaml:"retry_backoff"`
	Timeout           time.Duration `yaml:"timeout"`
	NotFoundTTL       time.Duration `yaml:"not_found_ttl"` // Negative-cache lifetime for unknown items
}

// DBConfig holds the Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// MonitorConfig holds orchestrator settings.
type MonitorConfig struct {
	Interval        time.Duration `yaml:"interval"`         // Time between scheduled ticks
	Concurrency     int           `yaml:"concurrency"`      // Max items checked in parallel
	HistoryLookback int           `yaml:"history_lookback"` // Prior records loaded per item
	Cooldown        time.Duration `yaml:"cooldown"`         // Alert dedup window, uniform per signature
}

// DetectConfig holds the deal-strategy thresholds.
type DetectConfig struct {
	DropThresholdPercent float64  `yaml:"drop_threshold_percent"`
	ClearanceKeywords    []string `yaml:"clearance_keywords"`
	MinSavingsPercent    float64  `yaml:"min_savings_percent"`
	TargetROIPercent     float64  `yaml:"target_roi_percent"`
	FBAFeePercent        float64  `yaml:"fba_fee_percent"`
	ReferralFeePercent   float64  `yaml:"referral_fee_percent"`
}

// NotifyConfig holds optional notification channels. The structured log
// notifier is always on; these add delivery targets.
type NotifyConfig struct {
	DiscordWebhookURL string   `yaml:"discord_webhook_url"`
	KafkaBrokers      []string `yaml:"kafka_brokers"`
	KafkaTopic        string   `yaml:"kafka_topic"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}
