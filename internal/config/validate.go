package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if err := c.Sources.Live.validate("sources.live"); err != nil {
		return err
	}
	if err := c.Sources.History.validate("sources.history"); err != nil {
		return err
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	if c.Monitor.Interval < 0 {
		return errors.New("monitor.interval must be positive")
	}
	if c.Monitor.Concurrency < 1 {
		return errors.New("monitor.concurrency must be >= 1")
	}
	if c.Monitor.HistoryLookback < 1 {
		return errors.New("monitor.history_lookback must be >= 1")
	}
	if c.Monitor.Cooldown <= 0 {
		return errors.New("monitor.cooldown must be positive")
	}

	if c.Detect.DropThresholdPercent <= 0 {
		return errors.New("detect.drop_threshold_percent must be positive")
	}
	if c.Detect.FBAFeePercent < 0 || c.Detect.ReferralFeePercent < 0 {
		return errors.New("detect fee percentages cannot be negative")
	}

	if len(c.Notify.KafkaBrokers) > 0 && c.Notify.KafkaTopic == "" {
		return errors.New("notify.kafka_topic is required when kafka_brokers is set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	return nil
}

func (s *SourceConfig) validate(prefix string) error {
	if s.BaseURL == "" {
		return fmt.Errorf("%s.base_url is required", prefix)
	}
	if s.RequestsPerWindow < 1 {
		return fmt.Errorf("%s.requests_per_window must be >= 1", prefix)
	}
	if s.Window <= 0 {
		return fmt.Errorf("%s.window must be positive", prefix)
	}
	if s.MaxWait <= 0 {
		return fmt.Errorf("%s.max_wait must be positive", prefix)
	}
	if s.MaxRetries < 0 {
		return fmt.Errorf("%s.max_retries cannot be negative", prefix)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns cannot be negative", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
