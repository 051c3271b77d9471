package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultRequestsPerWindow = 60
	DefaultWindow            = 1 * time.Minute
	DefaultMaxWait           = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRetryBackoff      = 1 * time.Second
	DefaultSourceTimeout     = 10 * time.Second
	DefaultNotFoundTTL       = 6 * time.Hour

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2

	DefaultInterval        = 60 * time.Minute
	DefaultConcurrency     = 8
	DefaultHistoryLookback = 20
	DefaultCooldown        = 6 * time.Hour

	DefaultDropThresholdPercent = 10.0
	DefaultMinSavingsPercent    = 20.0
	DefaultTargetROIPercent     = 30.0
	DefaultFBAFeePercent        = 15.0
	DefaultReferralFeePercent   = 15.0

	DefaultServerPort = 8080
)

// DefaultClearanceKeywords flag titles that usually indicate end-of-line stock.
var DefaultClearanceKeywords = []string{"clearance", "closeout", "liquidation", "discontinued"}

func (c *Config) applyDefaults() {
	applySourceDefaults(&c.Sources.Live)
	applySourceDefaults(&c.Sources.History)

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Monitor defaults
	if c.Monitor.Interval == 0 {
		c.Monitor.Interval = DefaultInterval
	}
	if c.Monitor.Concurrency == 0 {
		c.Monitor.Concurrency = DefaultConcurrency
	}
	if c.Monitor.HistoryLookback == 0 {
		c.Monitor.HistoryLookback = DefaultHistoryLookback
	}
	if c.Monitor.Cooldown == 0 {
		c.Monitor.Cooldown = DefaultCooldown
	}

	// Detect defaults
	if c.Detect.DropThresholdPercent == 0 {
		c.Detect.DropThresholdPercent = DefaultDropThresholdPercent
	}
	if len(c.Detect.ClearanceKeywords) == 0 {
		c.Detect.ClearanceKeywords = DefaultClearanceKeywords
	}
	if c.Detect.MinSavingsPercent == 0 {
		c.Detect.MinSavingsPercent = DefaultMinSavingsPercent
	}
	if c.Detect.TargetROIPercent == 0 {
		c.Detect.TargetROIPercent = DefaultTargetROIPercent
	}
	if c.Detect.FBAFeePercent == 0 {
		c.Detect.FBAFeePercent = DefaultFBAFeePercent
	}
	if c.Detect.ReferralFeePercent == 0 {
		c.Detect.ReferralFeePercent = DefaultReferralFeePercent
	}

	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
}

func applySourceDefaults(s *SourceConfig) {
	if s.RequestsPerWindow == 0 {
		s.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if s.Window == 0 {
		s.Window = DefaultWindow
	}
	if s.MaxWait == 0 {
		s.MaxWait = DefaultMaxWait
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = DefaultMaxRetries
	}
	if s.RetryBackoff == 0 {
		s.RetryBackoff = DefaultRetryBackoff
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultSourceTimeout
	}
	if s.NotFoundTTL == 0 {
		s.NotFoundTTL = DefaultNotFoundTTL
	}
}
