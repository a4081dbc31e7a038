// Package config provides configuration parsing and validation for the alert service.
package config

import (
	"fmt"
	"time"
)

// Config holds all configuration parameters for the alert service.
type Config struct {
	HTTPPort            string
	KafkaBrokers        string
	InboundTopic        string
	ProcessedTopic      string
	StatusTopic         string
	ConsumerGroupID     string
	ConsumerConcurrency int
	MessageTimeout      time.Duration
	PostgresDSN         string
	RedisAddr           string

	// Detection thresholds for the rule evaluator.
	OverloadThresholdPercent float64
	OverloadWindowsRequired  int
	OverloadLookback         time.Duration
	OutageThreshold          time.Duration
	DedupTTL                 time.Duration
}

// Validate checks that all required configuration fields are set and have valid values.
// Returns an error if validation fails, nil otherwise.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.InboundTopic == "" {
		return fmt.Errorf("inbound-topic cannot be empty")
	}
	if c.ProcessedTopic == "" {
		return fmt.Errorf("processed-topic cannot be empty")
	}
	if c.StatusTopic == "" {
		return fmt.Errorf("status-topic cannot be empty")
	}
	if c.ConsumerGroupID == "" {
		return fmt.Errorf("consumer-group-id cannot be empty")
	}
	if c.ConsumerConcurrency <= 0 {
		return fmt.Errorf("consumer-concurrency must be > 0")
	}
	if c.MessageTimeout <= 0 {
		return fmt.Errorf("message-timeout must be > 0")
	}
	if c.PostgresDSN == "" {
		return fmt.Errorf("postgres-dsn cannot be empty")
	}
	if c.RedisAddr == "" {
		return fmt.Errorf("redis-addr cannot be empty")
	}
	if c.OverloadThresholdPercent <= 0 || c.OverloadThresholdPercent > 100 {
		return fmt.Errorf("overload-threshold must be in (0, 100]")
	}
	if c.OverloadWindowsRequired <= 0 {
		return fmt.Errorf("overload-windows must be > 0")
	}
	if c.OverloadLookback <= 0 {
		return fmt.Errorf("overload-lookback must be > 0")
	}
	if c.OutageThreshold <= 0 {
		return fmt.Errorf("outage-threshold must be > 0")
	}
	if c.DedupTTL <= 0 {
		return fmt.Errorf("dedup-ttl must be > 0")
	}
	return nil
}
