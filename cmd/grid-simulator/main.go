// Package main provides a development-time load generator for the alert
// service. It publishes synthetic regional aggregates and anomaly events to
// the inbound grid topic so the full pipeline can be exercised locally.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"alert-service/internal/events"
	"alert-service/internal/shared"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 10 * time.Second

type simulatorConfig struct {
	KafkaBrokers    string
	Topic           string
	Regions         string
	MetersPerRegion int
	Interval        time.Duration
	Duration        time.Duration
	BaseLoad        float64
	LoadJitter      float64
	DropoutRate     float64
	AnomalyRate     float64
	Seed            int64
}

func (c *simulatorConfig) validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	if c.Regions == "" {
		return fmt.Errorf("regions cannot be empty")
	}
	if c.MetersPerRegion <= 0 {
		return fmt.Errorf("meters-per-region must be > 0")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0")
	}
	if c.BaseLoad < 0 || c.BaseLoad > 100 {
		return fmt.Errorf("base-load must be in [0, 100]")
	}
	if c.DropoutRate < 0 || c.DropoutRate > 1 {
		return fmt.Errorf("dropout-rate must be in [0, 1]")
	}
	if c.AnomalyRate < 0 || c.AnomalyRate > 1 {
		return fmt.Errorf("anomaly-rate must be in [0, 1]")
	}
	return nil
}

func main() {
	cfg := &simulatorConfig{}
	flag.StringVar(&cfg.KafkaBrokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&cfg.Topic, "topic", shared.GetEnvOrDefault("INBOUND_TOPIC", "grid.events"), "Kafka topic for inbound grid events")
	flag.StringVar(&cfg.Regions, "regions", "north,south,east,west", "Region names (comma-separated)")
	flag.IntVar(&cfg.MetersPerRegion, "meters-per-region", 25, "Number of meters simulated per region")
	flag.DurationVar(&cfg.Interval, "interval", 10*time.Second, "Aggregate publication interval")
	flag.DurationVar(&cfg.Duration, "duration", 0, "How long to run (0 = until interrupted)")
	flag.Float64Var(&cfg.BaseLoad, "base-load", 70.0, "Baseline regional load percentage")
	flag.Float64Var(&cfg.LoadJitter, "load-jitter", 25.0, "Maximum random deviation from the baseline load")
	flag.Float64Var(&cfg.DropoutRate, "dropout-rate", 0.02, "Probability that a meter skips a reporting interval")
	flag.Float64Var(&cfg.AnomalyRate, "anomaly-rate", 0.05, "Probability of an anomaly event per region per interval")
	flag.Int64Var(&cfg.Seed, "seed", 0, "Random seed for deterministic generation (0 = random)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	slog.Info("Starting grid-simulator",
		"kafka_brokers", cfg.KafkaBrokers,
		"topic", cfg.Topic,
		"regions", cfg.Regions,
		"meters_per_region", cfg.MetersPerRegion,
		"interval", cfg.Interval,
		"duration", cfg.Duration,
		"base_load", cfg.BaseLoad,
		"dropout_rate", cfg.DropoutRate,
		"anomaly_rate", cfg.AnomalyRate,
		"seed", cfg.Seed,
	)

	if err := cfg.validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
		defer cancel()
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	brokerList := strings.Split(cfg.KafkaBrokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: writeTimeout,
		Async:        false,
	}
	defer writer.Close()

	sim := &simulator{cfg: cfg, rng: rng, writer: writer, regions: parseRegions(cfg.Regions)}

	slog.Info("Publishing synthetic grid events", "regions", sim.regions)
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Publish one round immediately so short runs produce data
	sim.publishRound(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Grid simulator stopped", "aggregates", sim.aggregatesSent, "anomalies", sim.anomaliesSent)
			return
		case <-ticker.C:
			sim.publishRound(ctx)
		}
	}
}

func parseRegions(s string) []string {
	parts := strings.Split(s, ",")
	regions := make([]string, 0, len(parts))
	for _, p := range parts {
		if r := strings.TrimSpace(p); r != "" {
			regions = append(regions, r)
		}
	}
	return regions
}

type simulator struct {
	cfg     *simulatorConfig
	rng     *rand.Rand
	writer  *kafka.Writer
	regions []string

	aggregatesSent int
	anomaliesSent  int
}

// publishRound emits one aggregate per region plus occasional anomalies.
func (s *simulator) publishRound(ctx context.Context) {
	now := time.Now().UTC()
	for _, region := range s.regions {
		agg := s.buildAggregate(region, now)
		if err := s.publish(ctx, []byte(region), agg); err != nil {
			slog.Error("Failed to publish aggregate", "region", region, "error", err)
			continue
		}
		s.aggregatesSent++
		slog.Info("Published aggregate",
			"region", region,
			"load_percentage", fmt.Sprintf("%.1f", agg.LoadPercentage),
			"active_meters", len(agg.ActiveMeters),
		)

		if s.rng.Float64() < s.cfg.AnomalyRate {
			anomaly := s.buildAnomaly(region, now)
			if err := s.publish(ctx, []byte(anomaly.ID), anomaly); err != nil {
				slog.Error("Failed to publish anomaly", "region", region, "error", err)
				continue
			}
			s.anomaliesSent++
			slog.Info("Published anomaly",
				"id", anomaly.ID, "region", region, "severity", anomaly.Severity)
		}
	}
}

// buildAggregate simulates one reporting interval for a region. Meters drop
// out at the configured rate, which is what drives outage detection
// downstream.
func (s *simulator) buildAggregate(region string, now time.Time) *events.RegionalAggregate {
	active := make([]string, 0, s.cfg.MetersPerRegion)
	var total, max float64
	min := -1.0

	for i := 1; i <= s.cfg.MetersPerRegion; i++ {
		if s.rng.Float64() < s.cfg.DropoutRate {
			continue
		}
		consumption := 2.0 + s.rng.Float64()*10.0
		total += consumption
		if consumption > max {
			max = consumption
		}
		if min < 0 || consumption < min {
			min = consumption
		}
		active = append(active, fmt.Sprintf("%s-m-%d", region, i))
	}
	if min < 0 {
		min = 0
	}

	load := s.cfg.BaseLoad + s.cfg.LoadJitter*(2*s.rng.Float64()-1)
	if load < 0 {
		load = 0
	}
	if load > 100 {
		load = 100
	}

	avg := 0.0
	if len(active) > 0 {
		avg = total / float64(len(active))
	}

	return &events.RegionalAggregate{
		Region:           region,
		Timestamp:        now,
		MeterCount:       len(active),
		TotalConsumption: total,
		AvgConsumption:   avg,
		MaxConsumption:   max,
		MinConsumption:   min,
		LoadPercentage:   load,
		ActiveMeters:     active,
	}
}

func (s *simulator) buildAnomaly(region string, now time.Time) *events.AnomalyEvent {
	severities := []string{"low", "medium", "high", "critical"}
	kinds := []string{"voltage sag", "voltage spike", "frequency drift", "phase imbalance"}
	kind := kinds[s.rng.Intn(len(kinds))]
	meter := fmt.Sprintf("%s-m-%d", region, 1+s.rng.Intn(s.cfg.MetersPerRegion))

	return &events.AnomalyEvent{
		ID:        uuid.New().String(),
		Type:      "anomaly",
		Severity:  severities[s.rng.Intn(len(severities))],
		Region:    region,
		MeterID:   meter,
		Message:   fmt.Sprintf("Detected %s at %s", kind, meter),
		Timestamp: now,
		Metadata:  map[string]string{"detector": "grid-simulator"},
	}
}

func (s *simulator) publish(ctx context.Context, key []byte, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}
