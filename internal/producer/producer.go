// Package producer provides Kafka producer functionality for the processed
// alerts and alert status topics.
package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"alert-service/internal/database"
	"alert-service/internal/events"

	"github.com/segmentio/kafka-go"
)

const (
	// writeTimeout is the maximum time to wait for a Kafka write operation.
	writeTimeout = 10 * time.Second
	// schemaVersion tags every outbound message so downstream consumers can
	// handle format changes.
	schemaVersion = "1"
)

// Producer wraps two Kafka writers and publishes processed alerts and alert
// status updates.
type Producer struct {
	processedWriter *kafka.Writer
	statusWriter    *kafka.Writer
	processedTopic  string
	statusTopic     string
}

// NewProducer creates a new Kafka producer with the specified brokers and
// topics. Both writers are configured for at-least-once delivery semantics
// with synchronous writes.
func NewProducer(brokers string, processedTopic string, statusTopic string) (*Producer, error) {
	if brokers == "" {
		return nil, fmt.Errorf("brokers cannot be empty")
	}
	if processedTopic == "" {
		return nil, fmt.Errorf("processedTopic cannot be empty")
	}
	if statusTopic == "" {
		return nil, fmt.Errorf("statusTopic cannot be empty")
	}

	// Parse comma-separated broker list
	brokerList := strings.Split(brokers, ",")
	for i := range brokerList {
		brokerList[i] = strings.TrimSpace(brokerList[i])
	}

	slog.Info("Initializing Kafka producer",
		"brokers", brokerList,
		"processed_topic", processedTopic,
		"status_topic", statusTopic,
	)

	// Try to create topics if they don't exist (best effort, may fail silently)
	createTopicIfNotExists(brokerList[0], processedTopic)
	createTopicIfNotExists(brokerList[0], statusTopic)

	slog.Info("Kafka producer configured",
		"write_timeout", writeTimeout,
		"required_acks", "RequireOne",
		"async", false,
		"balancer", "Hash (key-based partitioning)",
		"partition_key", "alert_id (hashed)",
	)

	return &Producer{
		processedWriter: newWriter(brokerList, processedTopic),
		statusWriter:    newWriter(brokerList, statusTopic),
		processedTopic:  processedTopic,
		statusTopic:     statusTopic,
	}, nil
}

// newWriter configures a Kafka writer for at-least-once delivery. Messages
// are keyed by alert id, so every message for one alert lands on the same
// partition and consumers observe its transitions in order.
func newWriter(brokerList []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokerList...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Key-based partitioning (hashes the message key)
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne, // At-least-once semantics (waits for leader ack)
		Async:        false,            // Synchronous writes for reliability and error handling
	}
}

// createTopicIfNotExists attempts to create the topic if it doesn't exist.
// This is a best-effort operation and failures are logged but don't prevent producer creation.
func createTopicIfNotExists(broker, topic string) {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		slog.Warn("Could not connect to Kafka to check/create topic",
			"broker", broker,
			"topic", topic,
			"error", err,
			"note", "Topic may need to be created manually",
		)
		return
	}
	defer conn.Close()

	// Check if topic exists
	partitions, err := conn.ReadPartitions(topic)
	if err == nil && len(partitions) > 0 {
		slog.Info("Topic already exists",
			"topic", topic,
			"partitions", len(partitions),
		)
		return
	}

	// Topic doesn't exist, try to create it
	topicConfig := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}

	err = conn.CreateTopics(topicConfig)
	if err != nil {
		slog.Warn("Could not create topic (may need to be created manually)",
			"topic", topic,
			"error", err,
			"tip", "Run: docker exec kafka kafka-topics --create --bootstrap-server localhost:9092 --topic "+topic+" --partitions 3 --replication-factor 1",
		)
		return
	}

	slog.Info("Created topic",
		"topic", topic,
		"partitions", 3,
		"replication_factor", 1,
	)
}

// PublishProcessedAlert serializes a stored alert to JSON and publishes it to
// the processed alerts topic, keyed by alert id.
func (p *Producer) PublishProcessedAlert(ctx context.Context, alert *database.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		slog.Error("Failed to marshal alert to JSON",
			"alert_id", alert.ID,
			"error", err,
		)
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(alert.ID),
		Value:   payload,
		Headers: alertHeaders(alert),
		Time:    alert.CreatedAt,
	}

	if err := p.processedWriter.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"alert_id", alert.ID,
			"topic", p.processedTopic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	return nil
}

// alertHeaders builds the routing headers for a processed alert. Headers with
// empty values are omitted.
func alertHeaders(alert *database.Alert) []kafka.Header {
	headers := []kafka.Header{
		{Key: "schema_version", Value: []byte(schemaVersion)},
		{Key: "alert_type", Value: []byte(alert.Type)},
		{Key: "severity", Value: []byte(alert.Severity)},
		{Key: "status", Value: []byte(alert.Status)},
	}
	if alert.Region != "" {
		headers = append(headers, kafka.Header{Key: "region", Value: []byte(alert.Region)})
	}
	if alert.MeterID != "" {
		headers = append(headers, kafka.Header{Key: "meter_id", Value: []byte(alert.MeterID)})
	}
	return headers
}

// PublishStatusUpdate serializes a status transition to JSON and publishes it
// to the status topic, keyed by alert id.
func (p *Producer) PublishStatusUpdate(ctx context.Context, update events.StatusUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		slog.Error("Failed to marshal status update to JSON",
			"alert_id", update.AlertID,
			"error", err,
		)
		return fmt.Errorf("failed to marshal status update: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(update.AlertID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "schema_version", Value: []byte(schemaVersion)},
			{Key: "status", Value: []byte(update.Status)},
		},
		Time: update.Timestamp,
	}

	if err := p.statusWriter.WriteMessages(ctx, msg); err != nil {
		slog.Error("Failed to write message to Kafka",
			"alert_id", update.AlertID,
			"topic", p.statusTopic,
			"error", err,
		)
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	return nil
}

// Close gracefully closes both Kafka writers and releases resources.
func (p *Producer) Close() error {
	slog.Info("Closing Kafka producer",
		"processed_topic", p.processedTopic,
		"status_topic", p.statusTopic,
	)

	var firstErr error
	if err := p.processedWriter.Close(); err != nil {
		slog.Error("Error closing processed alerts writer", "error", err)
		firstErr = err
	}
	if err := p.statusWriter.Close(); err != nil {
		slog.Error("Error closing status updates writer", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return firstErr
	}

	slog.Info("Kafka producer closed successfully")
	return nil
}
