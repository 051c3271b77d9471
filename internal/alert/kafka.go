package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/priceops/dealwatch/internal/model"
)

// KafkaNotifier publishes deal events to a Kafka topic so downstream
// consumers (dashboards, purchasing bots) can react to them.
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// dealEvent is the wire shape published to the topic.
type dealEvent struct {
	Signature       string    `json:"signature"`
	ItemID          string    `json:"item_id"`
	ItemTitle       string    `json:"item_title,omitempty"`
	DealType        string    `json:"deal_type"`
	CurrentPrice    float64   `json:"current_price"`
	ReferencePrice  float64   `json:"reference_price,omitempty"`
	DropPercent     float64   `json:"drop_percent,omitempty"`
	EstimatedProfit float64   `json:"estimated_profit,omitempty"`
	EstimatedROI    float64   `json:"estimated_roi,omitempty"`
	Window          string    `json:"window,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

// NewKafkaNotifier creates a notifier publishing to topic on the given
// brokers. Production waits for full ISR acknowledgement.
func NewKafkaNotifier(brokers []string, topic string) (*KafkaNotifier, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

func (n *KafkaNotifier) Notify(ctx context.Context, item model.Item, candidate model.DealCandidate) error {
	event := dealEvent{
		Signature:       candidate.Signature(),
		ItemID:          candidate.ItemID,
		ItemTitle:       item.Title,
		DealType:        string(candidate.Type),
		CurrentPrice:    candidate.CurrentPrice,
		ReferencePrice:  candidate.ReferencePrice,
		DropPercent:     candidate.DropPercent,
		EstimatedProfit: candidate.EstimatedProfit,
		EstimatedROI:    candidate.EstimatedROI,
		Window:          candidate.Window,
		DetectedAt:      candidate.DetectedAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal deal event: %w", err)
	}

	// Keyed by item so all deals for one item land on one partition.
	_, _, err = n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(candidate.ItemID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	return nil
}

// Close shuts down the underlying producer.
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
