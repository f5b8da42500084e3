package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-eventus/internal/models"
)

// Topics carries the configured lifecycle notification topic names.
type Topics struct {
	EventsRefreshed string
	EventsExpired   string
	EventsCreated   string
}

type Producer struct {
	Writer *kafka.Writer
	Topics Topics
}

func NewProducer(brokers []string, topics Topics) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

type refreshNotification struct {
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

type expiryNotification struct {
	Count     int64     `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishEventsRefreshed streams a notification after a refresh cycle
// replaced the system event pool.
func (p *Producer) PublishEventsRefreshed(count int) error {
	return p.publish(p.Topics.EventsRefreshed, "refresh", refreshNotification{Count: count, Timestamp: time.Now()})
}

// PublishEventsExpired streams a notification after the expiry sweep
// deactivated one or more events.
func (p *Producer) PublishEventsExpired(count int64) error {
	return p.publish(p.Topics.EventsExpired, "sweep", expiryNotification{Count: count, Timestamp: time.Now()})
}

// PublishEventCreated streams a user-submitted event after insertion.
func (p *Producer) PublishEventCreated(event models.Event) error {
	return p.publish(p.Topics.EventsCreated, strconv.FormatInt(event.ID, 10), event)
}

func (p *Producer) publish(topic, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
