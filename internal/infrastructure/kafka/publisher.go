// Package kafka publica los eventos del núcleo en Kafka (segmentio/kafka-go).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
)

var _ events.Publisher = (*Publisher)(nil)

// messageWriter subconjunto de *kafkago.Writer que usa el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Topics destino por familia de evento.
type Topics struct {
	Inventory string // stock.*
	Tenants   string // tenant.*
}

// Publisher escribe cada evento como JSON con Key = event.Key (orden por ítem o tenant).
type Publisher struct {
	writer messageWriter
	topics Topics
}

// NewPublisher crea el writer. El topic va en cada mensaje.
func NewPublisher(brokers []string, topics Topics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
	return &Publisher{writer: w, topics: topics}
}

// Publish serializa y escribe el evento.
func (p *Publisher) Publish(ctx context.Context, ev events.Event) error {
	topic, err := p.topicFor(ev.Type)
	if err != nil {
		return err
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento %s: %w", ev.Type, err)
	}
	msg := kafkago.Message{
		Topic: topic,
		Key:   []byte(ev.Key),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "tenant-id", Value: []byte(ev.TenantID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("escribir evento %s en %s: %w", ev.Type, topic, err)
	}
	return nil
}

func (p *Publisher) topicFor(eventType string) (string, error) {
	family, _, _ := strings.Cut(eventType, ".")
	switch family {
	case "stock":
		return p.topics.Inventory, nil
	case "tenant":
		return p.topics.Tenants, nil
	}
	return "", fmt.Errorf("tipo de evento sin topic: %q", eventType)
}

// Close libera el writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
