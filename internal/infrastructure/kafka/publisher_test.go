package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/events"
)

type captureWriter struct {
	msgs []kafkago.Message
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestPublish_RuteaPorFamilia(t *testing.T) {
	w := &captureWriter{}
	p := &Publisher{writer: w, topics: Topics{Inventory: "inv", Tenants: "ten"}}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(context.Background(), events.Event{
		ID: "e1", Type: events.TypeMovementRecorded, Key: "item-1", TenantID: "t-1", OccurredAt: at,
		Payload: events.MovementRecorded{MovementID: "m-1", Quantity: "2"},
	}))
	require.NoError(t, p.Publish(context.Background(), events.Event{
		ID: "e2", Type: events.TypeTenantCodeAssigned, Key: "t-1", TenantID: "t-1", OccurredAt: at,
	}))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, "inv", w.msgs[0].Topic)
	assert.Equal(t, []byte("item-1"), w.msgs[0].Key)
	assert.Equal(t, "ten", w.msgs[1].Topic)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, events.TypeMovementRecorded, decoded["type"])
	assert.Equal(t, "m-1", decoded["payload"].(map[string]any)["movement_id"])
}

func TestPublish_TipoDesconocido(t *testing.T) {
	p := &Publisher{writer: &captureWriter{}, topics: Topics{Inventory: "inv", Tenants: "ten"}}
	assert.Error(t, p.Publish(context.Background(), events.Event{Type: "billing.invoice"}))
}
