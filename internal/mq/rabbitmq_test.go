package mq

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workoai/referrals/config"
)

func TestRabbitMQPublishing(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	msg := Message{
		Key:        "referral-1",
		Data:       []byte(`{"type":"referral.created"}`),
		Attributes: map[string]string{"event_type": "referral.created"},
	}

	durable := (&RabbitMQClient{queueDurable: true}).publishing(msg, now)
	assert.Equal(t, amqp.Persistent, durable.DeliveryMode)
	assert.Equal(t, "application/json", durable.ContentType)
	assert.Equal(t, now.UTC(), durable.Timestamp)
	assert.NotEmpty(t, durable.MessageId)
	assert.Equal(t, msg.Data, durable.Body)
	assert.Equal(t, amqp.Table{"event_type": "referral.created", headerKey: "referral-1"}, durable.Headers)

	transient := (&RabbitMQClient{}).publishing(Message{Data: []byte("{}")}, now)
	assert.Equal(t, amqp.Transient, transient.DeliveryMode)
	assert.Empty(t, transient.Headers)
	assert.NotEqual(t, durable.MessageId, transient.MessageId)
}

func TestRabbitMQDeliveryRoundTrip(t *testing.T) {
	client := &RabbitMQClient{queueDurable: true}
	sent := Message{
		Key:        "referral-1",
		Data:       []byte(`{}`),
		Attributes: map[string]string{"event_type": "referral.status_changed"},
	}
	p := client.publishing(sent, time.Now())

	got := deliveryMessage(amqp.Delivery{MessageId: p.MessageId, Headers: p.Headers, Body: p.Body})
	assert.Equal(t, p.MessageId, got.ID)
	assert.Equal(t, "referral-1", got.Key)
	assert.Equal(t, sent.Data, got.Data)
	assert.Equal(t, sent.Attributes, got.Attributes)

	bare := deliveryMessage(amqp.Delivery{MessageId: "m", Headers: amqp.Table{headerKey: "k"}})
	assert.Equal(t, "k", bare.Key)
	assert.Nil(t, bare.Attributes)
}

func TestHeadersToAttributes(t *testing.T) {
	assert.Nil(t, headersToAttributes(nil))
	attrs := headersToAttributes(amqp.Table{"a": "x", "b": []byte("y"), "c": 3})
	assert.Equal(t, map[string]string{"a": "x", "b": "y", "c": "3"}, attrs)
}

func TestNewRabbitMQClientRequiresURL(t *testing.T) {
	_, err := NewRabbitMQClient(config.RabbitMQConfig{URL: " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rabbitmq url is required")
}
