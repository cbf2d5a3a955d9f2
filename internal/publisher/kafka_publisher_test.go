package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type MockWriter struct {
	Messages []kafkaGo.Message
	Err      error
	Closed   bool
}

func (m *MockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msgs...)
	return nil
}

func (m *MockWriter) Close() error {
	m.Closed = true
	return nil
}

func sampleEvent() domain.CheckoutEvent {
	return domain.CheckoutEvent{
		AttemptID:     "attempt-1",
		Status:        domain.CheckoutStatusSucceeded,
		UserID:        json.RawMessage(`7`),
		LineCount:     1,
		TotalQuantity: 3,
		Subtotal:      decimal.RequireFromString("37.50"),
		OccurredAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestPublishCheckout(t *testing.T) {
	w := &MockWriter{}
	p := &KafkaPublisher{writer: w, timeout: time.Second}

	require.NoError(t, p.PublishCheckout(context.Background(), sampleEvent()))

	require.Len(t, w.Messages, 1)
	msg := w.Messages[0]
	assert.Equal(t, "attempt-1", string(msg.Key))
	assert.Equal(t, []kafkaGo.Header{
		{Key: "event_type", Value: []byte(EventTypeCheckout)},
		{Key: "status", Value: []byte("SUCCEEDED")},
	}, msg.Headers)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "attempt-1", body["attempt_id"])
	assert.Equal(t, "SUCCEEDED", body["status"])
	assert.Equal(t, float64(3), body["total_quantity"])
	assert.Equal(t, "37.5", body["subtotal"])
	assert.NotContains(t, body, "reason")
}

func TestPublishCheckout_WriterError(t *testing.T) {
	w := &MockWriter{Err: errors.New("leader not available")}
	p := &KafkaPublisher{writer: w, timeout: time.Second}

	err := p.PublishCheckout(context.Background(), sampleEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempt-1")
	assert.Contains(t, err.Error(), "leader not available")
}

func TestClose(t *testing.T) {
	w := &MockWriter{}
	p := &KafkaPublisher{writer: w}

	require.NoError(t, p.Close())
	assert.True(t, w.Closed)
}

func setupKafka(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	kafkaContainer, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, brokerAddr, topic string) {
	conn, err := kafkaGo.Dial("tcp", brokerAddr)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkaGo.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err)
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafkaGo.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		t.Logf("topic creation error (may already exist): %v", err)
	}
}

func TestKafkaPublisher_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	brokerAddr := setupKafka(t)
	const topic = "storefront-checkout-test"
	createTopic(t, brokerAddr, topic)

	p := NewKafkaPublisher(topic, brokerAddr)
	p.timeout = 15 * time.Second
	defer p.Close()

	require.NoError(t, p.PublishCheckout(context.Background(), sampleEvent()))

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  []string{brokerAddr},
		Topic:    topic,
		GroupID:  "storefront-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	assert.Equal(t, "attempt-1", string(msg.Key))
	var got domain.CheckoutEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, domain.CheckoutStatusSucceeded, got.Status)
	assert.True(t, decimal.RequireFromString("37.5").Equal(got.Subtotal))
}
