package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

type mockWriter struct {
	written    []kafka.Message
	shouldFail bool
	closed     bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.shouldFail {
		return errors.New("broker down")
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &mockWriter{}
	p := NewKafkaPublisherWithWriter(w)

	e := New(PostCreated, 7, at, map[string]any{"post_id": 3})
	require.NoError(t, p.Publish(context.Background(), e))
	require.Len(t, w.written, 1)

	msg := w.written[0]
	assert.Equal(t, "7", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, PostCreated, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, uint(7), decoded.UserID)
	assert.True(t, at.Equal(decoded.OccurredAt))
	assert.True(t, at.Equal(msg.Time))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteFailure(t *testing.T) {
	p := NewKafkaPublisherWithWriter(&mockWriter{shouldFail: true})
	err := p.Publish(context.Background(), New(FollowCreated, 1, at, nil))
	assert.ErrorContains(t, err, "broker down")
}

func TestNewPublisher_NopWithoutBrokers(t *testing.T) {
	p := NewPublisher(KafkaConfig{Topic: "t"})
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), New(UserRegistered, 1, at, nil)))
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.Publish(context.Background(), New(UserRegistered, 1, at, nil)))
	require.NoError(t, r.Publish(context.Background(), New(FollowCreated, 1, at, nil)))
	assert.Equal(t, []string{UserRegistered, FollowCreated}, r.Types())

	r.Err = errors.New("nope")
	assert.Error(t, r.Publish(context.Background(), New(PostCreated, 1, at, nil)))
	assert.Len(t, r.Events(), 2)
}

func TestNewStampsUTC(t *testing.T) {
	local := time.Date(2024, 3, 4, 7, 6, 7, 0, time.FixedZone("x", 2*3600))
	e := New(UserRegistered, 1, local, nil)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())
	assert.True(t, at.Equal(e.OccurredAt))
	assert.NotEmpty(t, e.ID)
}

func TestNewKafkaPublisher_WriterConfig(t *testing.T) {
	p := NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "microblog.events"})
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultBatchTimeout, w.BatchTimeout)
	assert.Equal(t, 10*time.Second, w.WriteTimeout)
	assert.Equal(t, "microblog.events", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)

	p = NewKafkaPublisher(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "t", BatchTimeout: time.Millisecond})
	assert.Equal(t, time.Millisecond, p.writer.(*kafka.Writer).BatchTimeout)
	require.NoError(t, p.Close())
}
