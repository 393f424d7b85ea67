package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/foldcore/internal/config"
)

// mockKafkaReader serves queued messages, then blocks until cancelled.
type mockKafkaReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []int64
	closed    bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if len(m.fetchErrs) > 0 {
		err := m.fetchErrs[0]
		m.fetchErrs = m.fetchErrs[1:]
		m.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(m.queue) > 0 {
		msg := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (m *mockKafkaReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range msgs {
		m.committed = append(m.committed, msg.Offset)
	}
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockKafkaReader) commits() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.committed...)
}

func TestNewConsumer_Validation(t *testing.T) {
	h := func(context.Context, *Message) error { return nil }

	_, err := NewConsumer(config.KafkaConfig{GroupID: "g", RequestTopic: "t"}, h, nil)
	assert.Error(t, err)

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"b:9092"}}, h, nil)
	assert.Error(t, err)

	_, err = NewConsumerWithReader(&mockKafkaReader{}, nil, nil)
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestConsumer_HandlesAndCommitsInOrder(t *testing.T) {
	reader := &mockKafkaReader{queue: []kafka.Message{
		{Topic: "fold.requests", Offset: 1, Value: []byte("a"), Headers: []kafka.Header{{Key: "trace", Value: []byte("x")}}},
		{Topic: "fold.requests", Offset: 2, Value: []byte("b")},
		{Topic: "fold.requests", Offset: 3, Value: []byte("c")},
	}}

	var (
		mu   sync.Mutex
		seen []string
		hdr  string
	)
	handler := func(_ context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(msg.Value))
		if msg.Offset == 1 {
			hdr = msg.Headers["trace"]
		}
		if msg.Offset == 2 {
			return errors.New("bad payload")
		}
		return nil
	}

	c, err := NewConsumerWithReader(reader, handler, nil)
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)

	assert.Eventually(t, func() bool { return len(reader.commits()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"a", "b", "c"}, seen)
	assert.Equal(t, "x", hdr)
	assert.Equal(t, []int64{1, 2, 3}, reader.commits())
	assert.Equal(t, ConsumerStats{Consumed: 3, Processed: 2, Failed: 1}, c.Stats())
	assert.True(t, reader.closed)
}

func TestConsumer_FetchErrorBacksOff(t *testing.T) {
	reader := &mockKafkaReader{
		fetchErrs: []error{errors.New("broker down")},
		queue:     []kafka.Message{{Offset: 7}},
	}
	done := make(chan struct{})
	c, err := NewConsumerWithReader(reader, func(context.Context, *Message) error {
		close(done)
		return nil
	}, nil)
	require.NoError(t, err)
	c.errBackoff = time.Millisecond

	require.NoError(t, c.Start(context.Background()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message after fetch error was not handled")
	}
	require.NoError(t, c.Close())
	assert.Equal(t, int64(1), c.Stats().Consumed)
}

func TestConsumer_StopsOnContextCancel(t *testing.T) {
	reader := &mockKafkaReader{}
	c, err := NewConsumerWithReader(reader, func(context.Context, *Message) error { return nil }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, c.Start(ctx))
	cancel()
	c.wg.Wait()
	assert.NoError(t, c.Close())
}

func TestConsumer_CloseWithoutStart(t *testing.T) {
	reader := &mockKafkaReader{}
	c, err := NewConsumerWithReader(reader, func(context.Context, *Message) error { return nil }, nil)
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.True(t, reader.closed)
}

//Personal.AI order the ending
