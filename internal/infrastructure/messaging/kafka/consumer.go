package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/pkg/errors"
)

var (
	ErrAlreadyRunning = errors.New(errors.ErrCodeInternal, "consumer already running")
	ErrNoHandler      = errors.New(errors.ErrCodeValidation, "consumer needs a handler")
)

// Reader abstracts kafka.Reader for testing.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConsumerStats are running totals.
type ConsumerStats struct {
	Consumed  int64
	Processed int64
	Failed    int64
}

// Consumer fetches messages from one topic and hands them to a Handler in
// order, committing each after it is handled.
type Consumer struct {
	reader  Reader
	handler Handler
	logger  logging.Logger

	errBackoff time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	consumed  atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
}

// NewConsumer joins cfg.GroupID on cfg.RequestTopic.
func NewConsumer(cfg config.KafkaConfig, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	if cfg.GroupID == "" || cfg.RequestTopic == "" {
		return nil, errors.New(errors.ErrCodeValidation, "group id and request topic required")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.RequestTopic,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
		Dialer:      &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true},
	})
	return NewConsumerWithReader(reader, handler, log)
}

// NewConsumerWithReader builds a Consumer over any Reader.
func NewConsumerWithReader(reader Reader, handler Handler, log logging.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, ErrNoHandler
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Consumer{reader: reader, handler: handler, logger: log, errBackoff: time.Second}, nil
}

// Start runs the consume loop in the background until Close or ctx ends.
func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)
	c.logger.Info("Kafka consumer started")
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()
	for ctx.Err() == nil {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("FetchMessage error", logging.Err(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.errBackoff):
			}
			continue
		}
		c.consumed.Add(1)

		msg := &Message{
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Key:       m.Key,
			Value:     m.Value,
			Headers:   make(map[string]string, len(m.Headers)),
			Timestamp: m.Time,
		}
		for _, h := range m.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		if err := c.handler(ctx, msg); err != nil {
			c.failed.Add(1)
			c.logger.Warn("message handling failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		} else {
			c.processed.Add(1)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("CommitMessages failed", logging.Err(err))
		}
	}
}

// Stats returns a snapshot of the running totals.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Consumed:  c.consumed.Load(),
		Processed: c.processed.Load(),
		Failed:    c.failed.Load(),
	}
}

// Close stops the loop, waits for the in-flight message and closes the reader.
func (c *Consumer) Close() error {
	if c.running.CompareAndSwap(true, false) {
		c.cancel()
		c.wg.Wait()
	}
	err := c.reader.Close()
	c.logger.Info("Kafka consumer closed", logging.Int64("consumed", c.consumed.Load()))
	return err
}

//Personal.AI order the ending
