package kafka

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

// maxMessageBytes bounds a single published value.
const maxMessageBytes = 1 << 20

// Writer abstracts kafka.Writer for testing.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes messages, keyed so that one request id always lands on
// the same partition.
type Producer struct {
	writer Writer
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
}

func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  4,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    &kafka.Transport{DialTimeout: 10 * time.Second},
	}
	return NewProducerWithWriter(writer, log), nil
}

// NewProducerWithWriter builds a Producer over any Writer.
func NewProducerWithWriter(w Writer, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: log}
}

// Publish writes msgs in one call.
func (p *Producer) Publish(ctx context.Context, msgs ...OutMessage) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if len(msgs) == 0 {
		return nil
	}
	out := make([]kafka.Message, len(msgs))
	now := time.Now()
	for i, msg := range msgs {
		if msg.Topic == "" {
			return errors.New(errors.ErrCodeValidation, "topic required")
		}
		if len(msg.Value) > maxMessageBytes {
			return errors.Newf(errors.ErrCodeValidation, "message of %d bytes exceeds %d", len(msg.Value), maxMessageBytes)
		}
		headers := make([]kafka.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		out[i] = kafka.Message{Topic: msg.Topic, Key: msg.Key, Value: msg.Value, Headers: headers, Time: now}
	}

	if err := p.writer.WriteMessages(ctx, out...); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed")
	}
	p.sent.Add(int64(len(out)))
	p.logger.Debug("Messages published", logging.Int("count", len(out)))
	return nil
}

// Sent returns the number of messages written.
func (p *Producer) Sent() int64 { return p.sent.Load() }

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("Kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}

//Personal.AI order the ending
