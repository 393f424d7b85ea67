// Package worker answers fold requests read from Kafka with fold results.
package worker

import (
	"context"
	"time"

	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foldcore/pkg/errors"
	"github.com/turtacn/foldcore/pkg/types/fold"
)

// HeaderRequestID carries the request id on result messages.
const HeaderRequestID = "request-id"

// Publisher writes result messages.
type Publisher interface {
	Publish(ctx context.Context, msgs ...kafka.OutMessage) error
}

// FoldWorker turns each request message into exactly one result message.
// Requests that cannot be folded are answered with an error response and
// never retried.
type FoldWorker struct {
	provider    folding.Provider
	publisher   Publisher
	resultTopic string
	metrics     *prometheus.FoldMetrics
	logger      logging.Logger
}

// Option configures a FoldWorker.
type Option func(*FoldWorker)

func WithMetrics(m *prometheus.FoldMetrics) Option {
	return func(w *FoldWorker) { w.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(w *FoldWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewFoldWorker publishes results to resultTopic.
func NewFoldWorker(provider folding.Provider, publisher Publisher, resultTopic string, opts ...Option) (*FoldWorker, error) {
	if provider == nil || publisher == nil {
		return nil, errors.InvalidParam("fold worker needs a service provider and a publisher")
	}
	if resultTopic == "" {
		return nil, errors.InvalidConfig("kafka.result_topic is required")
	}
	w := &FoldWorker{
		provider:    provider,
		publisher:   publisher,
		resultTopic: resultTopic,
		logger:      logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(w)
	}
	w.logger = w.logger.Named("worker")
	return w, nil
}

// Handle is a kafka.Handler. It returns the processing error after the
// error response has been published, or the publish error itself.
func (w *FoldWorker) Handle(ctx context.Context, msg *kafka.Message) error {
	start := time.Now()
	resp, procErr := w.process(ctx, msg)

	body, err := fold.Encode(resp)
	if err != nil {
		err = errors.Wrap(err, errors.ErrCodeSerialization, "encode fold result")
		prometheus.RecordMessage(w.metrics, msg.Topic, err)
		return err
	}
	out := kafka.OutMessage{
		Topic:   w.resultTopic,
		Key:     []byte(resp.ID),
		Value:   body,
		Headers: map[string]string{HeaderRequestID: resp.ID},
	}
	if err := w.publisher.Publish(ctx, out); err != nil {
		w.logger.Error("failed to publish fold result",
			logging.String("id", resp.ID),
			logging.Err(err))
		prometheus.RecordMessage(w.metrics, msg.Topic, err)
		return err
	}

	prometheus.RecordMessage(w.metrics, msg.Topic, procErr)
	if procErr != nil {
		prometheus.RecordError(w.metrics, "worker", errors.GetCode(procErr).String())
	}
	w.logger.Debug("fold request answered",
		logging.String("id", resp.ID),
		logging.Int64("offset", msg.Offset),
		logging.Bool("folded", resp.Folded),
		logging.Duration("duration", time.Since(start)))
	return procErr
}

func (w *FoldWorker) process(ctx context.Context, msg *kafka.Message) (*fold.FoldResponse, error) {
	req, err := fold.DecodeRequest(msg.Value)
	if err != nil {
		id := string(msg.Key)
		if id == "" {
			id = fold.NewRequestID()
		}
		err = errors.Wrap(err, errors.ErrCodeSerialization, "malformed fold request")
		return folding.ErrorResponse(id, "", err), err
	}
	if req.ID == "" {
		req.ID = fold.NewRequestID()
	}

	svc, err := w.provider.Get()
	if err != nil {
		return folding.ErrorResponse(req.ID, req.Sequence, err), err
	}
	resp, err := svc.Fold(ctx, req)
	if err != nil {
		return folding.ErrorResponse(req.ID, req.Sequence, err), err
	}
	return resp, nil
}

//Personal.AI order the ending
