// Package kafka carries fold requests and results over Kafka topics.
package kafka

import (
	"context"
	"time"
)

// Message is a consumed record.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one consumed message. A returned error is logged and
// counted; the message is committed regardless.
type Handler func(ctx context.Context, msg *Message) error

// OutMessage is a record to publish.
type OutMessage struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}
