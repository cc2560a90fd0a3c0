package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ares-console/ares/internal/config"
)

// Event is one operational event published by the assistant runtime:
// session lifecycle, message handling, integration up/down and the like.
type Event struct {
	ID      string          `json:"id,omitempty"`
	Kind    string          `json:"kind"`
	Session string          `json:"session,omitempty"`
	Body    json.RawMessage `json:"body,omitempty"`
	At      time.Time       `json:"at"`
}

// Consumer yields runtime events until closed.
type Consumer interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// Decode parses a topic message into an Event. Payloads that do not decode
// to a typed event come back as Kind "raw" with the bytes preserved.
func Decode(value []byte, ts time.Time) Event {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil || strings.TrimSpace(ev.Kind) == "" {
		ev = Event{Kind: "raw", Body: append([]byte(nil), value...)}
	}
	if ev.At.IsZero() {
		ev.At = ts
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return ev
}

// KafkaConsumer tails the runtime event topic using segmentio/kafka-go.
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer creates a consumer starting at the latest offset.
// Historical events are not replayed; the tail shows what happens from now on.
func NewKafkaConsumer(cfg config.EventsConfig) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
		}),
	}
}

// Next blocks until the next event arrives or ctx is cancelled.
func (c *KafkaConsumer) Next(ctx context.Context) (Event, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return Event{}, fmt.Errorf("read event: %w", err)
	}
	return Decode(msg.Value, msg.Time), nil
}

// Close stops the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

// ChannelConsumer is an in-process Consumer backed by a Go channel, used in
// tests and wherever a live broker is not available.
type ChannelConsumer struct {
	ch chan Event
}

// NewChannelConsumer creates an in-process consumer.
func NewChannelConsumer() *ChannelConsumer {
	return &ChannelConsumer{ch: make(chan Event, 100)}
}

// Send pushes an event into the consumer.
func (c *ChannelConsumer) Send(ev Event) {
	c.ch <- ev
}

// Next blocks until an event is sent, the consumer is closed, or ctx is
// cancelled. A closed consumer returns io.EOF.
func (c *ChannelConsumer) Next(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-c.ch:
		if !ok {
			return Event{}, io.EOF
		}
		return ev, nil
	}
}

// Close closes the channel. Pending events already sent are still delivered.
func (c *ChannelConsumer) Close() error {
	close(c.ch)
	return nil
}
