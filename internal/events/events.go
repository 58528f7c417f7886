// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	UserRegistered = "user.registered"
	UserUpdated    = "user.updated"
	FollowCreated  = "follow.created"
	FollowDeleted  = "follow.deleted"
	PostCreated    = "post.created"
	PostUpdated    = "post.updated"
)

// Event is the JSON envelope written to the topic.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"userId"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits domain events. Implementations must not block request
// handling on the broker.
type Publisher interface {
	Publish(ctx context.Context, eventType, userID string, payload any)
}

// Writer is the subset of *kafka.Writer used by KafkaPublisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DefaultQueueSize bounds the events buffered ahead of the broker.
const DefaultQueueSize = 1024

// KafkaPublisher writes events keyed by user id so a user's events land on
// one partition in order. Publish only enqueues; a single goroutine drains
// the queue into the writer, so a slow or unreachable broker never holds up
// the caller. Events are dropped when the queue is full.
type KafkaPublisher struct {
	w            Writer
	queue        chan kafka.Message
	writeTimeout time.Duration
	done         chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafkaWriter returns a kafka-go writer for topic on brokers. The short
// batch timeout flushes single events instead of waiting for a full batch.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher starts the drain goroutine. queueSize <= 0 uses
// DefaultQueueSize. Close must be called to flush and stop it.
func NewKafkaPublisher(w Writer, queueSize int) *KafkaPublisher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &KafkaPublisher{
		w:            w,
		queue:        make(chan kafka.Message, queueSize),
		writeTimeout: 10 * time.Second,
		done:         make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish encodes the event and queues it. Errors are logged.
func (p *KafkaPublisher) Publish(_ context.Context, eventType, userID string, payload any) {
	msg, err := encode(eventType, userID, payload)
	if err != nil {
		slog.Error("publish event", "type", eventType, "error", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		slog.Warn("publish after close, event dropped", "type", eventType)
		return
	}
	select {
	case p.queue <- msg:
	default:
		slog.Warn("event queue full, event dropped", "type", eventType)
	}
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
		if err := p.w.WriteMessages(ctx, msg); err != nil {
			slog.Error("write event", "type", headerValue(msg, "type"), "error", err)
		}
		cancel()
	}
}

func encode(eventType, userID string, payload any) (kafka.Message, error) {
	evt := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		UserID:     userID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	}
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return kafka.Message{
		Key:     []byte(userID),
		Value:   value,
		Headers: []kafka.Header{{Key: "type", Value: []byte(eventType)}},
	}, nil
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close stops accepting events, writes what is queued and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.w.Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}
