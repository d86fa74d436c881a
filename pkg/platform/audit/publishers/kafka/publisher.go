// Package kafka produces ledger audit events to a Kafka topic with franz-go.
// A circuit breaker drops events while the brokers are failing so that the
// ledger is never slowed down by its audit sink.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "dua/pkg/platform/audit"
)

// ErrCircuitOpen is returned when an event is dropped by the breaker.
var ErrCircuitOpen = errors.New("audit kafka circuit open")

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

type Publisher struct {
	producer Producer
	topic    string
	breaker  *CircuitBreaker
	logger   *slog.Logger
	metrics  *Metrics
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		breaker:  NewCircuitBreaker(5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewClient dials the brokers with settings suitable for audit delivery.
func NewClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// EnsureTopic creates the audit topic when it does not exist yet.
func EnsureTopic(ctx context.Context, client *kgo.Client, topic string, partitions int32, replication int16) error {
	adm := kadm.NewClient(client)
	resp, err := adm.CreateTopic(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, resp.Err)
	}
	return nil
}

// payload is the JSON value written to Kafka.
type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Subject   string `json:"subject,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Role      string `json:"role,omitempty"`
	Feature   string `json:"feature,omitempty"`
	Decision  string `json:"decision"`
	Reason    string `json:"reason,omitempty"`
	Seq       uint64 `json:"seq,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	ClientIP  string `json:"client_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
}

// Emit produces one event keyed by actor so that a caller's events stay
// ordered within a partition.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if !p.breaker.Allow() {
		if p.metrics != nil {
			p.metrics.IncCircuitBreakerDropped()
		}
		return ErrCircuitOpen
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.CategoryFor(event.Action, event.Decision)
	}

	value, err := json.Marshal(payload{
		ID:        uuid.NewString(),
		Category:  string(event.Category),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:    event.Action,
		Actor:     event.Actor,
		Subject:   event.Subject,
		Amount:    event.Amount,
		Role:      event.Role,
		Feature:   event.Feature,
		Decision:  event.Decision,
		Reason:    event.Reason,
		Seq:       event.Seq,
		RequestID: event.RequestID,
		ClientIP:  event.ClientIP,
		UserAgent: event.UserAgent,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Actor),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "seq", Value: []byte(strconv.FormatUint(event.Seq, 10))},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.breaker.RecordFailure()
		if p.metrics != nil {
			p.metrics.IncPublishFailures()
			p.metrics.SetCircuitBreakerState(p.breaker.IsOpen())
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "failed to produce audit event",
				"action", event.Action,
				"topic", p.topic,
				"error", err,
			)
		}
		return fmt.Errorf("produce audit event: %w", err)
	}

	p.breaker.RecordSuccess()
	if p.metrics != nil {
		p.metrics.IncPublished(string(event.Category))
		p.metrics.SetCircuitBreakerState(false)
	}
	return nil
}
