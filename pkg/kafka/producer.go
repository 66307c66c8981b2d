package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/creasty/defaults"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Keyed is implemented by payloads that carry their own partition key.
type Keyed interface {
	MessageKey() string
}

// Record is one message to send. An empty Key falls back to the value's
// MessageKey when it implements Keyed.
type Record struct {
	Key   string
	Value interface{}
}

type writeCloser interface {
	messageWriter
	Close() error
}

// Producer sends JSON records to Kafka. Records sharing a key land on the
// same partition, so updates for one fixture stay ordered.
type Producer struct {
	w     writeCloser
	codec string
	now   func() time.Time
}

// NewProducer creates a producer from the defaults overridden by opts.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("producer defaults: %w", err)
	}
	for _, opt := range opts {
		opt(cfg)
	}
	w, err := cfg.writer()
	if err != nil {
		return nil, err
	}

	initProducerMetrics()
	return &Producer{w: w, codec: cfg.Compression, now: time.Now}, nil
}

// Send encodes recs and writes them to topic in a single call. Nothing is
// written when any record fails to encode.
func (p *Producer) Send(ctx context.Context, topic string, recs ...Record) error {
	if len(recs) == 0 {
		return nil
	}

	start := p.now()
	msgs := make([]kafka.Message, len(recs))
	var size int64
	for i, r := range recs {
		value, err := encode(r.Value)
		if err != nil {
			return fmt.Errorf("encode record %d for %s: %w", i, topic, err)
		}
		msgs[i] = kafka.Message{
			Topic: topic,
			Key:   keyOf(r),
			Value: value,
			Time:  start,
		}
		size += int64(len(value))
	}

	err := p.w.WriteMessages(ctx, msgs...)
	producerStats.observe(topic, p.codec, len(msgs), size, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), topic, err)
	}
	return nil
}

// PublishMessage sends payload without a key. It satisfies logger.Publisher
// so aggregated error logs can be shipped to Kafka.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Send(ctx, topic, Record{Value: payload})
}

// Close flushes pending writes and closes the writer.
func (p *Producer) Close() error {
	if p.w == nil {
		return nil
	}
	return p.w.Close()
}

func keyOf(r Record) []byte {
	if r.Key != "" {
		return []byte(r.Key)
	}
	if k, ok := r.Value.(Keyed); ok {
		if key := k.MessageKey(); key != "" {
			return []byte(key)
		}
	}
	return nil
}

func encode(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	case json.RawMessage:
		return val, nil
	default:
		return json.Marshal(v)
	}
}

type producerMetrics struct {
	once     sync.Once
	messages *prometheus.CounterVec
	bytes    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var producerStats producerMetrics

func initProducerMetrics() {
	producerStats.once.Do(func() {
		producerStats.messages = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apexpick_kafka_producer_messages_total",
			Help: "Messages sent to Kafka by topic and result.",
		}, []string{"topic", "compression", "result"})
		producerStats.bytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "apexpick_kafka_producer_bytes_total",
			Help: "Encoded payload bytes sent to Kafka.",
		}, []string{"topic"})
		producerStats.latency = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "apexpick_kafka_producer_send_seconds",
			Help:    "Latency of one Send call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

func (m *producerMetrics) observe(topic, codec string, count int, size int64, took time.Duration, err error) {
	if m.messages == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.messages.WithLabelValues(topic, codec, result).Add(float64(count))
	if err == nil {
		m.bytes.WithLabelValues(topic).Add(float64(size))
	}
	m.latency.WithLabelValues(topic).Observe(took.Seconds())
}
