package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

type recordingCommitter struct {
	commits int
}

func (c *recordingCommitter) CommitMessages(context.Context, ...kafka.Message) error {
	c.commits++
	return nil
}

type scriptedHandler struct {
	topic string
	errs  []error
	calls int
}

func (h *scriptedHandler) Topic() string { return h.topic }

func (h *scriptedHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= len(h.errs) {
		return h.errs[h.calls-1]
	}
	return nil
}

func testConsumer(h MessageHandler, dlq messageWriter) *Consumer {
	c := newConsumer(&ConsumerConfig{RetryMax: 3, DLQTopic: "requests.dlq", BufferSize: 1})
	c.dlq = dlq
	c.sleep = func(time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		ch <- time.Time{}
		return ch
	}
	c.RegisterHandler(h)
	return c
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	h := &scriptedHandler{topic: "requests", errs: []error{errors.New("boom"), errors.New("boom")}}
	dlq := &recordingWriter{}
	com := &recordingCommitter{}
	c := testConsumer(h, dlq)

	c.process(kafka.Message{Topic: "requests", Value: []byte(`{}`)}, com)

	if h.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", h.calls)
	}
	if len(dlq.msgs) != 0 {
		t.Fatalf("unexpected dlq write")
	}
	if com.commits != 1 {
		t.Fatalf("expected one commit, got %d", com.commits)
	}
}

func TestProcessExhaustedRetriesGoToDLQ(t *testing.T) {
	fail := errors.New("still down")
	h := &scriptedHandler{topic: "requests", errs: []error{fail, fail, fail, fail, fail}}
	dlq := &recordingWriter{}
	com := &recordingCommitter{}
	c := testConsumer(h, dlq)

	c.process(kafka.Message{Topic: "requests", Key: []byte("fx-1"), Value: []byte(`{"x":1}`)}, com)

	if h.calls != 4 {
		t.Fatalf("expected initial attempt plus 3 retries, got %d", h.calls)
	}
	if len(dlq.msgs) != 1 || dlq.msgs[0].Topic != "requests.dlq" || string(dlq.msgs[0].Key) != "fx-1" {
		t.Fatalf("unexpected dlq messages %+v", dlq.msgs)
	}
	if com.commits != 1 {
		t.Fatalf("expected commit after dlq, got %d", com.commits)
	}
}

func TestProcessPermanentErrorSkipsRetries(t *testing.T) {
	h := &scriptedHandler{topic: "requests", errs: []error{Permanent(errors.New("bad json"))}}
	dlq := &recordingWriter{}
	c := testConsumer(h, dlq)

	c.process(kafka.Message{Topic: "requests"}, &recordingCommitter{})

	if h.calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", h.calls)
	}
	if len(dlq.msgs) != 1 {
		t.Fatalf("expected dlq write")
	}
}

func TestProcessDLQFailureLeavesOffset(t *testing.T) {
	h := &scriptedHandler{topic: "requests", errs: []error{Permanent(errors.New("bad"))}}
	com := &recordingCommitter{}
	c := testConsumer(h, &recordingWriter{err: errors.New("broker down")})

	c.process(kafka.Message{Topic: "requests"}, com)

	if com.commits != 0 {
		t.Fatalf("offset must not be committed when the dlq write fails")
	}
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "requests" }
func (panicHandler) Handle(context.Context, []byte) error { panic("nil map") }

func TestProcessRecoversPanics(t *testing.T) {
	dlq := &recordingWriter{}
	c := testConsumer(panicHandler{}, dlq)

	c.process(kafka.Message{Topic: "requests"}, &recordingCommitter{})

	if len(dlq.msgs) != 1 {
		t.Fatalf("expected panicking message to be dead-lettered")
	}
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		if d <= 0 || d > time.Second {
			t.Fatalf("attempt %d: backoff %v out of bounds", attempt, d)
		}
	}
}
