package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
)

type fakeChannel struct {
	declared   []string
	kind       string
	durable    bool
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kind, f.durable = kind, durable
	return nil
}

func (f *fakeChannel) Publish(_ string, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestAMQPPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newAMQPPublisher(ch, "resumatch.ingest", "batch.completed")
	if err != nil {
		t.Fatal(err)
	}
	if len(ch.declared) != 1 || ch.kind != "topic" || !ch.durable {
		t.Errorf("exchange declare = %v kind=%s durable=%v", ch.declared, ch.kind, ch.durable)
	}

	ev := BatchCompleted{
		BatchID:        "b-1",
		ProcessedFiles: []string{"a.pdf"},
		FailedFiles:    []string{"b.pdf"},
		TotalChunks:    4,
		CompletedAt:    time.Unix(0, 0).UTC(),
	}
	if err := p.PublishBatch(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if len(ch.published) != 1 || ch.keys[0] != "batch.completed" {
		t.Fatalf("published = %d, keys = %v", len(ch.published), ch.keys)
	}
	msg := ch.published[0]
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent || msg.MessageId != "b-1" {
		t.Errorf("message = %+v", msg)
	}
	var got BatchCompleted
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatal(err)
	}
	if got.BatchID != "b-1" || got.TotalChunks != 4 || len(got.FailedFiles) != 1 {
		t.Errorf("body = %+v", got)
	}

	if err := p.Close(); err != nil || !ch.closed {
		t.Errorf("close: %v closed=%v", err, ch.closed)
	}
}

func TestAMQPPublisher_Errors(t *testing.T) {
	if _, err := newAMQPPublisher(&fakeChannel{}, "", "k"); err == nil {
		t.Error("expected error without exchange")
	}

	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, _ := newAMQPPublisher(ch, "x", "k")
	if err := p.PublishBatch(context.Background(), BatchCompleted{BatchID: "b"}); err == nil {
		t.Error("expected publish error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.PublishBatch(ctx, BatchCompleted{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.PublishBatch(context.Background(), BatchCompleted{}); err != nil {
		t.Error(err)
	}
	if err := p.Close(); err != nil {
		t.Error(err)
	}
}
