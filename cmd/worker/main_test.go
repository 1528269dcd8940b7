package main

import (
	"context"
	"path/filepath"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/attackforge/internal/archive"
	"github.com/suPer8Hu/attackforge/internal/logging"
	"github.com/suPer8Hu/attackforge/internal/session"
)

type ackRecorder struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *ackRecorder) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *ackRecorder) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newArchiver(t *testing.T) *archive.Archiver {
	t.Helper()
	dir := t.TempDir()
	return archive.New(session.NewFileStore(filepath.Join(dir, "sessions.json")), filepath.Join(dir, "archive"))
}

func TestHandleDelivery(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	cases := []struct {
		name        string
		ctx         context.Context
		body        string
		wantAck     bool
		wantRequeue bool
	}{
		{"malformed body goes to dlq", context.Background(), `{not json`, false, false},
		{"missing session id goes to dlq", context.Background(), `{"type":"session.updated"}`, false, false},
		{"unsafe id goes to dlq", context.Background(), `{"type":"session.updated","session_id":"../x"}`, false, false},
		{"delete of unknown archive is acked", context.Background(), `{"type":"session.deleted","session_id":"s1"}`, true, false},
		{"cancelled context is requeued", cancelled, `{"type":"session.updated","session_id":"s1"}`, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &ackRecorder{}
			d := amqp.Delivery{Acknowledger: rec, DeliveryTag: 1, Body: []byte(tc.body)}

			handleDelivery(tc.ctx, logging.Discard(), newArchiver(t), d)

			if rec.acked != tc.wantAck || rec.nacked == tc.wantAck {
				t.Fatalf("acked=%v nacked=%v, want ack=%v", rec.acked, rec.nacked, tc.wantAck)
			}
			if rec.requeued != tc.wantRequeue {
				t.Fatalf("requeued=%v, want %v", rec.requeued, tc.wantRequeue)
			}
		})
	}
}
