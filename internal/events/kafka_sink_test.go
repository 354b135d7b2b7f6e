package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-intake/internal/config"
	"github.com/spec-kit/helpdesk-intake/internal/domain"
)

type recordingWriter struct {
	messages []kafka.Message
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewKafkaSinkWithoutBrokersIsNil(t *testing.T) {
	if sink := NewKafkaSink(config.KafkaConfig{Topic: "t"}, zap.NewNop()); sink != nil {
		t.Fatalf("expected nil sink")
	}
	var sink *KafkaSink
	if err := sink.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestKafkaSinkKeysByTicket(t *testing.T) {
	writer := &recordingWriter{}
	sink := &KafkaSink{writer: writer, logger: zap.NewNop()}

	event := Event{
		ID:        "evt-1",
		Type:      EventTicketStatusChanged,
		TicketID:  "ticket-9",
		Actor:     Actor{ID: "op-1", Role: domain.RoleOperator, Method: domain.AuthMethodSession},
		Timestamp: time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC),
		Payload:   TicketStatusChangedPayload{OldStatus: domain.TicketStatusOnHold, NewStatus: domain.TicketStatusCompleted},
	}
	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "ticket-9" {
		t.Fatalf("key = %q", msg.Key)
	}
	var decoded map[string]any
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["type"] != string(EventTicketStatusChanged) {
		t.Fatalf("type = %v", decoded["type"])
	}
	payload, _ := decoded["payload"].(map[string]any)
	if payload["new_status"] != "completed" {
		t.Fatalf("payload = %v", payload)
	}

	if err := sink.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer closed, err=%v", err)
	}
}
