package event

import (
	"testing"

	"github.com/google/uuid"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"created", TypeRequestCreated, true},
		{"approved", TypeRequestApproved, true},
		{"settled", TypeRequestSettled, true},
		{"rejected", TypeRequestRejected, true},
		{"unknown", Type("request.deleted"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeRequestSettled, 42, "PETTY_CASH", map[string]interface{}{KeyAmount: "15000"})

	if _, err := uuid.Parse(evt.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", evt.ID, err)
	}
	if evt.CorrelationID != evt.ID {
		t.Errorf("CorrelationID = %q, want event id %q", evt.CorrelationID, evt.ID)
	}
	if evt.RequestID != 42 || evt.Module != "PETTY_CASH" {
		t.Errorf("unexpected request fields: %d %s", evt.RequestID, evt.Module)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := NewEvent(TypeRequestSettled, 42, "PETTY_CASH", nil)
	if other.ID == evt.ID {
		t.Error("event ids should be unique")
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeRequestApproved, 1, "EXPENSE", nil, "chain-1")
	if evt.CorrelationID != "chain-1" {
		t.Errorf("CorrelationID = %q, want chain-1", evt.CorrelationID)
	}
	if evt.ID == "chain-1" {
		t.Error("event id should not reuse the correlation id")
	}
}

func TestWithPayload_DoesNotMutateOriginal(t *testing.T) {
	orig := NewEvent(TypeRequestRejected, 3, "CASH_ADVANCE", map[string]interface{}{KeyReason: "duplicate"})
	next := orig.WithPayload(KeyActorName, "Alice")

	if _, ok := orig.Payload[KeyActorName]; ok {
		t.Error("original payload was modified")
	}
	if next.GetPayloadString(KeyActorName) != "Alice" || next.GetPayloadString(KeyReason) != "duplicate" {
		t.Errorf("unexpected payload %v", next.Payload)
	}
	if next.ID != orig.ID {
		t.Error("WithPayload should keep the event id")
	}
}

func TestPayloadGetters(t *testing.T) {
	evt := NewEvent(TypeRequestApproved, 1, "EXPENSE", map[string]interface{}{
		"s":   "text",
		"i":   3,
		"i64": int64(4),
		"f":   float64(5),
		"b":   true,
	})

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"string", evt.GetPayloadString("s"), "text"},
		{"string wrong type", evt.GetPayloadString("i"), ""},
		{"int", evt.GetPayloadInt("i"), int64(3)},
		{"int64", evt.GetPayloadInt("i64"), int64(4)},
		{"float as int", evt.GetPayloadInt("f"), int64(5)},
		{"missing int", evt.GetPayloadInt("nope"), int64(0)},
		{"bool", evt.GetPayloadBool("b"), true},
		{"missing bool", evt.GetPayloadBool("nope"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}
