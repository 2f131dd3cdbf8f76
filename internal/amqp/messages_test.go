package amqp

import (
	"testing"

	"worklens/internal/core"
)

func TestInvalidationMessageRoundTrip(t *testing.T) {
	msg := NewInvalidationMessage("host-a/123", []core.RuleAxis{core.AxisCategory, "reduction"})

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := InvalidationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if decoded.Origin != "host-a/123" {
		t.Errorf("Origin = %q", decoded.Origin)
	}
	if len(decoded.Axes) != 2 || decoded.Axes[0] != core.AxisCategory {
		t.Errorf("Axes = %v", decoded.Axes)
	}
	if decoded.Timestamp.IsZero() {
		t.Errorf("Timestamp not set")
	}
}

func TestInvalidationMessageEmptyAxes(t *testing.T) {
	// An empty axis list means a full cache drop; it must survive the wire.
	msg := NewInvalidationMessage("host-b/9", nil)
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	decoded, err := InvalidationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if len(decoded.Axes) != 0 {
		t.Errorf("Axes = %v, want empty", decoded.Axes)
	}
}

func TestInvalidationMessageBadPayload(t *testing.T) {
	if _, err := InvalidationMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatalf("expected error for malformed payload")
	}
}
