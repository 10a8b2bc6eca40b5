// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestCycleAttributes(t *testing.T) {
	attrs := CycleAttributes("c-1", "changed", 5, 3)

	if len(attrs) != 4 {
		t.Fatalf("Expected 4 attributes, got %d", len(attrs))
	}

	verifyAttribute(t, attrs, CycleIDKey, "c-1")
	verifyAttribute(t, attrs, CycleOutcomeKey, "changed")
	verifyIntAttribute(t, attrs, CycleRawKey, 5)
	verifyIntAttribute(t, attrs, CycleSessionsKey, 3)
}

func TestButtonAttributes(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		talentID  string
		wantLen   int
	}{
		{name: "both", sessionID: "s1", talentID: "UC1", wantLen: 2},
		{name: "session only", sessionID: "s1", wantLen: 1},
		{name: "empty", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ButtonAttributes(tt.sessionID, tt.talentID)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.sessionID != "" {
				verifyAttribute(t, attrs, SessionIDKey, tt.sessionID)
			}
			if tt.talentID != "" {
				verifyAttribute(t, attrs, TalentIDKey, tt.talentID)
			}
		})
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"), "fetch")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "fetch")
}

// Helper functions for attribute verification

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}
