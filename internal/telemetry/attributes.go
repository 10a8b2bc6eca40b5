// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Sync attributes
	CycleIDKey       = "sync.cycle_id"
	CycleOutcomeKey  = "sync.outcome"
	CycleSessionsKey = "sync.sessions"
	CycleRawKey      = "sync.raw_sessions"

	// Button attributes
	SessionIDKey = "button.session_id"
	TalentIDKey  = "button.talent_id"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// CycleAttributes creates sync-cycle span attributes.
func CycleAttributes(cycleID, outcome string, raw, sessions int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CycleIDKey, cycleID),
		attribute.String(CycleOutcomeKey, outcome),
		attribute.Int(CycleRawKey, raw),
		attribute.Int(CycleSessionsKey, sessions),
	}
}

// ButtonAttributes creates per-button span attributes, omitting empty values.
func ButtonAttributes(sessionID, talentID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if talentID != "" {
		attrs = append(attrs, attribute.String(TalentIDKey, talentID))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
