// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package streams holds the session model shared by the directory client and
// the sync engine, and the pure filter/ordering policy between them.
package streams

import (
	"net/url"
	"slices"
	"time"
)

// Status is the broadcast state of a session.
type Status string

const (
	StatusLive     Status = "live"
	StatusUpcoming Status = "upcoming"
)

// ParseStatus maps a feed status onto Status. Unrecognized values are
// reported with ok=false and bucketed as upcoming.
func ParseStatus(s string) (status Status, ok bool) {
	switch Status(s) {
	case StatusLive:
		return StatusLive, true
	case StatusUpcoming:
		return StatusUpcoming, true
	default:
		return StatusUpcoming, false
	}
}

// IsLive reports whether the session is currently broadcasting.
func (s Status) IsLive() bool { return s == StatusLive }

// Raw is one normalized feed entry before filtering. Org and SubOrg are only
// consulted by the policy; ImageURL only by the avatar cache.
type Raw struct {
	ID         string
	TalentID   string
	TalentName string
	Status     Status
	Org        string
	SubOrg     string
	ImageURL   string
	Title      string
	StartsAt   time.Time
}

// Session is a filtered, published session.
type Session struct {
	ID         string    `json:"id"`
	TalentID   string    `json:"talentId"`
	TalentName string    `json:"talentName"`
	Status     Status    `json:"status"`
	Title      string    `json:"title,omitempty"`
	StartsAt   time.Time `json:"startsAt,omitzero"`
}

// Snapshot is the published SyncState: Sessions keyed by id plus the display
// order. Every id in Order is a key of Sessions and vice versa.
type Snapshot struct {
	Sessions map[string]Session
	Order    []string
}

// SameOrder reports sequence equality of the display orders. Reordering counts
// as a difference; session field changes do not.
func (s Snapshot) SameOrder(other Snapshot) bool {
	return slices.Equal(s.Order, other.Order)
}

// Len returns the number of published sessions.
func (s Snapshot) Len() int { return len(s.Order) }

// Lookup returns the session for id.
func (s Snapshot) Lookup(id string) (Session, bool) {
	sess, ok := s.Sessions[id]
	return sess, ok
}

// IDsForTalent returns the published ids presented by talentID, in display order.
func (s Snapshot) IDsForTalent(talentID string) []string {
	var ids []string
	for _, id := range s.Order {
		if s.Sessions[id].TalentID == talentID {
			ids = append(ids, id)
		}
	}
	return ids
}

// WatchURL is the canonical viewing URL for a session id.
func WatchURL(sessionID string) string {
	return "https://youtube.com/watch?v=" + url.QueryEscape(sessionID)
}
