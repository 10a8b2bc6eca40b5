// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package streams

import (
	"slices"
	"strings"
)

const (
	// PrimaryOrg is the organization tag kept when guest appearances are hidden.
	PrimaryOrg = "Hololive"
	// SubstreamMarker identifies the sub-organization hidden by HideSubstreamGroup.
	SubstreamMarker = "HOLOSTARS"
)

// Filter selects which raw sessions survive.
type Filter struct {
	HideGuestAppearances bool
	HideSubstreamGroup   bool
}

// Keep reports whether r passes the filter.
func (f Filter) Keep(r Raw) bool {
	if f.HideGuestAppearances && r.Org != PrimaryOrg {
		return false
	}
	// case-sensitive substring match
	if f.HideSubstreamGroup && strings.Contains(r.SubOrg, SubstreamMarker) {
		return false
	}
	return true
}

// Apply filters raw feed entries and computes the display order: live sessions
// in feed order, then the remaining sessions in reverse feed order. The feed
// lists upcoming sessions furthest-future first, so the reversal puts the
// nearest start first. When an id repeats, its last occurrence wins.
//
// Apply is pure: identical input yields an identical Snapshot.
func Apply(raws []Raw, f Filter) Snapshot {
	last := make(map[string]int, len(raws))
	for i, r := range raws {
		if f.Keep(r) {
			last[r.ID] = i
		}
	}

	sessions := make(map[string]Session, len(last))
	live := make([]string, 0, len(last))
	upcoming := make([]string, 0, len(last))

	for i, r := range raws {
		if idx, ok := last[r.ID]; !ok || idx != i {
			continue
		}
		sessions[r.ID] = Session{
			ID:         r.ID,
			TalentID:   r.TalentID,
			TalentName: r.TalentName,
			Status:     r.Status,
			Title:      r.Title,
			StartsAt:   r.StartsAt,
		}
		if r.Status.IsLive() {
			live = append(live, r.ID)
		} else {
			upcoming = append(upcoming, r.ID)
		}
	}

	slices.Reverse(upcoming)
	return Snapshot{
		Sessions: sessions,
		Order:    append(live, upcoming...),
	}
}

// Survivors returns the raw entries that back the sessions of snap, one per
// published id, in display order. The engine uses it to schedule avatar
// population for exactly the sessions that were published.
func Survivors(raws []Raw, f Filter, snap Snapshot) []Raw {
	byID := make(map[string]Raw, len(raws))
	for _, r := range raws {
		if f.Keep(r) {
			byID[r.ID] = r
		}
	}
	out := make([]Raw, 0, len(snap.Order))
	for _, id := range snap.Order {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
