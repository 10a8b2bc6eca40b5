// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package holodex

import (
	"encoding/json"
	"time"

	"github.com/ManuGH/holostreams/internal/streams"
)

// apiStream is one element of the /api/v2/live response. Pointer fields are
// optional on the wire; presence is checked once in toRaw.
type apiStream struct {
	ID             *string     `json:"id"`
	Title          string      `json:"title"`
	Status         *string     `json:"status"`
	StartScheduled *string     `json:"start_scheduled"`
	Channel        *apiChannel `json:"channel"`
}

type apiChannel struct {
	ID          *string `json:"id"`
	Name        *string `json:"name"`
	EnglishName *string `json:"english_name"`
	Org         *string `json:"org"`
	Suborg      *string `json:"suborg"`
	Photo       *string `json:"photo"`
}

// feed is the outcome of parsing one listing body.
type feed struct {
	Raws    []streams.Raw
	Skipped []*ElementError
	// ids whose status was not live/upcoming
	UnknownStatus []string
}

// parseFeed decodes a listing. A body that is not a JSON array fails the whole
// call; a malformed element is skipped and reported in Skipped.
func parseFeed(body []byte) (feed, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return feed{}, err
	}

	out := feed{Raws: make([]streams.Raw, 0, len(elems))}
	for i, el := range elems {
		var s apiStream
		if err := json.Unmarshal(el, &s); err != nil {
			out.Skipped = append(out.Skipped, &ElementError{Index: i, Field: "decode", Err: err})
			continue
		}
		r, known, elemErr := s.toRaw(i)
		if elemErr != nil {
			out.Skipped = append(out.Skipped, elemErr)
			continue
		}
		if !known {
			out.UnknownStatus = append(out.UnknownStatus, r.ID)
		}
		out.Raws = append(out.Raws, r)
	}
	return out, nil
}

func present(s *string) bool { return s != nil && *s != "" }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s apiStream) toRaw(i int) (streams.Raw, bool, *ElementError) {
	missing := func(field string) (streams.Raw, bool, *ElementError) {
		return streams.Raw{}, false, &ElementError{Index: i, Field: field}
	}

	switch {
	case !present(s.ID):
		return missing("id")
	case !present(s.Status):
		return missing("status")
	case s.Channel == nil:
		return missing("channel")
	case !present(s.Channel.ID):
		return missing("channel.id")
	case !present(s.Channel.Photo):
		return missing("channel.photo")
	}

	// english_name is null for many channels upstream; name is the fallback.
	// A present but empty english_name with no name yields an empty label.
	if s.Channel.EnglishName == nil && s.Channel.Name == nil {
		return missing("channel.english_name")
	}
	name := deref(s.Channel.EnglishName)
	if name == "" {
		name = deref(s.Channel.Name)
	}

	status, known := streams.ParseStatus(*s.Status)

	var startsAt time.Time
	if s.StartScheduled != nil {
		if t, err := time.Parse(time.RFC3339, *s.StartScheduled); err == nil {
			startsAt = t
		}
	}

	return streams.Raw{
		ID:         *s.ID,
		TalentID:   *s.Channel.ID,
		TalentName: name,
		Status:     status,
		Org:        deref(s.Channel.Org),
		SubOrg:     deref(s.Channel.Suborg),
		ImageURL:   *s.Channel.Photo,
		Title:      s.Title,
		StartsAt:   startsAt,
	}, known, nil
}
