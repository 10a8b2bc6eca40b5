// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package holodex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeed_TalentName(t *testing.T) {
	tests := []struct {
		name    string
		channel string
		want    string
		skipped bool
	}{
		{"english name", `{"id":"c","name":"N","english_name":"E","photo":"p"}`, "E", false},
		{"null english name falls back", `{"id":"c","name":"N","english_name":null,"photo":"p"}`, "N", false},
		{"empty english name falls back", `{"id":"c","name":"N","english_name":"","photo":"p"}`, "N", false},
		{"empty english name without name", `{"id":"c","english_name":"","photo":"p"}`, "", false},
		{"empty name only", `{"id":"c","name":"","photo":"p"}`, "", false},
		{"no name at all", `{"id":"c","photo":"p"}`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `[{"id":"s1","status":"live","channel":` + tt.channel + `},
				{"id":"s2","status":"upcoming","channel":{"id":"c2","english_name":"B","photo":"p"}}]`

			f, err := parseFeed([]byte(body))
			require.NoError(t, err)

			if tt.skipped {
				require.Len(t, f.Skipped, 1)
				assert.Equal(t, "channel.english_name", f.Skipped[0].Field)
				require.Len(t, f.Raws, 1)
				assert.Equal(t, "s2", f.Raws[0].ID)
				return
			}
			assert.Empty(t, f.Skipped)
			require.Len(t, f.Raws, 2)
			assert.Equal(t, "s1", f.Raws[0].ID)
			assert.Equal(t, tt.want, f.Raws[0].TalentName)
		})
	}
}
