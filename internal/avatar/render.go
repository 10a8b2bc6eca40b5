// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package avatar

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Dim returns a grayscale copy of a stored PNG, used for sessions that are
// not live yet.
func Dim(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode avatar: %w", err)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Grayscale(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode avatar: %w", err)
	}
	return buf.Bytes(), nil
}
