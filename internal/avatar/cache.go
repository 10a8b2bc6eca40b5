// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package avatar keeps the on-disk talent image cache: one 256x256 PNG per
// talent id under the image directory, populated from the feed's photo URL.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
	"golang.org/x/sync/singleflight"

	// extra decoder; imaging registers jpeg/png/gif/bmp/tiff
	_ "golang.org/x/image/webp"

	xglog "github.com/ManuGH/holostreams/internal/log"
)

// Size is the edge length of a stored avatar.
const Size = 256

const maxSourceBytes = 8 << 20

var (
	// ErrInvalidKey is returned for talent ids that cannot be used as a file name.
	ErrInvalidKey = errors.New("avatar: invalid talent id")
	// ErrNotCached is returned by Load when no file exists for the talent.
	ErrNotCached = errors.New("avatar: not cached")
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Outcome reports how Ensure satisfied a request.
type Outcome string

const (
	OutcomeHit        Outcome = "hit_disk"
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeShared     Outcome = "dedup"
)

// ImageError is a failed population attempt for one talent.
type ImageError struct {
	TalentID string
	Stage    string // fetch|decode|store
	Err      error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("avatar %s: %s: %v", e.TalentID, e.Stage, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// Cache stores avatars under dir.
type Cache struct {
	dir    string
	client *http.Client
	group  singleflight.Group
}

// NewCache returns a cache rooted at dir using client for downloads.
func NewCache(dir string, client *http.Client) *Cache {
	return &Cache{dir: dir, client: client}
}

// Dir returns the image directory.
func (c *Cache) Dir() string { return c.dir }

// Path returns the file path for talentID.
func (c *Cache) Path(talentID string) (string, error) {
	if !keyPattern.MatchString(talentID) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, talentID)
	}
	return filepath.Join(c.dir, talentID+".png"), nil
}

// Has reports whether an avatar is stored for talentID.
func (c *Cache) Has(talentID string) bool {
	p, err := c.Path(talentID)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Load returns the stored PNG bytes for talentID.
func (c *Cache) Load(talentID string) ([]byte, error) {
	p, err := c.Path(talentID)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotCached
	}
	return b, err
}

// Ensure makes sure an avatar for talentID exists on disk, downloading it
// from url if absent. Concurrent calls for the same talent share one download.
// An existing file is never re-fetched.
func (c *Cache) Ensure(ctx context.Context, talentID, url string) (Outcome, error) {
	p, err := c.Path(talentID)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(p); err == nil {
		return OutcomeHit, nil
	}

	_, err, shared := c.group.Do(talentID, func() (any, error) {
		return nil, c.download(ctx, talentID, url, p)
	})
	if err != nil {
		return "", err
	}
	if shared {
		return OutcomeShared, nil
	}
	return OutcomeDownloaded, nil
}

func (c *Cache) download(ctx context.Context, talentID, url, dest string) error {
	// another caller may have finished between Stat and Do
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &ImageError{TalentID: talentID, Stage: "fetch", Err: err}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &ImageError{TalentID: talentID, Stage: "fetch", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &ImageError{TalentID: talentID, Stage: "fetch", Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	src, err := imaging.Decode(io.LimitReader(resp.Body, maxSourceBytes), imaging.AutoOrientation(true))
	if err != nil {
		return &ImageError{TalentID: talentID, Stage: "decode", Err: err}
	}
	resized := imaging.Resize(src, Size, Size, imaging.Lanczos)

	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return &ImageError{TalentID: talentID, Stage: "store", Err: err}
	}
	if err := writePNG(ctx, dest, resized); err != nil {
		return &ImageError{TalentID: talentID, Stage: "store", Err: err}
	}
	return nil
}

// writePNG encodes img as PNG and atomically replaces dest, so readers never
// observe a partial file.
func writePNG(ctx context.Context, dest string, img image.Image) error {
	logger := xglog.FromContext(ctx)

	pendingFile, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending avatar file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending avatar file")
		}
	}()

	if err := imaging.Encode(pendingFile, img, imaging.PNG); err != nil {
		return fmt.Errorf("encode avatar: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace avatar file: %w", err)
	}
	return nil
}
