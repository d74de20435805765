package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
)

// ErrMediaStoreUnavailable indicates the media store is not configured.
var ErrMediaStoreUnavailable = errors.New("media store unavailable")

// MediaStore persists uploaded media assets on an external host and
// removes them again by asset id.
type MediaStore interface {
	Store(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, assetID string) error
}

// DurationProber reports the duration in seconds of a local media file.
type DurationProber interface {
	Probe(ctx context.Context, localPath string) (float64, error)
}

// AssetIDFromURL derives the asset identifier from a public media URL: the
// URL path relative to the host, which is exactly the object key Store
// uploaded under. Returns "" when the URL carries no usable path.
func AssetIDFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.Trim(parsed.Path, "/")
}
