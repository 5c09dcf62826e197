package evidence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/parlorgames/byline/pkg/storage"
)

// Source fetches the evidence bundle for a session theme. Implementations
// are read-only; the pipeline never mutates the source.
type Source interface {
	Fetch(ctx context.Context, theme string) (*Bundle, error)
}

// BlobSource reads bundles from blob storage at evidence/<theme>/bundle.json,
// where <theme> is the slugged theme name. The narrative team publishes
// bundles there out of band.
type BlobSource struct {
	storage storage.System
	logger  *slog.Logger
}

// NewBlobSource creates a blob-backed evidence source.
func NewBlobSource(st storage.System, logger *slog.Logger) *BlobSource {
	return &BlobSource{
		storage: st,
		logger:  logger.With("system", "evidence"),
	}
}

// BundleKey returns the storage key for a theme's evidence bundle.
func BundleKey(theme string) string {
	return fmt.Sprintf("evidence/%s/bundle.json", Slug(theme))
}

// AttachmentKey returns the storage key for an item attachment filename
// under a theme.
func AttachmentKey(theme, filename string) string {
	return fmt.Sprintf("evidence/%s/attachments/%s", Slug(theme), filename)
}

func (s *BlobSource) Fetch(ctx context.Context, theme string) (*Bundle, error) {
	key := BundleKey(theme)

	result, err := s.storage.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrBundleNotFound, key)
		}
		return nil, fmt.Errorf("fetch evidence bundle %s: %w", key, err)
	}
	defer result.Body.Close()

	var bundle Bundle
	if err := json.NewDecoder(result.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedBundle, key, err)
	}

	s.logger.InfoContext(
		ctx, "evidence bundle fetched",
		"theme", theme,
		"items", len(bundle.Items),
		"players", len(bundle.Roster.Players),
	)

	return &bundle, nil
}

// Slug normalizes a theme name into a storage-safe path segment: lowercase,
// spaces collapsed to single hyphens, anything outside [a-z0-9-] dropped.
func Slug(theme string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(strings.TrimSpace(theme)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimSuffix(b.String(), "-")
}
