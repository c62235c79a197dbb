package sync

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
	"github.com/storefront/catalogsync/internal/infrastructure/ratelimit"
	"github.com/storefront/catalogsync/internal/infrastructure/woocommerce"
)

// MediaResolver maps a local image reference to a remote media id and URL,
// reusing existing remote media before uploading. The uploaded memo is
// scoped to one run: two records sharing a local path produce one upload.
type MediaResolver struct {
	client    MediaAPI
	limiter   ratelimit.Limiter
	imagesDir string
	logger    *zap.Logger

	uploaded map[string]*catalog.RemoteMedia
}

// NewMediaResolver creates a new MediaResolver
func NewMediaResolver(client MediaAPI, limiter ratelimit.Limiter, imagesDir string, logger *zap.Logger) *MediaResolver {
	return &MediaResolver{
		client:    client,
		limiter:   limiter,
		imagesDir: imagesDir,
		logger:    logger.Named("media"),
		uploaded:  make(map[string]*catalog.RemoteMedia),
	}
}

// Resolve returns the remote id and URL for imageRef. A missing local file
// is not an error: the record proceeds without an image. An upload conflict
// ("already exists") degrades the same way, with a warning.
func (r *MediaResolver) Resolve(ctx context.Context, imageRef string, existing []catalog.RemoteMedia) (int64, string, error) {
	if imageRef == "" {
		return 0, "", nil
	}

	path := filepath.Join(r.imagesDir, imageRef)
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("local image not found, record proceeds without image",
			zap.String("image", imageRef),
			zap.String("path", path))
		return 0, "", nil
	}

	if media, ok := r.uploaded[path]; ok {
		return media.ID, media.SourceURL, nil
	}

	// The local path is the identity token stored on upload
	for _, media := range existing {
		if media.SourceURL == path {
			r.logger.Info("reusing existing media",
				zap.String("path", path),
				zap.Int64("id", media.ID))
			return media.ID, media.SourceURL, nil
		}
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return 0, "", err
	}
	media, err := r.client.UploadMedia(ctx, path)
	if err != nil {
		if woocommerce.IsConflict(err) {
			r.logger.Warn("media already exists remotely, record proceeds without image",
				zap.String("path", path))
			return 0, "", nil
		}
		return 0, "", err
	}

	r.uploaded[path] = media
	r.logger.Info("media uploaded",
		zap.String("path", path),
		zap.Int64("id", media.ID),
		zap.String("url", media.SourceURL))
	return media.ID, media.SourceURL, nil
}
