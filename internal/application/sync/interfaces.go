// Package sync reconciles the locally authored catalog against the remote
// store: category resolution, media dedup, SKU-keyed create-or-update, all
// mutations gated by one shared rate limiter.
package sync

import (
	"context"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// CategoryAPI is the remote surface the category resolver needs.
type CategoryAPI interface {
	SearchCategories(ctx context.Context, name string) ([]catalog.RemoteCategory, error)
	CreateCategory(ctx context.Context, name string, parentID int64) (*catalog.RemoteCategory, error)
}

// MediaAPI is the remote surface the media resolver needs.
type MediaAPI interface {
	UploadMedia(ctx context.Context, path string) (*catalog.RemoteMedia, error)
}

// ProductAPI is the remote surface the reconciler needs.
type ProductAPI interface {
	CreateProduct(ctx context.Context, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error)
	UpdateProduct(ctx context.Context, id int64, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error)
}

// RemoteCatalog is the full remote surface the orchestrator wires together.
type RemoteCatalog interface {
	CategoryAPI
	MediaAPI
	ProductAPI
	ListProducts(ctx context.Context) ([]catalog.RemoteProduct, error)
	ListMedia(ctx context.Context) ([]catalog.RemoteMedia, error)
}

// CatalogSource yields the ordered local catalog rows.
type CatalogSource interface {
	Load() ([]catalog.CatalogRecord, error)
}

// CatalogSink persists the run's report and feeds resolved image URLs back
// into the source.
type CatalogSink interface {
	WriteReport(entries []catalog.ReportEntry) error
	UpdateImageURLs(skuToURL map[string]string) error
}

// RunRecorder stores the summary of a finished run.
type RunRecorder interface {
	Record(ctx context.Context, summary catalog.RunSummary) error
}
