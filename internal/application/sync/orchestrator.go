package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// Report is the outcome of one run: the submitted payloads plus the final
// accounting.
type Report struct {
	Summary catalog.RunSummary
	Entries []catalog.ReportEntry
}

// Orchestrator drives one sync run end to end. One-shot fetches (category
// resolution, product list, media list) abort the run; everything inside
// the per-record loop is isolated per record.
type Orchestrator struct {
	source     CatalogSource
	sink       CatalogSink
	remote     RemoteCatalog
	categories *CategoryResolver
	media      *MediaResolver
	products   *ProductReconciler
	history    RunRecorder
	logger     *zap.Logger
}

// NewOrchestrator creates a new Orchestrator. history may be nil, in which
// case no run summary is recorded.
func NewOrchestrator(
	source CatalogSource,
	sink CatalogSink,
	remote RemoteCatalog,
	categories *CategoryResolver,
	media *MediaResolver,
	products *ProductReconciler,
	history RunRecorder,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		source:     source,
		sink:       sink,
		remote:     remote,
		categories: categories,
		media:      media,
		products:   products,
		history:    history,
		logger:     logger.Named("sync"),
	}
}

// Run executes one full reconciliation pass.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	summary := catalog.RunSummary{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}
	log := o.logger.With(zap.String("run_id", summary.RunID.String()))
	log.Info("sync run started")

	// The source is consumed once into memory: category resolution needs
	// the full set before any per-record work.
	records, err := o.source.Load()
	if err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to load catalog: %w", err))
	}
	summary.Total = len(records)

	names, subParent := collectCategories(records)
	categoryMap, err := o.categories.ResolveAll(ctx, names, subParent)
	if err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to resolve categories: %w", err))
	}
	log.Info("categories resolved", zap.Int("count", len(categoryMap)))

	existingProducts, err := o.remote.ListProducts(ctx)
	if err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to fetch existing products: %w", err))
	}
	existingMedia, err := o.remote.ListMedia(ctx)
	if err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to fetch existing media: %w", err))
	}
	log.Info("remote state fetched",
		zap.Int("products", len(existingProducts)),
		zap.Int("media", len(existingMedia)))

	entries := make([]catalog.ReportEntry, 0, len(records))
	for _, rec := range records {
		entry, outcome := o.processRecord(ctx, log, rec, categoryMap, existingProducts, existingMedia)
		switch outcome {
		case catalog.OutcomeCreated:
			summary.Created++
		case catalog.OutcomeUpdated:
			summary.Updated++
		case catalog.OutcomeConflict:
			summary.Conflicts++
		case catalog.OutcomeSkipped:
			summary.Skipped++
		case catalog.OutcomeFailed:
			summary.Failed++
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	if err := o.sink.WriteReport(entries); err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to write report: %w", err))
	}

	// Keyed by SKU so rejected records (absent from the report) keep an
	// empty URL instead of shifting everything after them.
	skuToURL := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.SKU != "" {
			skuToURL[entry.SKU] = entry.ImageURL
		}
	}
	if err := o.sink.UpdateImageURLs(skuToURL); err != nil {
		return nil, o.abort(ctx, &summary, log, fmt.Errorf("failed to write image URLs back: %w", err))
	}

	summary.FinishedAt = time.Now()
	summary.Status = catalog.RunStatusCompleted
	o.record(ctx, log, summary)

	log.Info("sync run completed",
		zap.Int("total", summary.Total),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("conflicts", summary.Conflicts),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped))

	return &Report{Summary: summary, Entries: entries}, nil
}

// processRecord handles one row. Failures never propagate; they are logged
// and reflected in the outcome.
func (o *Orchestrator) processRecord(
	ctx context.Context,
	log *zap.Logger,
	rec catalog.CatalogRecord,
	categoryMap map[string]int64,
	existingProducts []catalog.RemoteProduct,
	existingMedia []catalog.RemoteMedia,
) (*catalog.ReportEntry, catalog.ReconcileOutcome) {
	recLog := log.With(
		zap.Int("line", rec.Line),
		zap.String("sku", rec.SKU),
		zap.String("name", rec.Name))

	if err := rec.Validate(); err != nil {
		recLog.Error("record rejected by validation", zap.Error(err))
		return nil, catalog.OutcomeSkipped
	}

	imageID, imageURL, err := o.media.Resolve(ctx, rec.ImageRef, existingMedia)
	if err != nil {
		recLog.Error("failed to resolve image", zap.String("image", rec.ImageRef), zap.Error(err))
		return nil, catalog.OutcomeFailed
	}

	payload, err := o.products.BuildPayload(rec, categoryMap, imageID, imageURL)
	if err != nil {
		if errors.Is(err, catalog.ErrUnresolvedCategory) {
			recLog.Error("record excluded: no resolved category",
				zap.String("category", rec.Category),
				zap.String("subcategory", rec.Subcategory))
			return nil, catalog.OutcomeSkipped
		}
		recLog.Error("failed to build payload", zap.Error(err))
		return nil, catalog.OutcomeFailed
	}

	outcome, err := o.products.Reconcile(ctx, payload, existingProducts)
	if err != nil {
		recLog.Error("failed to submit product", zap.Error(err))
		return nil, catalog.OutcomeFailed
	}

	return &catalog.ReportEntry{
		ProductPayload: *payload,
		ImageURL:       imageURL,
		Outcome:        outcome,
	}, outcome
}

// abort finalizes the summary as failed, records it best-effort and returns
// the run error.
func (o *Orchestrator) abort(ctx context.Context, summary *catalog.RunSummary, log *zap.Logger, err error) error {
	summary.FinishedAt = time.Now()
	summary.Status = catalog.RunStatusFailed
	o.record(ctx, log, *summary)
	log.Error("sync run aborted", zap.Error(err))
	return err
}

// record stores the run summary when a history store is configured.
func (o *Orchestrator) record(ctx context.Context, log *zap.Logger, summary catalog.RunSummary) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(ctx, summary); err != nil {
		log.Warn("failed to record run history", zap.Error(err))
	}
}

// collectCategories gathers the distinct top-level names and the
// subcategory→parent map from all records. A subcategory is only eligible
// when its row also names a category.
func collectCategories(records []catalog.CatalogRecord) (map[string]struct{}, map[string]string) {
	names := make(map[string]struct{})
	subParent := make(map[string]string)
	for _, rec := range records {
		if rec.Category == "" {
			continue
		}
		names[rec.Category] = struct{}{}
		if rec.Subcategory != "" {
			subParent[rec.Subcategory] = rec.Category
		}
	}
	return names, subParent
}
