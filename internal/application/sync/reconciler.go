package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
	"github.com/storefront/catalogsync/internal/infrastructure/ratelimit"
	"github.com/storefront/catalogsync/internal/infrastructure/woocommerce"
)

// ProductReconciler decides create-vs-update per record, keyed by SKU, and
// issues the mutation through the shared rate limiter.
type ProductReconciler struct {
	client  ProductAPI
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// NewProductReconciler creates a new ProductReconciler
func NewProductReconciler(client ProductAPI, limiter ratelimit.Limiter, logger *zap.Logger) *ProductReconciler {
	return &ProductReconciler{
		client:  client,
		limiter: limiter,
		logger:  logger.Named("products"),
	}
}

// BuildPayload normalizes one record into its API-ready form. Category
// names without a resolved id are silently omitted; an empty resulting set
// rejects the record with ErrUnresolvedCategory. A missing or unparseable
// price has already collapsed to zero and serializes as "0".
func (r *ProductReconciler) BuildPayload(rec catalog.CatalogRecord, categoryMap map[string]int64, imageID int64, imageURL string) (*catalog.ProductPayload, error) {
	payload := &catalog.ProductPayload{
		Name:             rec.Name,
		Type:             "simple",
		RegularPrice:     rec.Price.String(),
		Description:      rec.Description,
		ShortDescription: rec.Description,
		SKU:              rec.SKU,
		Categories:       make([]catalog.CategoryRef, 0, 2),
	}

	// Anything that is not an explicit published marker stays a draft
	if rec.Published() {
		payload.Status = "publish"
	} else {
		payload.Status = "draft"
	}

	if rec.Category != "" {
		if id, ok := categoryMap[rec.Category]; ok && id != 0 {
			payload.Categories = append(payload.Categories, catalog.CategoryRef{ID: id})
		}
	}
	if rec.Subcategory != "" {
		if id, ok := categoryMap[rec.Subcategory]; ok && id != 0 {
			payload.Categories = append(payload.Categories, catalog.CategoryRef{ID: id})
		}
	}

	if len(payload.Categories) == 0 {
		return nil, catalog.ErrUnresolvedCategory
	}

	if imageID != 0 && imageURL != "" {
		payload.Images = []catalog.ImageRef{{ID: imageID, Src: imageURL}}
	}

	return payload, nil
}

// Reconcile matches the payload against existing remote products by exact
// SKU and issues an update on match, a create otherwise. A remote duplicate
// signal is a Conflict outcome, counted as processed.
func (r *ProductReconciler) Reconcile(ctx context.Context, payload *catalog.ProductPayload, existing []catalog.RemoteProduct) (catalog.ReconcileOutcome, error) {
	var match *catalog.RemoteProduct
	if payload.SKU != "" {
		for i := range existing {
			if existing[i].SKU == payload.SKU {
				match = &existing[i]
				break
			}
		}
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return catalog.OutcomeFailed, err
	}

	if match != nil {
		if _, err := r.client.UpdateProduct(ctx, match.ID, payload); err != nil {
			return r.mutationOutcome("update", payload, err)
		}
		r.logger.Info("product updated",
			zap.String("name", payload.Name),
			zap.String("sku", payload.SKU),
			zap.Int64("id", match.ID))
		return catalog.OutcomeUpdated, nil
	}

	if _, err := r.client.CreateProduct(ctx, payload); err != nil {
		return r.mutationOutcome("create", payload, err)
	}
	r.logger.Info("product created",
		zap.String("name", payload.Name),
		zap.String("sku", payload.SKU))
	return catalog.OutcomeCreated, nil
}

func (r *ProductReconciler) mutationOutcome(op string, payload *catalog.ProductPayload, err error) (catalog.ReconcileOutcome, error) {
	if woocommerce.IsConflict(err) {
		r.logger.Warn("product already exists, counted as processed",
			zap.String("op", op),
			zap.String("name", payload.Name),
			zap.String("sku", payload.SKU))
		return catalog.OutcomeConflict, nil
	}
	return catalog.OutcomeFailed, err
}
