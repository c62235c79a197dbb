package sync

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
	"github.com/storefront/catalogsync/internal/infrastructure/ratelimit"
	"github.com/storefront/catalogsync/internal/infrastructure/woocommerce"
)

// CategoryResolver converts category names into remote ids, creating what
// is missing. Search-then-create is the sole idempotence mechanism; the
// resolver keeps no state across runs.
type CategoryResolver struct {
	client  CategoryAPI
	limiter ratelimit.Limiter
	logger  *zap.Logger
}

// NewCategoryResolver creates a new CategoryResolver
func NewCategoryResolver(client CategoryAPI, limiter ratelimit.Limiter, logger *zap.Logger) *CategoryResolver {
	return &CategoryResolver{
		client:  client,
		limiter: limiter,
		logger:  logger.Named("categories"),
	}
}

// ResolveAll resolves every top-level name before any subcategory, so a
// child is never created ahead of its parent. A subcategory whose parent
// did not resolve is logged and left out of the map; a failed remote search
// aborts resolution entirely (nothing downstream can proceed without it).
func (r *CategoryResolver) ResolveAll(ctx context.Context, names map[string]struct{}, subParent map[string]string) (map[string]int64, error) {
	categoryMap := make(map[string]int64, len(names)+len(subParent))

	// Deterministic ordering for the top-level pass
	topLevel := make([]string, 0, len(names))
	for name := range names {
		topLevel = append(topLevel, name)
	}
	sort.Strings(topLevel)

	for _, name := range topLevel {
		id, err := r.ensureExists(ctx, name, 0)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			continue
		}
		categoryMap[name] = id
	}

	nodes := make([]catalog.CategoryNode, 0, len(subParent))
	for name, parent := range subParent {
		nodes = append(nodes, catalog.CategoryNode{Name: name, ParentName: parent})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	for i := range nodes {
		node := &nodes[i]
		parentID, ok := categoryMap[node.ParentName]
		if !ok {
			r.logger.Error("parent category not resolved, skipping subcategory",
				zap.String("subcategory", node.Name),
				zap.String("parent", node.ParentName),
				zap.String("reason", catalog.ErrOrphanSubcategory.Code))
			continue
		}
		id, err := r.ensureExists(ctx, node.Name, parentID)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			continue
		}
		node.RemoteID = id
		categoryMap[node.Name] = id
	}

	return categoryMap, nil
}

// ensureExists searches by exact name and creates on miss. Returns 0 when
// the name could not be resolved for a reason that only affects dependent
// records (create failure), so the caller can continue.
func (r *CategoryResolver) ensureExists(ctx context.Context, name string, parentID int64) (int64, error) {
	matches, err := r.client.SearchCategories(ctx, name)
	if err != nil {
		return 0, err
	}
	for _, match := range matches {
		if match.Name == name {
			r.logger.Info("category exists",
				zap.String("name", name),
				zap.Int64("id", match.ID))
			return match.ID, nil
		}
	}

	if err := r.limiter.Acquire(ctx); err != nil {
		return 0, err
	}
	created, err := r.client.CreateCategory(ctx, name, parentID)
	if err != nil {
		if woocommerce.IsConflict(err) {
			// Lost a race with another writer; the search-side of the
			// idempotence mechanism picks the winner up.
			return r.recoverExisting(ctx, name)
		}
		r.logger.Error("failed to create category",
			zap.String("name", name),
			zap.Int64("parent_id", parentID),
			zap.Error(err))
		return 0, nil
	}

	r.logger.Info("category created",
		zap.String("name", name),
		zap.Int64("id", created.ID),
		zap.Int64("parent_id", parentID))
	return created.ID, nil
}

// recoverExisting re-runs the search after a create conflict.
func (r *CategoryResolver) recoverExisting(ctx context.Context, name string) (int64, error) {
	matches, err := r.client.SearchCategories(ctx, name)
	if err != nil {
		return 0, err
	}
	for _, match := range matches {
		if match.Name == name {
			r.logger.Warn("category already existed",
				zap.String("name", name),
				zap.Int64("id", match.ID))
			return match.ID, nil
		}
	}
	r.logger.Error("category conflict but no exact match found", zap.String("name", name))
	return 0, nil
}
