package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// wc/v3 resources used by the sync engine
const (
	ResourceProducts   = "products"
	ResourceCategories = "products/categories"
	ResourceMedia      = "media"
)

// ListProducts fetches the full remote product list.
func (c *Client) ListProducts(ctx context.Context) ([]catalog.RemoteProduct, error) {
	raw, err := c.FetchPaged(ctx, ResourceProducts)
	if err != nil {
		return nil, err
	}
	return decodeAll[catalog.RemoteProduct](raw, ResourceProducts)
}

// ListMedia fetches the full remote media library.
func (c *Client) ListMedia(ctx context.Context) ([]catalog.RemoteMedia, error) {
	raw, err := c.FetchPaged(ctx, ResourceMedia)
	if err != nil {
		return nil, err
	}
	return decodeAll[catalog.RemoteMedia](raw, ResourceMedia)
}

// SearchCategories searches categories by name.
func (c *Client) SearchCategories(ctx context.Context, name string) ([]catalog.RemoteCategory, error) {
	raw, err := c.Search(ctx, ResourceCategories, name)
	if err != nil {
		return nil, err
	}
	return decodeAll[catalog.RemoteCategory](raw, ResourceCategories)
}

// CreateCategory creates a category; parentID 0 makes a top-level category.
func (c *Client) CreateCategory(ctx context.Context, name string, parentID int64) (*catalog.RemoteCategory, error) {
	body := map[string]any{"name": name, "parent": parentID}
	raw, err := c.Create(ctx, ResourceCategories, body)
	if err != nil {
		return nil, err
	}
	return decodeOne[catalog.RemoteCategory](raw, ResourceCategories)
}

// CreateProduct creates a product from the payload.
func (c *Client) CreateProduct(ctx context.Context, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error) {
	raw, err := c.Create(ctx, ResourceProducts, payload)
	if err != nil {
		return nil, err
	}
	return decodeOne[catalog.RemoteProduct](raw, ResourceProducts)
}

// UpdateProduct updates the product with the given remote id.
func (c *Client) UpdateProduct(ctx context.Context, id int64, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error) {
	raw, err := c.Update(ctx, ResourceProducts, id, payload)
	if err != nil {
		return nil, err
	}
	return decodeOne[catalog.RemoteProduct](raw, ResourceProducts)
}

// UploadMedia uploads the file at path to the media library.
func (c *Client) UploadMedia(ctx context.Context, path string) (*catalog.RemoteMedia, error) {
	raw, err := c.UploadFile(ctx, ResourceMedia, path)
	if err != nil {
		return nil, err
	}
	return decodeOne[catalog.RemoteMedia](raw, ResourceMedia)
}

func decodeAll[T any](raw []json.RawMessage, resource string) ([]T, error) {
	items := make([]T, 0, len(raw))
	for _, r := range raw {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("woocommerce: failed to decode %s item: %w", resource, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeOne[T any](raw json.RawMessage, resource string) (*T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("woocommerce: failed to decode %s response: %w", resource, err)
	}
	return &item, nil
}
