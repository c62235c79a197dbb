package sync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/storefront/catalogsync/internal/domain/catalog"
	"github.com/storefront/catalogsync/internal/infrastructure/ratelimit"
	"github.com/storefront/catalogsync/internal/infrastructure/woocommerce"
)

// fakeRemote is an in-memory stand-in for the remote store. It records
// every call in order so tests can assert on sequencing and call counts.
type fakeRemote struct {
	mu         sync.Mutex
	categories []catalog.RemoteCategory
	products   []catalog.RemoteProduct
	media      []catalog.RemoteMedia
	nextID     int64
	calls      []string

	searchErr         map[string]error
	createCategoryErr map[string]error
	uploadErr         map[string]error
	createProductErr  map[string]error
	updateProductErr  map[int64]error
	listProductsErr   error
	listMediaErr      error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		nextID:            100,
		searchErr:         make(map[string]error),
		createCategoryErr: make(map[string]error),
		uploadErr:         make(map[string]error),
		createProductErr:  make(map[string]error),
		updateProductErr:  make(map[int64]error),
	}
}

func (f *fakeRemote) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeRemote) SearchCategories(_ context.Context, name string) ([]catalog.RemoteCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("search-category:" + name)
	if err := f.searchErr[name]; err != nil {
		return nil, err
	}
	var matches []catalog.RemoteCategory
	for _, c := range f.categories {
		if strings.Contains(c.Name, name) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

func (f *fakeRemote) CreateCategory(_ context.Context, name string, parentID int64) (*catalog.RemoteCategory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create-category:" + name)
	if err := f.createCategoryErr[name]; err != nil {
		return nil, err
	}
	f.nextID++
	created := catalog.RemoteCategory{ID: f.nextID, Name: name, Parent: parentID}
	f.categories = append(f.categories, created)
	return &created, nil
}

func (f *fakeRemote) UploadMedia(_ context.Context, path string) (*catalog.RemoteMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upload-media:" + path)
	if err := f.uploadErr[path]; err != nil {
		return nil, err
	}
	f.nextID++
	created := catalog.RemoteMedia{ID: f.nextID, SourceURL: fmt.Sprintf("https://cdn.test/media/%d.jpg", f.nextID)}
	f.media = append(f.media, created)
	return &created, nil
}

func (f *fakeRemote) CreateProduct(_ context.Context, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create-product:" + payload.SKU)
	if err := f.createProductErr[payload.SKU]; err != nil {
		return nil, err
	}
	f.nextID++
	created := catalog.RemoteProduct{ID: f.nextID, SKU: payload.SKU, Name: payload.Name}
	f.products = append(f.products, created)
	return &created, nil
}

func (f *fakeRemote) UpdateProduct(_ context.Context, id int64, payload *catalog.ProductPayload) (*catalog.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(fmt.Sprintf("update-product:%d", id))
	if err := f.updateProductErr[id]; err != nil {
		return nil, err
	}
	return &catalog.RemoteProduct{ID: id, SKU: payload.SKU, Name: payload.Name}, nil
}

func (f *fakeRemote) ListProducts(_ context.Context) ([]catalog.RemoteProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list-products")
	if f.listProductsErr != nil {
		return nil, f.listProductsErr
	}
	out := make([]catalog.RemoteProduct, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeRemote) ListMedia(_ context.Context) ([]catalog.RemoteMedia, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list-media")
	if f.listMediaErr != nil {
		return nil, f.listMediaErr
	}
	out := make([]catalog.RemoteMedia, len(f.media))
	copy(out, f.media)
	return out, nil
}

// testLimiter is a limiter generous enough to never delay a test.
func testLimiter() ratelimit.Limiter {
	return ratelimit.NewSlidingWindowLimiter(10000, time.Second)
}

// countingLimiter counts acquisitions so tests can assert every mutation
// passed through the limiter.
type countingLimiter struct {
	mu       sync.Mutex
	acquired int
}

func (l *countingLimiter) Acquire(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return nil
}

func (l *countingLimiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return true
}

func (l *countingLimiter) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired
}

func conflictErr(resource, code string) error {
	return &woocommerce.APIError{
		Resource:   resource,
		StatusCode: 400,
		Body:       []byte(fmt.Sprintf(`{"code":%q,"message":"already exists"}`, code)),
	}
}
