package sync

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/storefront/catalogsync/internal/domain/catalog"
	"github.com/storefront/catalogsync/internal/infrastructure/catalogfile"
)

const catalogHeader = "Category,Subcategory,Product Name,Description,Price,Reference,Brand,Site Status,Image URL\n"

// fakeRecorder captures run summaries instead of persisting them.
type fakeRecorder struct {
	summaries []catalog.RunSummary
	err       error
}

func (r *fakeRecorder) Record(_ context.Context, summary catalog.RunSummary) error {
	if r.err != nil {
		return r.err
	}
	r.summaries = append(r.summaries, summary)
	return nil
}

type fixture struct {
	remote      *fakeRemote
	recorder    *fakeRecorder
	catalogPath string
	reportPath  string
	imagesDir   string
	orch        *Orchestrator
}

func newFixture(t *testing.T, remote *fakeRemote, rows string) *fixture {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.csv")
	reportPath := filepath.Join(dir, "updated_products.json")
	imagesDir := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(imagesDir, 0o755))
	require.NoError(t, os.WriteFile(catalogPath, []byte(catalogHeader+rows), 0o644))

	limiter := testLimiter()
	logger := zap.NewNop()
	recorder := &fakeRecorder{}
	orch := NewOrchestrator(
		catalogfile.NewSource(catalogPath),
		catalogfile.NewSink(catalogPath, reportPath),
		remote,
		NewCategoryResolver(remote, limiter, logger),
		NewMediaResolver(remote, limiter, imagesDir, logger),
		NewProductReconciler(remote, limiter, logger),
		recorder,
		logger,
	)
	return &fixture{
		remote:      remote,
		recorder:    recorder,
		catalogPath: catalogPath,
		reportPath:  reportPath,
		imagesDir:   imagesDir,
		orch:        orch,
	}
}

func (f *fixture) readReport(t *testing.T) []catalog.ReportEntry {
	t.Helper()
	data, err := os.ReadFile(f.reportPath)
	require.NoError(t, err)
	var entries []catalog.ReportEntry
	require.NoError(t, json.Unmarshal(data, &entries))
	return entries
}

func (f *fixture) readCatalogRows(t *testing.T) [][]string {
	t.Helper()
	file, err := os.Open(f.catalogPath)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestOrchestrator_EndToEnd(t *testing.T) {
	remote := newFakeRemote()
	remote.products = []catalog.RemoteProduct{{ID: 42, SKU: "REF9999", Name: "Old desk"}}

	rows := "Electronics,Laptops,UltraBook 14,Slim and light,499.99,REF4242,Acme,published,laptop.jpg\n" +
		"Electronics,Laptops,UltraBook 15,Bigger sibling,599.99,REF4243,Acme,published,laptop.jpg\n" +
		"Furniture,,Standing Desk,Adjustable,899,REF9999,Woodco,published,\n" +
		",,No Category Product,Rejected by validation,10,REF0001,,,\n"
	f := newFixture(t, remote, rows)
	writeImage(t, f.imagesDir, "laptop.jpg")

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Updated)
	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Zero(t, report.Summary.Failed)
	assert.Equal(t, catalog.RunStatusCompleted, report.Summary.Status)

	// The report holds exactly the submitted payloads, in catalog order
	entries := f.readReport(t)
	require.Len(t, entries, 3)

	first := entries[0]
	assert.Equal(t, "UltraBook 14", first.Name)
	assert.Equal(t, "simple", first.Type)
	assert.Equal(t, "499.99", first.RegularPrice)
	assert.Equal(t, "REF4242", first.SKU)
	assert.Equal(t, "publish", first.Status)
	assert.Len(t, first.Categories, 2)
	require.Len(t, first.Images, 1)
	assert.Equal(t, first.Images[0].Src, first.ImageURL)
	assert.Equal(t, catalog.OutcomeCreated, first.Outcome)

	assert.Equal(t, catalog.OutcomeUpdated, entries[2].Outcome)
	assert.Equal(t, []string{"update-product:42"}, remote.callsWithPrefix("update-product:"))

	// Both laptop rows share one upload
	assert.Len(t, remote.callsWithPrefix("upload-media:"), 1)
	assert.Equal(t, entries[0].ImageURL, entries[1].ImageURL)

	// Image URLs land in the rows keyed by SKU; the rejected row stays empty
	csvRows := f.readCatalogRows(t)
	require.Len(t, csvRows, 5)
	assert.Equal(t, entries[0].ImageURL, csvRows[1][8])
	assert.Equal(t, entries[1].ImageURL, csvRows[2][8])
	assert.Empty(t, csvRows[3][8])
	assert.Empty(t, csvRows[4][8])

	require.Len(t, f.recorder.summaries, 1)
	assert.Equal(t, catalog.RunStatusCompleted, f.recorder.summaries[0].Status)
}

func TestOrchestrator_FailureIsolation(t *testing.T) {
	remote := newFakeRemote()
	remote.createProductErr["REF2"] = errors.New("internal server error")

	rows := "Electronics,,Alpha,,10,REF1,,published,\n" +
		"Electronics,,Bravo,,20,REF2,,published,\n" +
		"Electronics,,Charlie,,30,REF3,,published,\n"
	f := newFixture(t, remote, rows)

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err, "a single record failure must not abort the run")

	assert.Equal(t, 2, report.Summary.Created)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, catalog.RunStatusCompleted, report.Summary.Status)

	entries := f.readReport(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "REF1", entries[0].SKU)
	assert.Equal(t, "REF3", entries[1].SKU)
}

func TestOrchestrator_ConflictCountedAsProcessed(t *testing.T) {
	remote := newFakeRemote()
	remote.createProductErr["REF1"] = conflictErr("products", "woocommerce_rest_duplicate_sku")

	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n")

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Conflicts)
	assert.Zero(t, report.Summary.Failed)
	entries := f.readReport(t)
	require.Len(t, entries, 1)
	assert.Equal(t, catalog.OutcomeConflict, entries[0].Outcome)
}

func TestOrchestrator_CategorySearchFailureAborts(t *testing.T) {
	remote := newFakeRemote()
	remote.searchErr["Electronics"] = errors.New("gateway timeout")

	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n")

	_, err := f.orch.Run(context.Background())
	require.Error(t, err)

	assert.NoFileExists(t, f.reportPath, "an aborted run writes no report")
	require.Len(t, f.recorder.summaries, 1)
	assert.Equal(t, catalog.RunStatusFailed, f.recorder.summaries[0].Status)
}

func TestOrchestrator_ProductListFailureAborts(t *testing.T) {
	remote := newFakeRemote()
	remote.listProductsErr = errors.New("connection refused")

	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n")

	_, err := f.orch.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, remote.callsWithPrefix("create-product:"))
	assert.NoFileExists(t, f.reportPath)
}

func TestOrchestrator_UnresolvedCategorySkipsRecord(t *testing.T) {
	remote := newFakeRemote()
	remote.createCategoryErr["Electronics"] = errors.New("internal server error")

	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n"+
		"Furniture,,Desk,,20,REF2,,published,\n")

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Equal(t, 1, report.Summary.Created)
	entries := f.readReport(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "REF2", entries[0].SKU)
}

func TestOrchestrator_HeaderOnlyCatalog(t *testing.T) {
	f := newFixture(t, newFakeRemote(), "")

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Summary.Total)
	data, err := os.ReadFile(f.reportPath)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestOrchestrator_NilHistoryRecorder(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n")
	f.orch.history = nil

	_, err := f.orch.Run(context.Background())
	require.NoError(t, err)
}

func TestOrchestrator_HistoryFailureDoesNotAbort(t *testing.T) {
	remote := newFakeRemote()
	f := newFixture(t, remote, "Electronics,,Alpha,,10,REF1,,published,\n")
	f.recorder.err = errors.New("disk full")

	report, err := f.orch.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, catalog.RunStatusCompleted, report.Summary.Status)
}
