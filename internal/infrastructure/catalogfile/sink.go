package catalogfile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// Sink persists the run's artifacts: the JSON report of submitted payloads
// and the resolved image URL written back into the catalog file.
type Sink struct {
	catalogPath string
	reportPath  string
}

// NewSink creates a sink writing the report to reportPath and image URLs
// back into the catalog file at catalogPath.
func NewSink(catalogPath, reportPath string) *Sink {
	return &Sink{catalogPath: catalogPath, reportPath: reportPath}
}

// WriteReport writes the submitted payloads as a pretty-printed JSON array.
// An empty run still produces a valid empty array.
func (s *Sink) WriteReport(entries []catalog.ReportEntry) error {
	if entries == nil {
		entries = []catalog.ReportEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return fmt.Errorf("catalogfile: failed to marshal report: %w", err)
	}
	if err := os.WriteFile(s.reportPath, data, 0644); err != nil {
		return fmt.Errorf("catalogfile: failed to write report %s: %w", s.reportPath, err)
	}
	return nil
}

// UpdateImageURLs rewrites the catalog file's trailing image-URL column.
// Rows are matched to URLs by SKU, not by position, so rows whose record was
// rejected keep an empty URL. The file is replaced atomically.
func (s *Sink) UpdateImageURLs(skuToURL map[string]string) error {
	file, err := os.Open(s.catalogPath)
	if err != nil {
		return fmt.Errorf("catalogfile: failed to open %s: %w", s.catalogPath, err)
	}

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	file.Close()
	if err != nil {
		return fmt.Errorf("catalogfile: failed to read %s: %w", s.catalogPath, err)
	}
	if len(all) == 0 {
		return ErrEmptyFile
	}

	// Header row stays untouched; data rows get their image column rewritten
	for i := 1; i < len(all); i++ {
		if rowIsEmpty(all[i]) {
			continue
		}
		row := padRow(all[i])
		sku := strings.TrimSpace(row[colSKU])
		row[colImageURL] = skuToURL[sku]
		all[i] = row
	}

	return s.writeAtomic(all)
}

// writeAtomic writes rows to a temp file in the catalog's directory and
// renames it over the original.
func (s *Sink) writeAtomic(rows [][]string) error {
	dir := filepath.Dir(s.catalogPath)
	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return fmt.Errorf("catalogfile: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("catalogfile: failed to write rows: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("catalogfile: failed to flush rows: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("catalogfile: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.catalogPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("catalogfile: failed to replace %s: %w", s.catalogPath, err)
	}
	return nil
}
