// Package catalogfile reads the locally authored catalog and writes the
// run's artifacts back: the JSON report and the resolved image URLs in the
// source file's trailing column.
package catalogfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/storefront/catalogsync/internal/domain/catalog"
)

// Fixed column layout of the catalog file. The header row is skipped; rows
// are read positionally.
const (
	colCategory = iota
	colSubcategory
	colName
	colDescription
	colPrice
	colSKU
	colBrand
	colStatus
	colImageURL
	columnCount
)

// Source reads ordered catalog records from a CSV file.
type Source struct {
	path string
}

// NewSource creates a source for the catalog file at path.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Path returns the catalog file location.
func (s *Source) Path() string {
	return s.path
}

// Load reads every data row into memory in source order. Completely empty
// rows are skipped; short rows are padded with empty fields.
func (s *Source) Load() ([]catalog.CatalogRecord, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("catalogfile: failed to open %s: %w", s.path, err)
	}
	defer file.Close()

	rows, err := readRows(file)
	if err != nil {
		return nil, err
	}

	records := make([]catalog.CatalogRecord, 0, len(rows))
	for i, fields := range rows {
		if rowIsEmpty(fields) {
			continue
		}
		// Line numbers are 1-indexed with the header as line 1
		records = append(records, catalog.NewCatalogRecord(
			i+2,
			fields[colCategory],
			fields[colSubcategory],
			fields[colName],
			fields[colDescription],
			fields[colPrice],
			fields[colSKU],
			fields[colBrand],
			fields[colStatus],
			fields[colImageURL],
		))
	}

	return records, nil
}

// readRows parses the file into padded data rows, header excluded.
func readRows(r io.Reader) ([][]string, error) {
	buf := bufio.NewReader(r)

	// Detect and strip UTF-8 BOM
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("catalogfile: failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Header row
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("catalogfile: failed to read header: %w", err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalogfile: error reading row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, padRow(record))
	}

	return rows, nil
}

// validateUTF8 checks that the leading content is valid UTF-8
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("catalogfile: failed to read file for encoding validation: %w", err)
	}
	// When the file continues past the sample, the cut may land inside a
	// multi-byte rune; trim the incomplete tail before validating.
	if len(content) == checkSize {
		for i := 0; i < utf8.UTFMax-1 && len(content) > 0; i++ {
			if last, _ := utf8.DecodeLastRune(content); last != utf8.RuneError {
				break
			}
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// padRow extends short rows to the contract width. Extra trailing columns
// are kept as-is so a rewrite never drops user data.
func padRow(fields []string) []string {
	if len(fields) >= columnCount {
		return fields
	}
	padded := make([]string, columnCount)
	copy(padded, fields)
	return padded
}

func rowIsEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
