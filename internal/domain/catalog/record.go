package catalog

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// validate is the shared validator instance for catalog records
var validate = validator.New()

// CatalogRecord is one locally authored catalog row, normalized from the
// source file. Price keeps the parsed decimal; rows with a missing or
// non-numeric price carry decimal.Zero so the payload serializes it as "0".
type CatalogRecord struct {
	Category    string `validate:"required"`
	Subcategory string
	Name        string `validate:"required"`
	Description string
	Price       decimal.Decimal
	SKU         string
	Brand       string
	Status      string
	ImageRef    string
	// Line is the 1-indexed source row, kept for log context
	Line int
}

// NewCatalogRecord builds a record from raw source fields, trimming
// whitespace and parsing the price. A price that does not parse maps to zero
// rather than failing the row.
func NewCatalogRecord(line int, category, subcategory, name, description, price, sku, brand, status, imageRef string) CatalogRecord {
	parsed, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		parsed = decimal.Zero
	}
	return CatalogRecord{
		Category:    strings.TrimSpace(category),
		Subcategory: strings.TrimSpace(subcategory),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Price:       parsed,
		SKU:         strings.TrimSpace(sku),
		Brand:       strings.TrimSpace(brand),
		Status:      strings.TrimSpace(status),
		ImageRef:    strings.TrimSpace(imageRef),
		Line:        line,
	}
}

// Validate checks the structural requirements of a record. Category and name
// are required; an empty SKU is allowed (the record can still be created
// remotely, it just never matches an existing product).
func (r CatalogRecord) Validate() error {
	return validate.Struct(r)
}

// Published reports whether the row's site status marks it as live.
func (r CatalogRecord) Published() bool {
	return strings.EqualFold(r.Status, "published") || strings.EqualFold(r.Status, "publish")
}
