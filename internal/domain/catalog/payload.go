package catalog

// ProductPayload is the normalized, API-ready representation of a catalog
// record. It is built per record and never persisted.
type ProductPayload struct {
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	RegularPrice     string        `json:"regular_price"`
	Description      string        `json:"description"`
	ShortDescription string        `json:"short_description"`
	SKU              string        `json:"sku"`
	Status           string        `json:"status,omitempty"`
	Categories       []CategoryRef `json:"categories"`
	Images           []ImageRef    `json:"images,omitempty"`
}

// ReconcileOutcome classifies what happened to one record against the
// remote store. Callers branch on this instead of sniffing error text.
type ReconcileOutcome string

const (
	OutcomeCreated  ReconcileOutcome = "created"
	OutcomeUpdated  ReconcileOutcome = "updated"
	OutcomeConflict ReconcileOutcome = "conflict"
	OutcomeFailed   ReconcileOutcome = "failed"
	OutcomeSkipped  ReconcileOutcome = "skipped"
)

// Submitted reports whether the outcome counts as processed: the payload
// reached the remote store, or the store already held an equivalent entry.
func (o ReconcileOutcome) Submitted() bool {
	switch o {
	case OutcomeCreated, OutcomeUpdated, OutcomeConflict:
		return true
	}
	return false
}

// ReportEntry is one submitted payload in the sync report, annotated with
// the image URL that ended up attached to it.
type ReportEntry struct {
	ProductPayload
	ImageURL string           `json:"image_url"`
	Outcome  ReconcileOutcome `json:"outcome"`
}
