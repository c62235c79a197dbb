package catalog

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrUnresolvedCategory marks a record whose category set resolved to
	// empty; the record is excluded from submission.
	ErrUnresolvedCategory = NewDomainError("UNRESOLVED_CATEGORY", "No category could be resolved for this record")

	// ErrOrphanSubcategory marks a subcategory whose parent failed to
	// resolve; the subcategory is excluded from the category map.
	ErrOrphanSubcategory = NewDomainError("ORPHAN_SUBCATEGORY", "Parent category not resolved for subcategory")

	// ErrDuplicateRemote is the structured form of the remote store's
	// "already exists" signal. Treated as a warning, never a failure.
	ErrDuplicateRemote = NewDomainError("ALREADY_EXISTS", "Resource already exists on the remote store")
)
