// Package validation holds typed input checks for user-submitted data.
package validation

import "microblog/internal/models"

// Result is the outcome of validating one input. Fields maps a field name to
// the reason it was rejected.
type Result struct {
	Valid  bool
	Fields map[string]string
}

// OK returns a passing result.
func OK() Result {
	return Result{Valid: true}
}

// Fail records a rejected field on the result.
func (r *Result) Fail(field, reason string) {
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Valid = false
	r.Fields[field] = reason
}

// Merge folds other's failures into r.
func (r *Result) Merge(other Result) {
	for field, reason := range other.Fields {
		r.Fail(field, reason)
	}
}

// Err converts a failed result into a validation AppError; nil when valid.
func (r Result) Err(message string) error {
	if r.Valid {
		return nil
	}
	return models.NewFieldValidationError(message, r.Fields)
}
