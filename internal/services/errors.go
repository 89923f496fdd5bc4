package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category names the failure class carried by a wrapped error.
type Category string

const (
	CategoryExternalTool  Category = "external_tool"
	CategoryValidation    Category = "validation"
	CategoryConfiguration Category = "configuration"
	CategoryNotFound      Category = "not_found"
	CategoryTimeout       Category = "timeout"
	CategoryTransient     Category = "transient"
)

// Classify maps an error to its category via the sentinel markers. Unmarked
// errors classify as transient so they remain retryable.
func Classify(err error) Category {
	switch {
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrConfiguration):
		return CategoryConfiguration
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrTimeout):
		return CategoryTimeout
	case errors.Is(err, ErrExternalTool):
		return CategoryExternalTool
	default:
		return CategoryTransient
	}
}

// NeedsReview reports whether a failure requires operator attention before a
// retry can succeed. Validation, configuration, and missing-input failures
// stay broken until someone fixes the input or the config; everything else is
// retryable as-is.
func NeedsReview(err error) bool {
	switch Classify(err) {
	case CategoryValidation, CategoryConfiguration, CategoryNotFound:
		return true
	default:
		return false
	}
}

// ErrorDetails is the structured view of a wrapped service error used for
// logging and status lines.
type ErrorDetails struct {
	Kind    Category
	Message string
	Cause   error
}

// Details decomposes a wrapped error into its category, the human-readable
// remainder after the sentinel prefix, and the underlying cause when one was
// wrapped.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: CategoryTransient}
	}
	d := ErrorDetails{Kind: Classify(err), Message: err.Error()}
	for _, marker := range []error{ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout, ErrTransient} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(d.Message, prefix) {
			d.Message = strings.TrimPrefix(d.Message, prefix)
			break
		}
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if errs := joined.Unwrap(); len(errs) == 2 {
			d.Cause = errs[1]
		}
	}
	return d
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
