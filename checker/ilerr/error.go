// Package ilerr is the checker's error type: a closed set of
// diagnostics, each carrying the source position it was raised at and
// a debug stack trace captured at construction (so a --debug run can
// point back at the checker code that raised it, not just the source
// line).
package ilerr

import (
	"fmt"
	"log/slog"
)

// Errors accumulates IleErrors across a checking pass without aborting
// early; it is threaded functionally (With/Merge both return a new
// value) the way checker.Env itself is, so a failed branch of the
// checker never clobbers its sibling's errors.
type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(other *Errors) *Errors {
	if r == nil {
		return other
	}
	if other == nil || len(other.errs) == 0 {
		return r
	}
	return r.With(other.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) HasError() bool {
	return r != nil && len(r.errs) > 0
}

func (r *Errors) LogValue() slog.Value {
	var attrs []slog.Attr
	for i, e := range r.Errors() {
		attrs = append(attrs, slog.Attr{
			Key:   fmt.Sprint("e", i),
			Value: slog.StringValue(FormatWithCode(e)),
		})
	}
	return slog.GroupValue(attrs...)
}
