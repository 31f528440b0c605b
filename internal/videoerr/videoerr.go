// Package videoerr defines the closed set of error kinds the ingestion
// pipeline surfaces to its callers.
package videoerr

import "fmt"

// Kind is the closed set of error categories the core reports. Callers
// branch on Kind instead of matching error strings.
type Kind string

const (
	NotFound            Kind = "not_found"
	Conflict             Kind = "conflict"
	InvalidInput         Kind = "invalid_input"
	ExternalRateLimited  Kind = "external_rate_limited"
	ExternalTransient    Kind = "external_transient"
	ExternalPermanent    Kind = "external_permanent"
	StoreConsistency     Kind = "store_consistency"
	FilesystemIO         Kind = "filesystem_io"
	Cancelled            Kind = "cancelled"
)

// ConflictSubkind further classifies a Conflict error raised by the transferer.
type ConflictSubkind string

const (
	Duplicate      ConflictSubkind = "duplicate"
	NameCollision  ConflictSubkind = "name_collision"
	SimilarContent ConflictSubkind = "similar_content"
)

// Error is the concrete error value carried through the pipeline.
type Error struct {
	Kind    Kind
	Subkind ConflictSubkind // only meaningful when Kind == Conflict
	Op      string          // component/operation that raised it, e.g. "matcher.Search"
	Err     error           // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Subkind != "" {
			return fmt.Sprintf("%s: %s/%s: %v", e.Op, e.Kind, e.Subkind, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Subkind != "" {
		return fmt.Sprintf("%s: %s/%s", e.Op, e.Kind, e.Subkind)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func NewConflict(subkind ConflictSubkind, op string, err error) *Error {
	return &Error{Kind: Conflict, Subkind: subkind, Op: op, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf extracts the Kind from err, returning "" if err is not one of ours.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
