package redact

import "fmt"

// MalformedSourceError reports source bytes that cannot be parsed or
// validated as a PDF document.
type MalformedSourceError struct {
	Err error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed source document: %v", e.Err)
}

func (e *MalformedSourceError) Unwrap() error { return e.Err }

// PageIndexError reports a mark that targets a page the document does not have.
// Index is 0-based.
type PageIndexError struct {
	Index     int
	PageCount int
}

func (e *PageIndexError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d]", e.Index, e.PageCount-1)
}

// InvalidRectangleError reports a mark whose PDF-space box has no area, has
// non-finite coordinates, or lies entirely outside the page media box.
type InvalidRectangleError struct {
	Page   int
	Box    Box
	Reason string
}

func (e *InvalidRectangleError) Error() string {
	return fmt.Sprintf("invalid rectangle on page index %d [%g %g %g %g]: %s",
		e.Page, e.Box.X0, e.Box.Y0, e.Box.X1, e.Box.Y1, e.Reason)
}

// ResourceExhaustionError reports input that exceeds a configured limit.
type ResourceExhaustionError struct {
	Resource string
	Limit    int64
	Actual   int64
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("%s limit exceeded: %d > %d", e.Resource, e.Actual, e.Limit)
}
