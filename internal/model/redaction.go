package model

import (
	"fmt"
	"time"
)

// RedactionType tags how a redaction was captured in the viewer.
type RedactionType string

const (
	RedactionTextSelection RedactionType = "text-selection"
	RedactionAreaDrawing   RedactionType = "area-drawing"
)

// ParseRedactionType accepts the canonical tags and the short legacy
// forms "text" and "area".
func ParseRedactionType(s string) (RedactionType, error) {
	switch s {
	case string(RedactionTextSelection), "text":
		return RedactionTextSelection, nil
	case string(RedactionAreaDrawing), "area":
		return RedactionAreaDrawing, nil
	}
	return "", fmt.Errorf("unknown redaction type %q", s)
}

// Coordinates locate a redaction in UI space: X/Y is the top-left corner
// relative to the top-left of the page, in points. Page is 1-indexed.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Page   int     `json:"page"`
}

// Redaction is a region of a document to be blacked out on download.
// Redactions are never updated; they are removed with their document.
type Redaction struct {
	ID          string        `json:"id"`
	DocumentID  string        `json:"document_id"`
	Type        RedactionType `json:"type"`
	Coordinates Coordinates   `json:"coordinates"`
	CreatedAt   time.Time     `json:"created_at"`
}

// String mirrors the admin listing: "Area Drawing on page 2: (10, 20) - 30x40".
func (r Redaction) String() string {
	c := r.Coordinates
	label := "Text Selection"
	if r.Type == RedactionAreaDrawing {
		label = "Area Drawing"
	}
	return fmt.Sprintf("%s on page %d: (%g, %g) - %gx%g", label, c.Page, c.X, c.Y, c.Width, c.Height)
}
