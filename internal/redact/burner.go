package redact

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from reading or creating a configuration directory.
	model.ConfigPath = "disable"
}

// Limits bounds the work a single call may do. A limit <= 0 is not
// enforced; NewBurner replaces zeros with DefaultLimits.
type Limits struct {
	MaxSourceBytes int64
	MaxPages       int
	MaxMarks       int
}

// DefaultLimits is used by NewBurner for any limit left at zero.
var DefaultLimits = Limits{
	MaxSourceBytes: 64 << 20,
	MaxPages:       2000,
	MaxMarks:       10000,
}

// Region is a UI-space rectangle on a 1-indexed page.
type Region struct {
	Page int
	Rect Rect
}

// PageInfo describes the media box of one page.
type PageInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentInfo is the result of Inspect.
type DocumentInfo struct {
	PageCount int        `json:"page_count"`
	Pages     []PageInfo `json:"pages"`
}

// Burner writes redaction marks into PDF documents. It keeps no state between
// calls and is safe for concurrent use.
type Burner struct {
	limits Limits
}

// NewBurner returns a Burner enforcing l. Negative limits disable the check.
func NewBurner(l Limits) *Burner {
	if l.MaxSourceBytes == 0 {
		l.MaxSourceBytes = DefaultLimits.MaxSourceBytes
	}
	if l.MaxPages == 0 {
		l.MaxPages = DefaultLimits.MaxPages
	}
	if l.MaxMarks == 0 {
		l.MaxMarks = DefaultLimits.MaxMarks
	}
	return &Burner{limits: l}
}

// Limits returns the effective limits.
func (b *Burner) Limits() Limits { return b.limits }

// Inspect parses src and reports its page geometry.
func (b *Burner) Inspect(src []byte) (*DocumentInfo, error) {
	_, pages, err := b.open(src)
	if err != nil {
		return nil, err
	}
	info := &DocumentInfo{PageCount: len(pages), Pages: make([]PageInfo, len(pages))}
	for i, p := range pages {
		info.Pages[i] = PageInfo{Width: p.mediaBox.Width(), Height: p.mediaBox.Height()}
	}
	return info, nil
}

// Apply burns PDF-space boxes into src. marks is keyed by 0-based page index.
// src is not modified; a new document is returned.
func (b *Burner) Apply(src []byte, marks map[int][]Box) ([]byte, error) {
	total := 0
	for _, boxes := range marks {
		total += len(boxes)
	}
	if err := b.checkMarks(total); err != nil {
		return nil, err
	}

	ctx, pages, err := b.open(src)
	if err != nil {
		return nil, err
	}

	indexes := make([]int, 0, len(marks))
	for idx := range marks {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		if idx < 0 || idx >= len(pages) {
			return nil, &PageIndexError{Index: idx, PageCount: len(pages)}
		}
	}

	return b.burn(ctx, pages, marks)
}

// Redact maps each region from UI space into its page's PDF space and burns
// the result into src.
func (b *Burner) Redact(src []byte, regions []Region) ([]byte, error) {
	if err := b.checkMarks(len(regions)); err != nil {
		return nil, err
	}

	ctx, pages, err := b.open(src)
	if err != nil {
		return nil, err
	}

	marks := make(map[int][]Box)
	for _, r := range regions {
		idx := r.Page - 1
		if idx < 0 || idx >= len(pages) {
			return nil, &PageIndexError{Index: idx, PageCount: len(pages)}
		}
		mb := pages[idx].mediaBox
		box := MapToPDFSpace(r.Rect, mb.Height()).Translate(mb.X0, mb.Y0)
		marks[idx] = append(marks[idx], box)
	}

	return b.burn(ctx, pages, marks)
}

func (b *Burner) checkMarks(n int) error {
	if lim := b.limits.MaxMarks; lim > 0 && n > lim {
		return &ResourceExhaustionError{Resource: "marks", Limit: int64(lim), Actual: int64(n)}
	}
	return nil
}

func (b *Burner) open(src []byte) (ctx *model.Context, pages []*page, err error) {
	if lim := b.limits.MaxSourceBytes; lim > 0 && int64(len(src)) > lim {
		return nil, nil, &ResourceExhaustionError{Resource: "source bytes", Limit: lim, Actual: int64(len(src))}
	}
	if len(src) == 0 {
		return nil, nil, &MalformedSourceError{Err: fmt.Errorf("empty input")}
	}

	defer recoverMalformed(&err)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	// Classic cross-reference tables keep the output readable by older viewers.
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	// The reader only sees a private view of src.
	ctx, err = api.ReadContext(bytes.NewReader(src), conf)
	if err != nil {
		return nil, nil, &MalformedSourceError{Err: err}
	}
	if err = api.ValidateContext(ctx); err != nil {
		return nil, nil, &MalformedSourceError{Err: err}
	}

	if lim := b.limits.MaxPages; lim > 0 && ctx.PageCount > lim {
		return nil, nil, &ResourceExhaustionError{Resource: "pages", Limit: int64(lim), Actual: int64(ctx.PageCount)}
	}

	pages = make([]*page, ctx.PageCount)
	for i := range pages {
		p, perr := loadPage(ctx, i)
		if perr != nil {
			return nil, nil, &MalformedSourceError{Err: perr}
		}
		pages[i] = p
	}
	return ctx, pages, nil
}

// burn validates every mark before touching any page, then flattens the marks
// page by page and serialises the document.
func (b *Burner) burn(ctx *model.Context, pages []*page, marks map[int][]Box) (out []byte, err error) {
	defer recoverMalformed(&err)

	for i, p := range pages {
		for _, box := range marks[i] {
			if err := validateBox(i, box, p.mediaBox); err != nil {
				return nil, err
			}
		}
	}

	for i, p := range pages {
		if err := p.flatten(marks[i]); err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

// recoverMalformed converts a panic raised by pdfcpu on an unexpected document
// structure into a MalformedSourceError. It must be deferred directly.
func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = &MalformedSourceError{Err: fmt.Errorf("pdf engine panic: %v", r)}
	}
}

func validateBox(index int, box, mediaBox Box) error {
	switch {
	case !box.finite():
		return &InvalidRectangleError{Page: index, Box: box, Reason: "non-finite coordinates"}
	case box.Width() <= 0 || box.Height() <= 0:
		return &InvalidRectangleError{Page: index, Box: box, Reason: "zero or negative area"}
	case !box.Overlaps(mediaBox):
		return &InvalidRectangleError{Page: index, Box: box, Reason: "outside media box"}
	}
	return nil
}
