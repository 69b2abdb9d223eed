package redact

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// page is a handle on a single page of an open document. All format-specific
// content stream manipulation lives here.
type page struct {
	ctx      *model.Context
	index    int
	dict     types.Dict
	mediaBox Box
	// content holds the decoded /Contents streams, each followed by a newline.
	content []byte
}

func loadPage(ctx *model.Context, index int) (*page, error) {
	d, _, attrs, err := ctx.PageDict(index+1, false)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("page %d: missing page dictionary", index+1)
	}

	p := &page{ctx: ctx, index: index, dict: d}

	if obj, found := d.Find("MediaBox"); found {
		mb, err := p.boxFromObject(obj)
		if err != nil {
			return nil, fmt.Errorf("page %d: media box: %w", index+1, err)
		}
		p.mediaBox = mb
	} else if attrs != nil && attrs.MediaBox != nil {
		r := attrs.MediaBox
		p.mediaBox = Box{X0: r.LL.X, Y0: r.LL.Y, X1: r.UR.X, Y1: r.UR.Y}
	} else {
		return nil, fmt.Errorf("page %d: no media box", index+1)
	}

	p.mediaBox = p.mediaBox.normalize()
	if p.mediaBox.Area() <= 0 {
		return nil, fmt.Errorf("page %d: empty media box", index+1)
	}

	content, err := p.readContents()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index+1, err)
	}
	p.content = content
	return p, nil
}

// readContents decodes and concatenates every stream in /Contents.
func (p *page) readContents() ([]byte, error) {
	obj, found := p.dict.Find("Contents")
	if !found || obj == nil {
		return nil, nil
	}
	refs, err := p.contentRefs(obj)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, ref := range refs {
		content, err := p.decodeStream(ref)
		if err != nil {
			return nil, err
		}
		buf.Write(content)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

func (p *page) boxFromObject(obj types.Object) (Box, error) {
	arr, err := p.ctx.DereferenceArray(obj)
	if err != nil {
		return Box{}, err
	}
	if len(arr) != 4 {
		return Box{}, fmt.Errorf("expected 4 numbers, got %d", len(arr))
	}
	var v [4]float64
	for i, o := range arr {
		o, err := p.ctx.Dereference(o)
		if err != nil {
			return Box{}, err
		}
		switch n := o.(type) {
		case types.Integer:
			v[i] = float64(n)
		case types.Float:
			v[i] = float64(n)
		default:
			return Box{}, fmt.Errorf("unexpected %T in rectangle", o)
		}
	}
	return Box{X0: v[0], Y0: v[1], X1: v[2], Y1: v[3]}, nil
}

// flatten paints boxes as opaque black fills on top of the existing page
// content and replaces /Contents with a single stream holding both. The
// original content is wrapped in q/Q, and any q or BT it leaves open is
// closed first, so the marks are drawn in the default user space. Annotations
// overlapping a mark are removed; nothing is added to /Annots.
func (p *page) flatten(boxes []Box) error {
	if len(boxes) == 0 {
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("q\n")
	buf.Write(p.content)
	saves, inText := openState(p.content)
	if inText {
		buf.WriteString("ET\n")
	}
	for ; saves > 0; saves-- {
		buf.WriteString("Q\n")
	}
	buf.Write(markOperators(boxes))

	if err := p.dropCoveredAnnots(boxes); err != nil {
		return &MalformedSourceError{Err: err}
	}

	ir, err := p.newContentStream(buf.Bytes())
	if err != nil {
		return err
	}
	p.dict.Update("Contents", *ir)
	return nil
}

// dropCoveredAnnots removes the annotations whose /Rect overlaps any of boxes.
// Annotation appearances are painted above the page content and would show
// through the marks.
func (p *page) dropCoveredAnnots(boxes []Box) error {
	obj, found := p.dict.Find("Annots")
	if !found || obj == nil {
		return nil
	}
	annots, err := p.ctx.DereferenceArray(obj)
	if err != nil {
		return fmt.Errorf("annotations: %w", err)
	}

	kept := make(types.Array, 0, len(annots))
	for _, a := range annots {
		d, err := p.ctx.DereferenceDict(a)
		if err != nil {
			return fmt.Errorf("annotation %v: %w", a, err)
		}
		if d != nil {
			if r, ok := d.Find("Rect"); ok {
				rect, err := p.boxFromObject(r)
				if err != nil {
					return fmt.Errorf("annotation rect: %w", err)
				}
				if overlapsAny(rect.normalize(), boxes) {
					continue
				}
			}
		}
		kept = append(kept, a)
	}

	if len(kept) == 0 {
		p.dict.Delete("Annots")
	} else if len(kept) < len(annots) {
		p.dict.Update("Annots", kept)
	}
	return nil
}

func overlapsAny(b Box, boxes []Box) bool {
	for _, o := range boxes {
		if b.Overlaps(o) {
			return true
		}
	}
	return false
}

// contentRefs returns the /Contents entry as a list of stream references.
func (p *page) contentRefs(obj types.Object) (types.Array, error) {
	switch v := obj.(type) {
	case types.Array:
		return v, nil
	case *types.IndirectRef:
		return p.contentRefs(*v)
	case types.IndirectRef:
		o, err := p.ctx.Dereference(v)
		if err != nil {
			return nil, fmt.Errorf("dereference contents: %w", err)
		}
		if arr, ok := o.(types.Array); ok {
			return arr, nil
		}
		return types.Array{v}, nil
	default:
		return nil, fmt.Errorf("unsupported /Contents entry %T", obj)
	}
}

func (p *page) decodeStream(obj types.Object) ([]byte, error) {
	var ir types.IndirectRef
	switch v := obj.(type) {
	case types.IndirectRef:
		ir = v
	case *types.IndirectRef:
		ir = *v
	default:
		return nil, fmt.Errorf("content stream: unexpected %T", obj)
	}
	sd, _, err := p.ctx.DereferenceStreamDict(ir)
	if err != nil {
		return nil, fmt.Errorf("content stream %s: %w", ir, err)
	}
	if sd == nil {
		return nil, nil
	}
	if err := sd.Decode(); err != nil {
		return nil, fmt.Errorf("decode content stream %s: %w", ir, err)
	}
	return sd.Content, nil
}

func (p *page) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := p.ctx.XRefTable.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, fmt.Errorf("new content stream: %w", err)
	}
	if err := sd.Encode(); err != nil {
		return nil, fmt.Errorf("encode content stream: %w", err)
	}
	ir, err := p.ctx.XRefTable.IndRefForNewObject(*sd)
	if err != nil {
		return nil, fmt.Errorf("register content stream: %w", err)
	}
	return ir, nil
}

// markOperators closes the q/Q wrapper around the original content and fills
// every box as one path. Same-orientation rectangles under the nonzero winding rule
// fill their union, so overlapping marks leave no seams.
func markOperators(boxes []Box) []byte {
	var b bytes.Buffer
	b.WriteString("Q\nq\n0 g\n")
	for _, box := range boxes {
		b.WriteString(num(box.X0))
		b.WriteByte(' ')
		b.WriteString(num(box.Y0))
		b.WriteByte(' ')
		b.WriteString(num(box.Width()))
		b.WriteByte(' ')
		b.WriteString(num(box.Height()))
		b.WriteString(" re\n")
	}
	b.WriteString("f\nQ\n")
	return b.Bytes()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
