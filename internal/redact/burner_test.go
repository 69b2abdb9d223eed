package redact

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redactapi/internal/pdfgen"
)

func sourcePDF(pages int) []byte {
	doc := pdfgen.Document{Title: "Employment Contract"}
	for i := 1; i <= pages; i++ {
		doc.Pages = append(doc.Pages, pdfgen.Letter(
			fmt.Sprintf("Page %d", i),
			"Employee: Jane Roe, SSN 123-45-6789",
			"Salary: USD 120,000 per annum",
		))
	}
	return doc.Bytes()
}

// pageContents returns the decoded, concatenated content streams of every page.
func pageContents(t *testing.T, doc []byte) []string {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(doc), model.NewDefaultConfiguration())
	require.NoError(t, err)
	require.NoError(t, api.ValidateContext(ctx))

	out := make([]string, ctx.PageCount)
	for i := range out {
		d, _, _, err := ctx.PageDict(i+1, false)
		require.NoError(t, err)
		out[i] = decodeContents(t, ctx, d)
	}
	return out
}

func decodeContents(t *testing.T, ctx *model.Context, d types.Dict) string {
	t.Helper()
	obj, found := d.Find("Contents")
	if !found {
		return ""
	}
	var refs types.Array
	switch v := obj.(type) {
	case types.Array:
		refs = v
	case types.IndirectRef:
		o, err := ctx.Dereference(v)
		require.NoError(t, err)
		if arr, ok := o.(types.Array); ok {
			refs = arr
		} else {
			refs = types.Array{v}
		}
	default:
		t.Fatalf("unexpected /Contents %T", obj)
	}

	var buf strings.Builder
	for _, o := range refs {
		ir, ok := o.(types.IndirectRef)
		require.True(t, ok, "content entry %T", o)
		sd, _, err := ctx.DereferenceStreamDict(ir)
		require.NoError(t, err)
		require.NotNil(t, sd)
		require.NoError(t, sd.Decode())
		buf.Write(sd.Content)
		buf.WriteByte('\n')
	}
	return buf.String()
}

func readRects(t *testing.T, doc []byte) [][]lpdf.Rect {
	t.Helper()
	r, err := lpdf.NewReader(bytes.NewReader(doc), int64(len(doc)))
	require.NoError(t, err)
	out := make([][]lpdf.Rect, r.NumPage())
	for i := range out {
		out[i] = r.Page(i + 1).Content().Rect
	}
	return out
}

func TestBurner_Redact(t *testing.T) {
	src := sourcePDF(1)
	b := NewBurner(Limits{})

	out, err := b.Redact(src, []Region{{Page: 1, Rect: Rect{X: 100, Y: 200, Width: 150, Height: 20}}})
	require.NoError(t, err)

	contents := pageContents(t, out)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "100 572 150 20 re")
	assert.Contains(t, contents[0], "0 g")
	assert.Contains(t, contents[0], "(Salary: USD 120,000 per annum) Tj", "original content is kept underneath")

	rects := readRects(t, out)
	require.Len(t, rects, 1)
	require.Len(t, rects[0], 1)
	assert.InDelta(t, 100, rects[0][0].Min.X, 1e-6)
	assert.InDelta(t, 572, rects[0][0].Min.Y, 1e-6)
	assert.InDelta(t, 250, rects[0][0].Max.X, 1e-6)
	assert.InDelta(t, 592, rects[0][0].Max.Y, 1e-6)
}

func TestBurner_MarksFollowOriginalContent(t *testing.T) {
	out, err := NewBurner(Limits{}).Redact(sourcePDF(1), []Region{{Page: 1, Rect: Rect{X: 72, Y: 72, Width: 200, Height: 14}}})
	require.NoError(t, err)

	c := pageContents(t, out)[0]
	text := strings.Index(c, "Tj")
	mark := strings.Index(c, " re\n")
	require.NotEqual(t, -1, text)
	require.NotEqual(t, -1, mark)
	assert.Less(t, text, mark, "marks are painted after the page content")
	assert.True(t, strings.HasPrefix(c, "q\n"), "original content is isolated in q/Q")
}

func TestBurner_ZeroRedactionsRoundTrip(t *testing.T) {
	src := sourcePDF(3)
	b := NewBurner(Limits{})

	out, err := b.Apply(src, nil)
	require.NoError(t, err)

	before := pageContents(t, src)
	after := pageContents(t, out)
	require.Len(t, after, 3)
	for i := range before {
		assert.Equal(t, strings.TrimSpace(before[i]), strings.TrimSpace(after[i]), "page %d", i+1)
		assert.Contains(t, after[i], fmt.Sprintf("(Page %d) Tj", i+1), "page order is preserved")
	}
}

func TestBurner_PageCountPreserved(t *testing.T) {
	src := sourcePDF(4)
	out, err := NewBurner(Limits{}).Apply(src, map[int][]Box{
		1: {{X0: 10, Y0: 10, X1: 50, Y1: 50}},
		3: {{X0: 100, Y0: 100, X1: 200, Y1: 120}, {X0: 300, Y0: 300, X1: 310, Y1: 310}},
	})
	require.NoError(t, err)

	rects := readRects(t, out)
	require.Len(t, rects, 4)
	assert.Empty(t, rects[0])
	assert.Len(t, rects[1], 1)
	assert.Empty(t, rects[2])
	assert.Len(t, rects[3], 2)
}

func TestBurner_Idempotent(t *testing.T) {
	regions := []Region{
		{Page: 1, Rect: Rect{X: 72, Y: 90, Width: 200, Height: 14}},
		{Page: 2, Rect: Rect{X: 300, Y: 400, Width: 40, Height: 40}},
	}
	b := NewBurner(Limits{})

	once, err := b.Redact(sourcePDF(2), regions)
	require.NoError(t, err)
	twice, err := b.Redact(once, regions)
	require.NoError(t, err)

	onceRects, twiceRects := readRects(t, once), readRects(t, twice)
	require.Len(t, twiceRects, len(onceRects))
	for i := range onceRects {
		assert.ElementsMatch(t, dedupe(onceRects[i]), dedupe(twiceRects[i]), "page %d", i+1)
	}
}

func dedupe(rs []lpdf.Rect) []lpdf.Rect {
	seen := make(map[lpdf.Rect]bool)
	var out []lpdf.Rect
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func TestBurner_OverlappingMarksShareOneFill(t *testing.T) {
	out, err := NewBurner(Limits{}).Redact(sourcePDF(1), []Region{
		{Page: 1, Rect: Rect{X: 100, Y: 100, Width: 100, Height: 50}},
		{Page: 1, Rect: Rect{X: 150, Y: 120, Width: 100, Height: 50}},
	})
	require.NoError(t, err)

	c := pageContents(t, out)[0]
	assert.Contains(t, c, "100 642 100 50 re\n150 622 100 50 re\nf\n",
		"both rectangles belong to one nonzero-filled path")
	assert.NotContains(t, c, " w\n", "no stroke width is set")
	assert.NotContains(t, c, "\nS\n", "marks are never stroked")
}

func TestBurner_MarksSurviveAnnotationStripping(t *testing.T) {
	out, err := NewBurner(Limits{}).Redact(sourcePDF(2), []Region{
		{Page: 2, Rect: Rect{X: 100, Y: 200, Width: 150, Height: 20}},
	})
	require.NoError(t, err)

	ctx, err := api.ReadContext(bytes.NewReader(out), model.NewDefaultConfiguration())
	require.NoError(t, err)
	require.NoError(t, api.ValidateContext(ctx))
	for i := 1; i <= ctx.PageCount; i++ {
		d, _, _, err := ctx.PageDict(i, false)
		require.NoError(t, err)
		_, hasAnnots := d.Find("Annots")
		assert.False(t, hasAnnots, "page %d carries annotations", i)
		d.Delete("Annots")
	}

	var stripped bytes.Buffer
	require.NoError(t, api.WriteContext(ctx, &stripped))

	contents := pageContents(t, stripped.Bytes())
	require.Len(t, contents, 2)
	assert.Contains(t, contents[1], "100 572 150 20 re")
	assert.NotContains(t, contents[0], " re\n")
}

func TestBurner_MediaBoxOrigin(t *testing.T) {
	src := pdfgen.Document{Pages: []pdfgen.Page{
		{OriginX: 50, OriginY: 100, Width: 300, Height: 200, Lines: []string{"offset page"}},
	}}.Bytes()
	b := NewBurner(Limits{})

	info, err := b.Inspect(src)
	require.NoError(t, err)
	assert.Equal(t, 1, info.PageCount)
	assert.Equal(t, PageInfo{Width: 300, Height: 200}, info.Pages[0])

	out, err := b.Redact(src, []Region{{Page: 1, Rect: Rect{X: 10, Y: 10, Width: 10, Height: 10}}})
	require.NoError(t, err)
	assert.Contains(t, pageContents(t, out)[0], "60 280 10 10 re")
}

func TestBurner_SourceNotMutated(t *testing.T) {
	src := sourcePDF(2)
	orig := append([]byte(nil), src...)

	_, err := NewBurner(Limits{}).Redact(src, []Region{{Page: 2, Rect: Rect{X: 1, Y: 1, Width: 5, Height: 5}}})
	require.NoError(t, err)
	assert.Equal(t, orig, src)
}

func TestBurner_Errors(t *testing.T) {
	b := NewBurner(Limits{})

	t.Run("malformed source", func(t *testing.T) {
		_, err := b.Redact([]byte("this is not a pdf"), nil)
		var target *MalformedSourceError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("empty source", func(t *testing.T) {
		_, err := b.Apply(nil, nil)
		var target *MalformedSourceError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("page beyond document", func(t *testing.T) {
		_, err := b.Redact(sourcePDF(3), []Region{{Page: 5, Rect: Rect{X: 1, Y: 1, Width: 5, Height: 5}}})
		var target *PageIndexError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 4, target.Index)
		assert.Equal(t, 3, target.PageCount)
	})

	t.Run("page zero", func(t *testing.T) {
		_, err := b.Redact(sourcePDF(1), []Region{{Page: 0, Rect: Rect{X: 1, Y: 1, Width: 5, Height: 5}}})
		var target *PageIndexError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("negative index in apply", func(t *testing.T) {
		_, err := b.Apply(sourcePDF(1), map[int][]Box{-1: {{X0: 0, Y0: 0, X1: 1, Y1: 1}}})
		var target *PageIndexError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("zero width", func(t *testing.T) {
		_, err := b.Redact(sourcePDF(1), []Region{{Page: 1, Rect: Rect{X: 100, Y: 200, Width: 0, Height: 20}}})
		var target *InvalidRectangleError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, 0, target.Page)
	})

	t.Run("negative height", func(t *testing.T) {
		_, err := b.Apply(sourcePDF(1), map[int][]Box{0: {{X0: 10, Y0: 50, X1: 20, Y1: 40}}})
		var target *InvalidRectangleError
		assert.ErrorAs(t, err, &target)
	})

	t.Run("entirely outside media box", func(t *testing.T) {
		_, err := b.Redact(sourcePDF(1), []Region{{Page: 1, Rect: Rect{X: 700, Y: 10, Width: 50, Height: 50}}})
		var target *InvalidRectangleError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "outside media box", target.Reason)
	})

	t.Run("one bad mark aborts the whole document", func(t *testing.T) {
		out, err := b.Redact(sourcePDF(2), []Region{
			{Page: 1, Rect: Rect{X: 10, Y: 10, Width: 10, Height: 10}},
			{Page: 2, Rect: Rect{X: 10, Y: 10, Width: 10, Height: -1}},
		})
		assert.Error(t, err)
		assert.Nil(t, out)
	})
}

func TestBurner_Limits(t *testing.T) {
	region := Region{Page: 1, Rect: Rect{X: 1, Y: 1, Width: 5, Height: 5}}

	t.Run("source bytes", func(t *testing.T) {
		_, err := NewBurner(Limits{MaxSourceBytes: 16}).Redact(sourcePDF(1), nil)
		var target *ResourceExhaustionError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "source bytes", target.Resource)
	})

	t.Run("pages", func(t *testing.T) {
		_, err := NewBurner(Limits{MaxPages: 2}).Inspect(sourcePDF(3))
		var target *ResourceExhaustionError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, int64(3), target.Actual)
	})

	t.Run("marks", func(t *testing.T) {
		_, err := NewBurner(Limits{MaxMarks: 1}).Redact(sourcePDF(1), []Region{region, region})
		var target *ResourceExhaustionError
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "marks", target.Resource)
	})

	t.Run("negative disables", func(t *testing.T) {
		_, err := NewBurner(Limits{MaxMarks: -1}).Redact(sourcePDF(1), []Region{region, region})
		assert.NoError(t, err)
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, DefaultLimits, NewBurner(Limits{}).Limits())
	})
}

func TestBurner_Concurrent(t *testing.T) {
	src := sourcePDF(2)
	b := NewBurner(Limits{})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = b.Redact(src, []Region{{Page: 1 + i%2, Rect: Rect{X: float64(i * 10), Y: 50, Width: 5, Height: 5}}})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestErrorMessages(t *testing.T) {
	inner := errors.New("boom")
	err := error(&MalformedSourceError{Err: inner})
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "malformed source document: boom", err.Error())

	assert.Equal(t, "page index 4 out of range [0, 2]", (&PageIndexError{Index: 4, PageCount: 3}).Error())
	assert.Equal(t, "marks limit exceeded: 3 > 2", (&ResourceExhaustionError{Resource: "marks", Limit: 2, Actual: 3}).Error())
	assert.Contains(t, (&InvalidRectangleError{Page: 1, Box: Box{X1: 1}, Reason: "zero or negative area"}).Error(), "zero or negative area")
}

// rewritePage reads src, lets edit change the dictionary of page n, and
// writes the document back out.
func rewritePage(t *testing.T, src []byte, n int, edit func(ctx *model.Context, d types.Dict)) []byte {
	t.Helper()
	ctx, err := api.ReadContext(bytes.NewReader(src), model.NewDefaultConfiguration())
	require.NoError(t, err)
	require.NoError(t, api.ValidateContext(ctx))

	d, _, _, err := ctx.PageDict(n, false)
	require.NoError(t, err)
	edit(ctx, d)

	var out bytes.Buffer
	require.NoError(t, api.WriteContext(ctx, &out))
	return out.Bytes()
}

func addStream(t *testing.T, ctx *model.Context, content string) types.IndirectRef {
	t.Helper()
	sd, err := ctx.XRefTable.NewStreamDictForBuf([]byte(content))
	require.NoError(t, err)
	require.NoError(t, sd.Encode())
	ir, err := ctx.XRefTable.IndRefForNewObject(*sd)
	require.NoError(t, err)
	return *ir
}

// marksDepth reports how many graphics states are saved when the first mark
// rectangle is painted. One means only the mark block's own q is open, so the
// rectangle is drawn in default user space.
func marksDepth(t *testing.T, content, mark string) int {
	t.Helper()
	at := strings.Index(content, mark)
	require.NotEqual(t, -1, at, "mark %q not found in %q", mark, content)
	saves, inText := openState([]byte(content[:at]))
	assert.False(t, inText, "mark painted inside a text object")
	return saves
}

var scenarioA = []Region{{Page: 1, Rect: Rect{X: 100, Y: 200, Width: 150, Height: 20}}}

func TestBurner_ContentArrays(t *testing.T) {
	const (
		partOne = "BT /F1 11 Tf 72 700 Td (Part one: Jane Roe) Tj ET"
		partTwo = "BT /F1 11 Tf 72 680 Td (Part two: SSN 123-45-6789) Tj ET"
	)

	t.Run("direct array", func(t *testing.T) {
		src := rewritePage(t, sourcePDF(1), 1, func(ctx *model.Context, d types.Dict) {
			d.Update("Contents", types.Array{addStream(t, ctx, partOne), addStream(t, ctx, partTwo)})
		})

		out, err := NewBurner(Limits{}).Redact(src, scenarioA)
		require.NoError(t, err)

		c := pageContents(t, out)[0]
		assert.Contains(t, c, "(Part one: Jane Roe) Tj")
		assert.Contains(t, c, "(Part two: SSN 123-45-6789) Tj")
		assert.Equal(t, 1, marksDepth(t, c, "100 572 150 20 re"))
	})

	t.Run("array behind indirect reference", func(t *testing.T) {
		// The save opened in the first stream is restored by the second.
		src := rewritePage(t, sourcePDF(1), 1, func(ctx *model.Context, d types.Dict) {
			arr := types.Array{
				addStream(t, ctx, "q 2 0 0 2 0 0 cm"),
				addStream(t, ctx, partTwo+" Q"),
			}
			ir, err := ctx.XRefTable.IndRefForNewObject(arr)
			require.NoError(t, err)
			d.Update("Contents", *ir)
		})

		info, err := NewBurner(Limits{}).Inspect(src)
		require.NoError(t, err)
		assert.Equal(t, 1, info.PageCount)

		out, err := NewBurner(Limits{}).Redact(src, scenarioA)
		require.NoError(t, err)

		c := pageContents(t, out)[0]
		assert.Contains(t, c, "(Part two: SSN 123-45-6789) Tj ET Q\nQ\nq\n0 g\n100 572 150 20 re")
		assert.Equal(t, 1, marksDepth(t, c, "100 572 150 20 re"))
	})
}

func TestBurner_UnbalancedContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "save left open after transform",
			content: "q 0.5 0 0 0.5 0 0 cm q BT /F1 11 Tf 100 600 Td (SSN 123-45-6789) Tj ET",
			want:    "Tj ET\nQ\nQ\nQ\nq\n0 g\n100 572 150 20 re",
		},
		{
			name:    "text object left open",
			content: "BT /F1 11 Tf 100 600 Td (SSN 123-45-6789) Tj",
			want:    "Tj\nET\nQ\nq\n0 g\n100 572 150 20 re",
		},
		{
			name:    "operators inside strings",
			content: "BT /F1 11 Tf 100 600 Td (q q q) Tj ET",
			want:    "Tj ET\nQ\nq\n0 g\n100 572 150 20 re",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := rewritePage(t, sourcePDF(1), 1, func(ctx *model.Context, d types.Dict) {
				d.Update("Contents", addStream(t, ctx, tt.content))
			})

			out, err := NewBurner(Limits{}).Redact(src, scenarioA)
			require.NoError(t, err)

			c := pageContents(t, out)[0]
			assert.Contains(t, c, tt.want)
			assert.Equal(t, 1, marksDepth(t, c, "100 572 150 20 re"))
			saves, inText := openState([]byte(c))
			assert.Zero(t, saves, "output leaves graphics states open")
			assert.False(t, inText)
		})
	}
}

func TestBurner_UndecodableContent(t *testing.T) {
	src := rewritePage(t, sourcePDF(2), 2, func(ctx *model.Context, d types.Dict) {
		raw := []byte("BT (this was never deflated) Tj ET")
		n := int64(len(raw))
		sd := types.StreamDict{
			Dict:           types.NewDict(),
			Raw:            raw,
			StreamLength:   &n,
			FilterPipeline: []types.PDFFilter{{Name: "FlateDecode"}},
		}
		sd.InsertName("Filter", "FlateDecode")
		sd.InsertInt("Length", len(raw))
		ir, err := ctx.XRefTable.IndRefForNewObject(sd)
		require.NoError(t, err)
		d.Update("Contents", *ir)
	})
	b := NewBurner(Limits{})

	t.Run("rejected at inspection", func(t *testing.T) {
		_, err := b.Inspect(src)
		var target *MalformedSourceError
		require.ErrorAs(t, err, &target)
		assert.Contains(t, err.Error(), "page 2")
	})

	t.Run("rejected at render even without marks on that page", func(t *testing.T) {
		out, err := b.Redact(src, scenarioA)
		var target *MalformedSourceError
		require.ErrorAs(t, err, &target)
		assert.Nil(t, out)
	})
}

func TestBurner_CoveredAnnotationsRemoved(t *testing.T) {
	annot := func(t *testing.T, ctx *model.Context, rect types.Array, text string) types.IndirectRef {
		d := types.Dict(map[string]types.Object{
			"Type":     types.Name("Annot"),
			"Subtype":  types.Name("FreeText"),
			"Rect":     rect,
			"Contents": types.StringLiteral(text),
			"DA":       types.StringLiteral("/Helv 10 Tf 0 g"),
		})
		ir, err := ctx.XRefTable.IndRefForNewObject(d)
		require.NoError(t, err)
		return *ir
	}

	src := rewritePage(t, sourcePDF(1), 1, func(ctx *model.Context, d types.Dict) {
		d.Update("Annots", types.Array{
			// Corners given upper-right first.
			annot(t, ctx, types.NewNumberArray(200, 590, 120, 575), "SSN 123-45-6789"),
			annot(t, ctx, types.NewNumberArray(400, 50, 450, 80), "Reviewed"),
		})
	})
	b := NewBurner(Limits{})

	annotTexts := func(t *testing.T, doc []byte) []string {
		t.Helper()
		ctx, err := api.ReadContext(bytes.NewReader(doc), model.NewDefaultConfiguration())
		require.NoError(t, err)
		require.NoError(t, api.ValidateContext(ctx))
		d, _, _, err := ctx.PageDict(1, false)
		require.NoError(t, err)
		obj, found := d.Find("Annots")
		if !found {
			return nil
		}
		arr, err := ctx.DereferenceArray(obj)
		require.NoError(t, err)
		var out []string
		for _, a := range arr {
			ad, err := ctx.DereferenceDict(a)
			require.NoError(t, err)
			s, ok := ad["Contents"].(types.StringLiteral)
			require.True(t, ok)
			out = append(out, s.Value())
		}
		return out
	}

	t.Run("overlapping annotation dropped", func(t *testing.T) {
		out, err := b.Redact(src, scenarioA)
		require.NoError(t, err)
		assert.Equal(t, []string{"Reviewed"}, annotTexts(t, out))
	})

	t.Run("no annotations left", func(t *testing.T) {
		out, err := b.Redact(src, append(scenarioA, Region{Page: 1, Rect: Rect{X: 390, Y: 700, Width: 80, Height: 50}}))
		require.NoError(t, err)
		assert.Empty(t, annotTexts(t, out))
	})

	t.Run("untouched without marks", func(t *testing.T) {
		out, err := b.Apply(src, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"SSN 123-45-6789", "Reviewed"}, annotTexts(t, out))
	})
}

func TestRecoverMalformed(t *testing.T) {
	run := func() (err error) {
		defer recoverMalformed(&err)
		panic("index out of range [3] with length 3")
	}

	err := run()
	var target *MalformedSourceError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, err.Error(), "index out of range")
}
