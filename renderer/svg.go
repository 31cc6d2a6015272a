package renderer

import (
	"bufio"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/pthm-cable/flowtrace/curve"
)

// SVGOptions controls the vector export document.
type SVGOptions struct {
	Width       float64
	Height      float64
	StrokeWidth float64
	Stroke      string
}

// DefaultSVGOptions returns hairline black strokes on a width x height
// document.
func DefaultSVGOptions(width, height float64) SVGOptions {
	return SVGOptions{
		Width:       width,
		Height:      height,
		StrokeWidth: 0.1,
		Stroke:      "black",
	}
}

// WriteSVG writes one <path> per non-empty fitted curve. Each path starts at
// the first segment's start point followed by one C command per segment.
func WriteSVG(w io.Writer, curves [][]curve.CubicBez, opts SVGOptions) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(`<svg width="`)
	bw.WriteString(num(opts.Width))
	bw.WriteString(`" height="`)
	bw.WriteString(num(opts.Height))
	bw.WriteString(`" viewBox="0 0 `)
	bw.WriteString(num(opts.Width))
	bw.WriteByte(' ')
	bw.WriteString(num(opts.Height))
	bw.WriteString("\" xmlns=\"http://www.w3.org/2000/svg\">\n")

	for _, segs := range curves {
		if len(segs) == 0 {
			continue
		}
		bw.WriteString(`	<path stroke-width="`)
		bw.WriteString(num(opts.StrokeWidth))
		bw.WriteString(`" d="M `)
		writePoint(bw, segs[0].P0)
		for _, c := range segs {
			bw.WriteString(" C ")
			writePoint(bw, c.P1)
			bw.WriteString(", ")
			writePoint(bw, c.P2)
			bw.WriteString(", ")
			writePoint(bw, c.P3)
		}
		bw.WriteString(`" stroke="`)
		bw.WriteString(html.EscapeString(opts.Stroke))
		bw.WriteString("\" fill=\"none\" />\n")
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// SVG returns the document WriteSVG would write.
func SVG(curves [][]curve.CubicBez, opts SVGOptions) string {
	var sb strings.Builder
	WriteSVG(&sb, curves, opts)
	return sb.String()
}

func writePoint(w *bufio.Writer, p curve.Point) {
	w.WriteString(num(p.X))
	w.WriteByte(' ')
	w.WriteString(num(p.Y))
}

// num formats v with the fewest digits that round-trip.
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
