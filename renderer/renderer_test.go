package renderer

import (
	"bytes"
	"encoding/xml"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/pthm-cable/flowtrace/curve"
	"github.com/pthm-cable/flowtrace/flow"
)

type svgDoc struct {
	XMLName xml.Name  `xml:"svg"`
	Width   string    `xml:"width,attr"`
	Height  string    `xml:"height,attr"`
	ViewBox string    `xml:"viewBox,attr"`
	Paths   []svgPath `xml:"path"`
}

type svgPath struct {
	StrokeWidth string `xml:"stroke-width,attr"`
	D           string `xml:"d,attr"`
	Stroke      string `xml:"stroke,attr"`
	Fill        string `xml:"fill,attr"`
}

func TestWriteSVG(t *testing.T) {
	curves := [][]curve.CubicBez{
		{
			{curve.Pt(0, 0), curve.Pt(1, 2), curve.Pt(3, 4), curve.Pt(5, 6)},
			{curve.Pt(5, 6), curve.Pt(7.5, 8), curve.Pt(9, 10), curve.Pt(11, 12.25)},
		},
		nil,
		{
			{curve.Pt(100, 100), curve.Pt(0.1, 0.2), curve.Pt(1e-7, 3), curve.Pt(799, 599)},
		},
	}

	var buf bytes.Buffer
	if err := WriteSVG(&buf, curves, DefaultSVGOptions(800, 600)); err != nil {
		t.Fatalf("WriteSVG error: %v", err)
	}

	var doc svgDoc
	if err := xml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid XML: %v\n%s", err, buf.String())
	}

	if doc.Width != "800" || doc.Height != "600" || doc.ViewBox != "0 0 800 600" {
		t.Errorf("svg attrs = %q %q %q, want 800 600 \"0 0 800 600\"", doc.Width, doc.Height, doc.ViewBox)
	}
	if len(doc.Paths) != 2 {
		t.Fatalf("got %d paths, want 2 (empty curves are skipped)", len(doc.Paths))
	}

	wantD := []string{
		"M 0 0 C 1 2, 3 4, 5 6 C 7.5 8, 9 10, 11 12.25",
		"M 100 100 C 0.1 0.2, 0.0000001 3, 799 599",
	}
	for i, p := range doc.Paths {
		if p.D != wantD[i] {
			t.Errorf("path %d d = %q, want %q", i, p.D, wantD[i])
		}
		if p.StrokeWidth != "0.1" || p.Stroke != "black" || p.Fill != "none" {
			t.Errorf("path %d style = %q %q %q", i, p.StrokeWidth, p.Stroke, p.Fill)
		}
	}
}

func TestSVGEmpty(t *testing.T) {
	got := SVG(nil, DefaultSVGOptions(10, 20))
	want := "<svg width=\"10\" height=\"20\" viewBox=\"0 0 10 20\" xmlns=\"http://www.w3.org/2000/svg\">\n</svg>\n"
	if got != want {
		t.Errorf("SVG(nil) = %q, want %q", got, want)
	}
}

func TestSVGCommandCount(t *testing.T) {
	segs := make([]curve.CubicBez, 7)
	for i := range segs {
		segs[i] = curve.CubicBez{P0: curve.Pt(float64(i), 0), P3: curve.Pt(float64(i+1), 0)}
	}
	got := SVG([][]curve.CubicBez{segs}, DefaultSVGOptions(10, 10))
	if n := strings.Count(got, " C "); n != 7 {
		t.Errorf("got %d C commands, want 7", n)
	}
	if n := strings.Count(got, "M "); n != 1 {
		t.Errorf("got %d M commands, want 1", n)
	}
}

func TestGradient(t *testing.T) {
	g, err := NewGradient("#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		t    float64
		want color.RGBA
	}{
		{-1, color.RGBA{0, 0, 0, 255}},
		{0, color.RGBA{0, 0, 0, 255}},
		{1, color.RGBA{255, 255, 255, 255}},
		{2, color.RGBA{255, 255, 255, 255}},
	}
	for _, tt := range tests {
		if got := g.At(tt.t); got != tt.want {
			t.Errorf("At(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	mid := g.At(0.5)
	if mid.R < 50 || mid.R > 200 || absDiff(mid.R, mid.G) > 1 || absDiff(mid.G, mid.B) > 1 {
		t.Errorf("At(0.5) = %v, want a mid grey", mid)
	}
	if got := g.Hex(1); got != "#ffffff" {
		t.Errorf("Hex(1) = %q, want #ffffff", got)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestParseGradient(t *testing.T) {
	for _, name := range PaletteNames() {
		if _, err := ParseGradient(name); err != nil {
			t.Errorf("ParseGradient(%q) error: %v", name, err)
		}
	}
	if _, err := ParseGradient("plaid"); err == nil {
		t.Error("ParseGradient(plaid) succeeded, want error")
	}
	if _, err := NewGradient("#12345z"); err == nil {
		t.Error("NewGradient(bad hex) succeeded, want error")
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("#ff8000")
	if err != nil {
		t.Fatalf("ParseColor error: %v", err)
	}
	if want := (color.RGBA{255, 128, 0, 255}); got != want {
		t.Errorf("ParseColor = %v, want %v", got, want)
	}
	if _, err := ParseColor("white"); err == nil {
		t.Error("ParseColor(white) succeeded, want error")
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(20, 20, color.White)
	red := color.RGBA{255, 0, 0, 255}
	c.Line(curve.Pt(2, 10), curve.Pt(18, 10), 4, red)

	if got := c.Image().RGBAAt(10, 10); got != red {
		t.Errorf("pixel on the line = %v, want %v", got, red)
	}
	if got := c.Image().RGBAAt(10, 2); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel off the line = %v, want white", got)
	}

	// Partly off canvas must not panic and still paints the visible part.
	c.Line(curve.Pt(-50, 5), curve.Pt(5, 5), 2, red)
	if got := c.Image().RGBAAt(2, 5); got.G == 255 {
		t.Errorf("pixel on clipped line = %v, want red tint", got)
	}
	c.Line(curve.Pt(-50, -50), curve.Pt(-40, -40), 2, red)
	c.Line(curve.Pt(3, 3), curve.Pt(3, 3), 2, red)

	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding written png: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Errorf("png size = %v, want 20x20", img.Bounds())
	}
}

type constSampler flow.Sample

func (s constSampler) Sample(_, _, _, _ float64) (flow.Sample, error) {
	return flow.Sample(s), nil
}

func TestFieldArrows(t *testing.T) {
	lines, err := FieldArrows(constSampler{Force: 0.5, Angle: 0}, 64, 32, 16)
	if err != nil {
		t.Fatal(err)
	}
	// 4 columns x 2 rows, three strokes per arrow.
	if len(lines) != 4*2*3 {
		t.Fatalf("got %d lines, want 24", len(lines))
	}

	shaft := lines[0]
	if shaft[0] != curve.Pt(0, 0) || shaft[1] != curve.Pt(8, 0) {
		t.Errorf("first shaft = %v, want (0,0)-(8,0)", shaft)
	}
	head := lines[1]
	if head[1] != curve.Pt(4, -4) {
		t.Errorf("first head = %v, want tip to (4,-4)", head)
	}

	if _, err := FieldArrows(constSampler{}, 10, 10, 0); err == nil {
		t.Error("zero spacing succeeded, want error")
	}
}

func TestCanvasDrawArrows(t *testing.T) {
	c := NewCanvas(32, 32, color.Black)
	if err := c.DrawArrows(constSampler{Force: 1, Angle: 0}, 16, ArrowColor); err != nil {
		t.Fatal(err)
	}
	if got := c.Image().RGBAAt(8, 16); got.R == 0 {
		t.Errorf("pixel on an arrow shaft = %v, want red", got)
	}
}
