package smartbrush

import (
	"image"
	"math"

	"github.com/esimov/smartbrush/utils"
	"golang.org/x/image/vector"
)

const (
	MinBrushSize   = 1
	MaxBrushSize   = 200
	MinBrushAlpha  = 0.1
	brushSizeDelta = 5
)

// kappa is the control point distance that approximates a quarter circle with a cubic Bézier.
const kappa = 0.5522847498

// DefaultBrush is the brush a new painter starts with.
var DefaultBrush = Brush{Size: 20, Opacity: 0.7}

// Brush describes the circular stamp applied on every pointer sample.
type Brush struct {
	Size    float64 // diameter in mask pixels
	Opacity float64 // 0..1
}

// Radius returns half of the brush diameter.
func (b Brush) Radius() float64 {
	return b.Size / 2
}

// Clamp returns the brush with its size and opacity moved into the accepted range.
func (b Brush) Clamp() Brush {
	b.Size = utils.Clamp(b.Size, MinBrushSize, MaxBrushSize)
	b.Opacity = utils.Clamp(b.Opacity, MinBrushAlpha, 1)
	return b
}

// Grow changes the brush size by delta and clamps the result.
func (b Brush) Grow(delta float64) Brush {
	b.Size += delta
	return b.Clamp()
}

// PointerDown starts a stroke session and stamps the first sample.
func (p *Painter) PointerDown(pt Point) {
	if p.mask == nil {
		return
	}
	p.stroking = true
	p.Stamp(pt)
}

// PointerMove stamps the brush while a stroke session is active.
func (p *Painter) PointerMove(pt Point) {
	if !p.stroking {
		return
	}
	p.Stamp(pt)
}

// PointerUp ends the stroke session.
func (p *Painter) PointerUp() {
	p.stroking = false
}

// PointerLeave ends the stroke session when the pointer exits the canvas.
func (p *Painter) PointerLeave() {
	p.stroking = false
}

// Stamp paints one brush circle at pt in mask space and recomposites the display.
func (p *Painter) Stamp(pt Point) {
	if p.mask == nil {
		return
	}
	if p.stamp(pt, p.Brush.Clamp()) {
		p.Composite()
	}
}

// stamp blends an anti-aliased disc into the mask buffer using single channel
// source-over: d' = d + src*(255-d), where src is opacity times coverage.
// It reports whether any pixel of the buffer was touched.
func (p *Painter) stamp(pt Point, b Brush) bool {
	r := b.Radius()
	if r <= 0 || math.IsNaN(pt.X) || math.IsNaN(pt.Y) {
		return false
	}
	box := image.Rect(
		int(math.Floor(pt.X-r)), int(math.Floor(pt.Y-r)),
		int(math.Ceil(pt.X+r)), int(math.Ceil(pt.Y+r)),
	)
	area := box.Intersect(p.mask.Rect)
	if area.Empty() {
		return false
	}
	center := Point{X: pt.X - float64(box.Min.X), Y: pt.Y - float64(box.Min.Y)}
	cov := discCoverage(center, r, box.Size())

	for y := area.Min.Y; y < area.Max.Y; y++ {
		mi := p.mask.PixOffset(area.Min.X, y)
		ci := cov.PixOffset(area.Min.X-box.Min.X, y-box.Min.Y)
		for x := area.Min.X; x < area.Max.X; x++ {
			if c := cov.Pix[ci]; c > 0 {
				src := b.Opacity * float64(c) / 255
				d := p.mask.Pix[mi]
				p.mask.Pix[mi] = d + uint8(math.Round(src*float64(255-d)))
			}
			mi++
			ci++
		}
	}
	return true
}

// discCoverage rasterizes a filled circle into an alpha image of the given size.
func discCoverage(c Point, r float64, size image.Point) *image.Alpha {
	var (
		cx = float32(c.X)
		cy = float32(c.Y)
		rr = float32(r)
		k  = rr * kappa
	)
	z := vector.NewRasterizer(size.X, size.Y)
	z.MoveTo(cx+rr, cy)
	z.CubeTo(cx+rr, cy+k, cx+k, cy+rr, cx, cy+rr)
	z.CubeTo(cx-k, cy+rr, cx-rr, cy+k, cx-rr, cy)
	z.CubeTo(cx-rr, cy-k, cx-k, cy-rr, cx, cy-rr)
	z.CubeTo(cx+k, cy-rr, cx+rr, cy-k, cx+rr, cy)
	z.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, size.X, size.Y))
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}
