package smartbrush

import (
	"errors"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/esimov/smartbrush/imop"
	"github.com/esimov/smartbrush/utils"
)

const (
	// DefaultMaxWidth is the widest display canvas the painter lays out.
	DefaultMaxWidth = 800
	// DefaultTintScale converts mask strength into overlay alpha.
	DefaultTintScale = 0.3
)

// DefaultTint is the overlay colour (#3b82f6).
var DefaultTint = color.NRGBA{R: 59, G: 130, B: 246, A: 255}

// Painter holds the display canvas, the mask buffer and the brush used to paint an edit mask.
// A Painter is not safe for concurrent use; it is owned by a single goroutine.
type Painter struct {
	MaxWidth  int
	Tint      color.NRGBA
	TintScale float64
	Feather   int
	Brush     Brush
	Blend     *imop.Blend

	uri      string
	natural  image.Point
	backdrop *image.NRGBA
	display  *image.NRGBA
	overlay  *image.NRGBA
	mask     *image.Alpha
	comp     *imop.Composite
	showMask bool
	stroking bool
}

// NewPainter returns a painter with the default layout width, tint and brush.
func NewPainter() *Painter {
	return &Painter{
		MaxWidth:  DefaultMaxWidth,
		Tint:      DefaultTint,
		TintScale: DefaultTintScale,
		Brush:     DefaultBrush,
		comp:      imop.InitOp(),
		showMask:  true,
	}
}

// SetSource lays out a new source image. The display canvas is resized to
// fit MaxWidth and a fresh, empty mask buffer is allocated. Setting the same
// URI again leaves the painter untouched.
func (p *Painter) SetSource(uri string, img image.Image) error {
	if img == nil {
		return errors.New("source image is nil")
	}
	if p.display != nil && uri == p.uri {
		return nil
	}
	src := imgToNRGBA(img)
	natW, natH := src.Bounds().Dx(), src.Bounds().Dy()
	if natW == 0 || natH == 0 {
		return errors.New("source image is empty")
	}
	w, h := displaySize(natW, natH, p.MaxWidth)

	p.uri = uri
	p.natural = image.Pt(natW, natH)
	p.backdrop = imaging.Resize(src, w, h, imaging.Lanczos)
	p.display = image.NewNRGBA(image.Rect(0, 0, w, h))
	p.overlay = image.NewNRGBA(image.Rect(0, 0, w, h))
	p.mask = image.NewAlpha(image.Rect(0, 0, w, h))
	p.stroking = false
	if p.comp == nil {
		p.comp = imop.InitOp()
	}
	p.Composite()

	Logger().Debug("source laid out",
		"uri", uri,
		"natural", p.natural,
		"display", image.Pt(w, h),
	)
	return nil
}

// displaySize returns the canvas size for a natural image: the width is capped
// at maxW and the height follows the aspect ratio, truncated, never below 1.
func displaySize(natW, natH, maxW int) (int, int) {
	if maxW <= 0 {
		maxW = DefaultMaxWidth
	}
	w := utils.Min(maxW, natW)
	h := int(float64(w) * float64(natH) / float64(natW))
	return w, utils.Max(h, 1)
}

// URI returns the identifier of the current source image.
func (p *Painter) URI() string { return p.uri }

// NaturalSize returns the size of the source image before layout.
func (p *Painter) NaturalSize() image.Point { return p.natural }

// Size returns the display canvas and mask buffer size.
func (p *Painter) Size() image.Point {
	if p.display == nil {
		return image.Point{}
	}
	return p.display.Bounds().Size()
}

// Ready reports whether a source image has been laid out.
func (p *Painter) Ready() bool { return p.display != nil }

// Display returns the composited canvas. It is nil until a source is set.
func (p *Painter) Display() *image.NRGBA { return p.display }

// Mask returns the strength buffer. It is nil until a source is set.
func (p *Painter) Mask() *image.Alpha { return p.mask }

// Stroking reports whether a stroke session is active.
func (p *Painter) Stroking() bool { return p.stroking }

// ShowMask reports whether the overlay is rendered.
func (p *Painter) ShowMask() bool { return p.showMask }

// SetShowMask toggles the overlay and recomposites. The mask buffer is never modified.
func (p *Painter) SetShowMask(show bool) {
	if p.showMask == show {
		return
	}
	p.showMask = show
	p.Composite()
}
