package smartbrush

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var backdropGray = color.NRGBA{R: 100, G: 100, B: 100, A: 255}

func uniformImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func newTestPainter(t *testing.T, w, h int) *Painter {
	t.Helper()
	p := NewPainter()
	require.NoError(t, p.SetSource("gs://listing/room.jpg", uniformImage(w, h, backdropGray)))
	return p
}

func maskCopy(p *Painter) []uint8 {
	return append([]uint8(nil), p.Mask().Pix...)
}

func TestPainter_DisplaySize(t *testing.T) {
	testCases := []struct {
		name       string
		natW, natH int
		maxW       int
		w, h       int
	}{
		{"landscape", 1600, 1200, 800, 800, 600},
		{"smaller than max", 300, 200, 800, 300, 200},
		{"portrait", 1000, 3000, 800, 800, 2400},
		{"truncated height", 1000, 333, 800, 800, 266},
		{"degenerate height", 5000, 1, 800, 800, 1},
		{"default max", 1600, 1200, 0, 800, 600},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w, h := displaySize(tc.natW, tc.natH, tc.maxW)
			assert.Equal(t, tc.w, w)
			assert.Equal(t, tc.h, h)
		})
	}
}

func TestPainter_SetSourceLaysOutCanvas(t *testing.T) {
	p := NewPainter()
	assert.False(t, p.Ready())
	assert.Equal(t, image.Point{}, p.Size())

	require.NoError(t, p.SetSource("a.jpg", uniformImage(1600, 1200, backdropGray)))
	assert.True(t, p.Ready())
	assert.Equal(t, image.Pt(800, 600), p.Size())
	assert.Equal(t, image.Pt(1600, 1200), p.NaturalSize())
	assert.Equal(t, image.Rect(0, 0, 800, 600), p.Mask().Bounds())
	assert.True(t, p.IsBlank())

	assert.Error(t, p.SetSource("b.jpg", nil))
}

func TestPainter_SameSourceIsNoop(t *testing.T) {
	p := newTestPainter(t, 400, 300)
	p.Stamp(Pt(100, 100))
	before := maskCopy(p)

	require.NoError(t, p.SetSource("gs://listing/room.jpg", uniformImage(20, 20, color.Black)))
	assert.Equal(t, before, p.Mask().Pix)
	assert.Equal(t, image.Pt(400, 300), p.Size())

	require.NoError(t, p.SetSource("gs://listing/kitchen.jpg", uniformImage(1000, 500, color.Black)))
	assert.Equal(t, image.Pt(800, 400), p.Size())
	assert.True(t, p.IsBlank())
}

func TestMapper_MapToCanvas(t *testing.T) {
	bounds := Rect{Min: Pt(10, 20), Max: Pt(410, 320)}
	got := MapToCanvas(Pt(210, 170), bounds, image.Pt(800, 600))
	assert.Equal(t, Pt(400, 300), got)

	// Independent axis scales.
	stretched := Rect{Min: Pt(0, 0), Max: Pt(400, 600)}
	got = MapToCanvas(Pt(100, 100), stretched, image.Pt(800, 600))
	assert.Equal(t, Pt(200, 100), got)

	assert.Equal(t, Point{}, MapToCanvas(Pt(5, 5), Rect{}, image.Pt(800, 600)))
}

func TestMapper_UnmountedPainterMapsToOrigin(t *testing.T) {
	p := NewPainter()
	got := p.MapPoint(Pt(210, 170), Rect{Min: Pt(10, 20), Max: Pt(410, 320)})
	assert.Equal(t, Point{}, got)
}

func TestStroke_SingleStampStrength(t *testing.T) {
	p := newTestPainter(t, 1600, 1200)
	p.PointerDown(Pt(400, 300))
	p.PointerUp()

	assert.InDelta(t, 178.5, float64(p.Strength(400, 300)), 1)
	assert.InDelta(t, 178.5, float64(p.Strength(395, 300)), 1)
	assert.Zero(t, p.Strength(415, 300))
	assert.Zero(t, p.Strength(400, 315))
}

func TestStroke_RepeatedStampsAreMonotonic(t *testing.T) {
	p := newTestPainter(t, 800, 600)

	prev := p.Strength(200, 200)
	for i := 0; i < 30; i++ {
		p.Stamp(Pt(200, 200))
		cur := p.Strength(200, 200)
		assert.GreaterOrEqual(t, cur, prev)
		if prev < 255 {
			assert.Greater(t, cur, prev, "stamp %d should deepen the mask", i)
		}
		prev = cur
	}
	assert.Equal(t, uint8(255), prev)
}

func TestStroke_SecondStampDeepens(t *testing.T) {
	p := newTestPainter(t, 800, 600)
	p.Stamp(Pt(400, 300))
	p.Stamp(Pt(400, 300))
	assert.InDelta(t, 232, float64(p.Strength(400, 300)), 1)
}

func TestStroke_PointerSession(t *testing.T) {
	p := newTestPainter(t, 800, 600)

	p.PointerMove(Pt(100, 100))
	assert.True(t, p.IsBlank(), "moves outside a stroke must not paint")

	p.PointerDown(Pt(100, 100))
	assert.True(t, p.Stroking())
	p.PointerMove(Pt(140, 100))
	assert.NotZero(t, p.Strength(140, 100))

	p.PointerLeave()
	assert.False(t, p.Stroking())
	p.PointerMove(Pt(300, 300))
	assert.Zero(t, p.Strength(300, 300))
}

func TestStroke_OutOfBoundsIsIgnored(t *testing.T) {
	p := newTestPainter(t, 200, 100)

	assert.NotPanics(t, func() {
		p.Stamp(Pt(-50, -50))
		p.Stamp(Pt(1000, 1000))
	})
	assert.True(t, p.IsBlank())

	p.Stamp(Pt(0, 0))
	assert.NotZero(t, p.Strength(0, 0))
	assert.Zero(t, p.Strength(-1, 0))
}

func TestStroke_BrushClamp(t *testing.T) {
	assert.Equal(t, Brush{Size: MaxBrushSize, Opacity: 1}, Brush{Size: 500, Opacity: 3}.Clamp())
	assert.Equal(t, Brush{Size: MinBrushSize, Opacity: MinBrushAlpha}, Brush{Size: -2, Opacity: 0}.Clamp())
	assert.Equal(t, 25.0, DefaultBrush.Grow(brushSizeDelta).Size)
	assert.Equal(t, 10.0, DefaultBrush.Radius())
}

func TestOverlay_TintsPaintedPixels(t *testing.T) {
	p := newTestPainter(t, 800, 600)
	p.Stamp(Pt(400, 300))

	painted := p.Display().NRGBAAt(400, 300)
	untouched := p.Display().NRGBAAt(10, 10)

	assert.InDelta(t, 100, int(untouched.R), 1)
	assert.InDelta(t, 100, int(untouched.B), 1)
	assert.Equal(t, uint8(255), painted.A)
	assert.Less(t, painted.R, untouched.R)
	assert.Greater(t, painted.B, untouched.B)
}

func TestOverlay_HidingMaskKeepsBuffer(t *testing.T) {
	p := newTestPainter(t, 800, 600)
	p.Stamp(Pt(400, 300))
	before := maskCopy(p)

	p.SetShowMask(false)
	assert.False(t, p.ShowMask())
	assert.Equal(t, before, p.Mask().Pix)
	hidden := p.Display().NRGBAAt(400, 300)
	assert.InDelta(t, 100, int(hidden.B), 1)

	p.SetShowMask(true)
	assert.Equal(t, before, p.Mask().Pix)
	assert.Greater(t, p.Display().NRGBAAt(400, 300).B, hidden.B)
}

func decodeMask(t *testing.T, payload string) *image.Gray {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	gray, ok := img.(*image.Gray)
	require.True(t, ok, "mask should be a single channel image, got %T", img)
	return gray
}

func TestExport_NoMask(t *testing.T) {
	out, err := NewPainter().ExportMask()
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestExport_GrayPNGWithoutHeader(t *testing.T) {
	p := newTestPainter(t, 1600, 1200)
	p.Stamp(Pt(400, 300))

	out, err := p.ExportMask()
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(out, "data:"))

	gray := decodeMask(t, out)
	assert.Equal(t, image.Rect(0, 0, 800, 600), gray.Bounds())
	assert.Equal(t, p.Strength(400, 300), gray.GrayAt(400, 300).Y)
	assert.Zero(t, gray.GrayAt(0, 0).Y)

	uri, err := p.MaskDataURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))
	assert.Equal(t, out, StripDataURL(uri))
}

func TestExport_FeatherLeavesBufferUntouched(t *testing.T) {
	p := newTestPainter(t, 200, 200)
	p.Brush = Brush{Size: 40, Opacity: 1}
	p.Stamp(Pt(100, 100))
	before := maskCopy(p)

	p.Feather = 4
	out, err := p.ExportMask()
	require.NoError(t, err)
	assert.Equal(t, before, p.Mask().Pix)

	gray := decodeMask(t, out)
	assert.Equal(t, uint8(255), gray.GrayAt(100, 100).Y)
	// The hard edge at the disc border becomes a gradient.
	assert.NotZero(t, gray.GrayAt(122, 100).Y)
	assert.Zero(t, p.Strength(122, 100))
}

func TestExport_StripDataURL(t *testing.T) {
	assert.Equal(t, "iVBORw0K", StripDataURL("data:image/png;base64,iVBORw0K"))
	assert.Equal(t, "iVBORw0K", StripDataURL("iVBORw0K"))
	assert.Equal(t, "abc", StripDataURL(StripDataURL("data:image/jpeg;base64,abc")))
	assert.Equal(t, "data:broken", StripDataURL("data:broken"))
}

func TestClear_IsIdempotent(t *testing.T) {
	fresh := newTestPainter(t, 800, 600)
	want, err := fresh.ExportMask()
	require.NoError(t, err)

	p := newTestPainter(t, 800, 600)
	p.Stamp(Pt(10, 10))
	p.Stamp(Pt(700, 500))
	require.False(t, p.IsBlank())

	p.Clear()
	once, err := p.ExportMask()
	require.NoError(t, err)
	p.Clear()
	twice, err := p.ExportMask()
	require.NoError(t, err)

	assert.True(t, p.IsBlank())
	assert.Equal(t, want, once)
	assert.Equal(t, once, twice)
	assert.InDelta(t, 100, int(p.Display().NRGBAAt(10, 10).B), 1)
}

func TestFeather_Kernel(t *testing.T) {
	full := image.NewAlpha(image.Rect(0, 0, 9, 9))
	for i := range full.Pix {
		full.Pix[i] = 255
	}
	out := featherAlpha(full, 3)
	for _, v := range out.Pix {
		assert.Equal(t, uint8(255), v)
	}

	empty := image.NewAlpha(image.Rect(0, 0, 9, 9))
	out = featherAlpha(empty, 3)
	assert.Equal(t, empty.Pix, out.Pix)

	step := image.NewAlpha(image.Rect(0, 0, 9, 1))
	for x := 5; x < 9; x++ {
		step.Pix[x] = 255
	}
	out = featherAlpha(step, 2)
	for x := 1; x < 9; x++ {
		assert.GreaterOrEqual(t, out.Pix[x], out.Pix[x-1])
	}
	assert.NotZero(t, out.Pix[4])
	assert.Less(t, out.Pix[5], uint8(255))

	same := featherAlpha(step, 0)
	assert.Equal(t, step.Pix, same.Pix)
}
