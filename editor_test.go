package smartbrush

import (
	"context"
	"image"
	"testing"

	"gioui.org/f32"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"github.com/esimov/smartbrush/compose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEditor(t *testing.T, c Composer) *Editor {
	t.Helper()
	s := NewSession(newTestPainter(t, 800, 600), 1)
	return NewEditor(s, c, "remove the clutter")
}

func TestEditor_FitRect(t *testing.T) {
	assert.Equal(t, Rect{Min: Pt(0, 0), Max: Pt(800, 600)}, fitRect(image.Pt(800, 600), image.Pt(800, 600)))
	assert.Equal(t, Rect{Min: Pt(100, 0), Max: Pt(500, 300)}, fitRect(image.Pt(800, 600), image.Pt(600, 300)))
	assert.Equal(t, Rect{Min: Pt(0, 75), Max: Pt(400, 375)}, fitRect(image.Pt(800, 600), image.Pt(400, 450)))
	assert.Equal(t, Rect{}, fitRect(image.Point{}, image.Pt(400, 450)))
}

func TestEditor_KeyCommands(t *testing.T) {
	e := newTestEditor(t, &fakeComposer{})
	p := e.Session.Painter
	ctx := context.Background()

	assert.False(t, e.applyKey(ctx, "]"))
	assert.Equal(t, 25.0, p.Brush.Size)
	e.applyKey(ctx, "[")
	e.applyKey(ctx, "[")
	assert.Equal(t, 15.0, p.Brush.Size)

	e.applyKey(ctx, "M")
	assert.False(t, p.ShowMask())
	assert.Contains(t, e.title(), "mask off")
	e.applyKey(ctx, "M")
	assert.True(t, p.ShowMask())

	p.Stamp(Pt(100, 100))
	e.applyKey(ctx, "C")
	assert.True(t, p.IsBlank())

	assert.True(t, e.applyKey(ctx, key.NameEscape))
}

func TestEditor_SubmitIsAsynchronous(t *testing.T) {
	fc := &fakeComposer{res: compose.Result{ImageURL: "https://cdn/out.jpg"}}
	e := newTestEditor(t, fc)

	var got compose.Result
	e.OnResult = func(res compose.Result, err error) {
		assert.NoError(t, err)
		got = res
	}

	e.applyKey(context.Background(), key.NameReturn)
	assert.Equal(t, ErrEmptyMask.Error(), e.status)
	assert.False(t, e.Session.Processing())

	e.Session.Painter.Stamp(Pt(400, 300))
	e.applyKey(context.Background(), key.NameReturn)
	assert.True(t, e.Session.Processing())
	assert.Equal(t, Submitting, e.Session.State())

	// A second submit is rejected while the first is in flight.
	e.applyKey(context.Background(), key.NameReturn)
	assert.Equal(t, ErrProcessing.Error(), e.status)

	e.finish(<-e.results)
	assert.False(t, e.Session.Processing())
	assert.Equal(t, "https://cdn/out.jpg", got.ImageURL)
	assert.Equal(t, "Done: https://cdn/out.jpg", e.status)
	assert.Equal(t, 1, fc.calls)
}

func TestEditor_PointerEventsPaintThroughMapper(t *testing.T) {
	e := newTestEditor(t, &fakeComposer{})
	p := e.Session.Painter
	e.view = fitRect(p.Size(), image.Pt(400, 300))
	require.Equal(t, Rect{Max: Pt(400, 300)}, e.view)

	e.handlePointer(pointer.Event{Type: pointer.Press, Position: f32.Pt(200, 150)})
	assert.True(t, p.Stroking())
	assert.InDelta(t, 178.5, float64(p.Strength(400, 300)), 1)

	e.handlePointer(pointer.Event{Type: pointer.Drag, Position: f32.Pt(250, 150)})
	assert.NotZero(t, p.Strength(500, 300))

	e.handlePointer(pointer.Event{Type: pointer.Leave, Position: f32.Pt(500, 150)})
	assert.False(t, p.Stroking())
	assert.False(t, e.hover)
}
