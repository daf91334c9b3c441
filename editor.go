package smartbrush

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"gioui.org/app"
	"gioui.org/f32"
	"gioui.org/font/gofont"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"github.com/esimov/smartbrush/compose"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

const statusHeight = 32

var (
	editorBkgColor  = color.NRGBA{R: 0x11, G: 0x18, B: 0x27, A: 0xff}
	editorTextColor = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
	ringColor       = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xc0}
)

const editorHints = "C clear · M mask · [ ] brush · Enter submit · Esc close"

// Editor is the interactive brush window. It owns the session while running:
// pointer input, key commands and submission results are all applied on the
// window goroutine.
type Editor struct {
	Session     *Session
	Composer    Composer
	Instruction string
	// OnResult, when set, is called after every finished submission.
	OnResult func(compose.Result, error)

	theme   *material.Theme
	results chan submitResult
	view    Rect
	cursor  f32.Point
	hover   bool
	status  string
}

type submitResult struct {
	res compose.Result
	err error
}

// NewEditor returns an editor for s that submits instruction through c.
func NewEditor(s *Session, c Composer, instruction string) *Editor {
	th := material.NewTheme(gofont.Collection())
	th.Palette.Fg = editorTextColor

	return &Editor{
		Session:     s,
		Composer:    c,
		Instruction: instruction,
		theme:       th,
		results:     make(chan submitResult, 1),
		status:      editorHints,
	}
}

// Run opens the window and blocks until it is closed or ctx is done.
func (e *Editor) Run(ctx context.Context) error {
	p := e.Session.Painter
	if !p.Ready() {
		return ErrNoSource
	}
	size := p.Size()
	w := app.NewWindow(
		app.Title(e.title()),
		app.Size(unit.Dp(float32(size.X)), unit.Dp(float32(size.Y+statusHeight))),
	)

	var ops op.Ops
	done := ctx.Done()
	for {
		select {
		case ev := <-w.Events():
			switch ev := ev.(type) {
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, ev)
				e.layout(gtx)
				ev.Frame(gtx.Ops)
			case key.Event:
				if ev.State != key.Press {
					continue
				}
				if e.applyKey(ctx, ev.Name) {
					w.Perform(system.ActionClose)
					continue
				}
				w.Option(app.Title(e.title()))
				w.Invalidate()
			case system.DestroyEvent:
				return ev.Err
			}
		case r := <-e.results:
			e.finish(r)
			w.Option(app.Title(e.title()))
			w.Invalidate()
		case <-done:
			done = nil
			w.Perform(system.ActionClose)
		}
	}
}

// applyKey runs a key command and reports whether the window should close.
func (e *Editor) applyKey(ctx context.Context, name string) bool {
	p := e.Session.Painter
	switch name {
	case "C":
		p.Clear()
	case "M":
		p.SetShowMask(!p.ShowMask())
	case "[":
		p.Brush = p.Brush.Grow(-brushSizeDelta)
	case "]":
		p.Brush = p.Brush.Grow(brushSizeDelta)
	case key.NameReturn, key.NameEnter:
		e.submit(ctx)
	case key.NameEscape:
		return true
	}
	return false
}

// submit validates the session and sends the request from a separate goroutine.
// The goroutine only sees the request value; the result comes back over e.results.
func (e *Editor) submit(ctx context.Context) {
	req, err := e.Session.BeginSubmit(e.Instruction)
	if err != nil {
		e.status = err.Error()
		return
	}
	e.status = "Processing…"
	go func() {
		res, err := e.Composer.Compose(ctx, req)
		e.results <- submitResult{res: res, err: err}
	}()
}

func (e *Editor) finish(r submitResult) {
	e.Session.FinishSubmit(r.res, r.err)
	if r.err != nil {
		e.status = fmt.Sprintf("Edit failed: %v", r.err)
	} else {
		e.status = "Done: " + r.res.ImageURL
	}
	if e.OnResult != nil {
		e.OnResult(r.res, r.err)
	}
}

func (e *Editor) title() string {
	p := e.Session.Painter
	mask := "on"
	if !p.ShowMask() {
		mask = "off"
	}
	return fmt.Sprintf("Smart brush · %s · brush %.0fpx · mask %s", e.Session.State(), p.Brush.Size, mask)
}

func (e *Editor) layout(gtx C) D {
	paint.Fill(gtx.Ops, editorBkgColor)

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Flexed(1, e.layoutCanvas),
		layout.Rigid(func(gtx C) D {
			return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx C) D {
				return material.Label(e.theme, unit.Sp(14), e.status).Layout(gtx)
			})
		}),
	)
}

// layoutCanvas draws the display canvas fitted into the available space and
// routes the pointer events of the previous frame to the painter.
func (e *Editor) layoutCanvas(gtx C) D {
	p := e.Session.Painter
	size := p.Size()
	avail := gtx.Constraints.Max
	e.view = fitRect(size, avail)

	for _, ev := range gtx.Events(e) {
		if pe, ok := ev.(pointer.Event); ok {
			e.handlePointer(pe)
		}
	}

	sx := float32(e.view.Dx() / float64(size.X))
	sy := float32(e.view.Dy() / float64(size.Y))
	tr := f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(sx, sy)).
		Offset(f32.Pt(float32(e.view.Min.X), float32(e.view.Min.Y)))

	canvas := op.Affine(tr).Push(gtx.Ops)
	paint.NewImageOp(p.Display()).Add(gtx.Ops)
	area := clip.Rect{Max: size}.Push(gtx.Ops)
	paint.PaintOp{}.Add(gtx.Ops)
	area.Pop()
	canvas.Pop()

	input := clip.Rect(image.Rect(
		int(e.view.Min.X), int(e.view.Min.Y),
		int(math.Ceil(e.view.Max.X)), int(math.Ceil(e.view.Max.Y)),
	)).Push(gtx.Ops)
	pointer.InputOp{
		Tag:   e,
		Types: pointer.Press | pointer.Drag | pointer.Release | pointer.Move | pointer.Enter | pointer.Leave | pointer.Cancel,
	}.Add(gtx.Ops)
	input.Pop()

	if e.hover {
		drawRing(gtx.Ops, e.cursor, float32(p.Brush.Radius())*sx)
	}
	return D{Size: avail}
}

func (e *Editor) handlePointer(ev pointer.Event) {
	p := e.Session.Painter
	e.cursor = ev.Position
	pt := p.MapPoint(Pt(float64(ev.Position.X), float64(ev.Position.Y)), e.view)

	switch ev.Type {
	case pointer.Press:
		e.hover = true
		p.PointerDown(pt)
	case pointer.Drag:
		p.PointerMove(pt)
	case pointer.Release, pointer.Cancel:
		p.PointerUp()
	case pointer.Leave:
		e.hover = false
		p.PointerLeave()
	case pointer.Enter, pointer.Move:
		e.hover = true
	}
}

// fitRect returns the largest rectangle with the aspect ratio of size that
// fits in avail, centered.
func fitRect(size, avail image.Point) Rect {
	if size.X <= 0 || size.Y <= 0 || avail.X <= 0 || avail.Y <= 0 {
		return Rect{}
	}
	scale := math.Min(float64(avail.X)/float64(size.X), float64(avail.Y)/float64(size.Y))
	w, h := float64(size.X)*scale, float64(size.Y)*scale
	x0 := (float64(avail.X) - w) / 2
	y0 := (float64(avail.Y) - h) / 2

	return Rect{Min: Pt(x0, y0), Max: Pt(x0+w, y0+h)}
}

// drawRing outlines the brush footprint around the cursor.
func drawRing(ops *op.Ops, center f32.Point, radius float32) {
	if radius <= 0 {
		return
	}
	var path clip.Path
	path.Begin(ops)
	path.MoveTo(f32.Pt(center.X-radius, center.Y))
	path.Arc(f32.Pt(radius, 0), f32.Pt(radius, 0), 2*math.Pi)
	path.Close()

	defer clip.Stroke{Path: path.End(), Width: 1.5}.Op().Push(ops).Pop()
	paint.ColorOp{Color: ringColor}.Add(ops)
	paint.PaintOp{}.Add(ops)
}
