package imop

import (
	"image"
	"math"

	"github.com/esimov/smartbrush/utils"
)

// The supported Porter-Duff composition operations.
const (
	Clear   = "clear"
	Copy    = "copy"
	Dst     = "dst"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Bitmap holds the result of a composition.
type Bitmap struct {
	Img *image.NRGBA
}

// Composite holds the currently active composition operation.
type Composite struct {
	current string
	ops     []string
}

// NewBitmap initializes a new Bitmap of the given size.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		Img: image.NewNRGBA(rect),
	}
}

// InitOp initializes a new composition operation with source-over as default.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Clear,
			Copy,
			Dst,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composition operations.
// Unsupported operations are ignored and the previous one is kept.
func (op *Composite) Set(cop string) {
	if utils.Contains(op.ops, cop) {
		op.current = cop
	}
}

// Get returns the active composition operation.
func (op *Composite) Get() string {
	return op.current
}

// Draw composites src over the dst backdrop and writes the outcome into bitmap.
// The three images must have the same bounds. A nil bitmap means the result is written back into dst.
// When blend is not nil, the source color is first mixed with the backdrop using the blend mode
// and the result is composed with the active operation.
func (op *Composite) Draw(bitmap *Bitmap, src, dst *image.NRGBA, blend *Blend) {
	out := dst
	if bitmap != nil {
		out = bitmap.Img
	}

	b := src.Bounds().Intersect(dst.Bounds()).Intersect(out.Bounds())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := src.PixOffset(b.Min.X, y)
		di := dst.PixOffset(b.Min.X, y)
		oi := out.PixOffset(b.Min.X, y)

		for x := b.Min.X; x < b.Max.X; x++ {
			var (
				s  = src.Pix[si : si+4 : si+4]
				d  = dst.Pix[di : di+4 : di+4]
				as = float64(s[3]) / 255
				ab = float64(d[3]) / 255
			)
			cs := [3]float64{float64(s[0]) / 255, float64(s[1]) / 255, float64(s[2]) / 255}
			cb := [3]float64{float64(d[0]) / 255, float64(d[1]) / 255, float64(d[2]) / 255}

			if blend != nil && blend.OpType != "" && as > 0 {
				mixed := blend.apply(cs, cb)
				for i := range cs {
					cs[i] = (1-ab)*cs[i] + ab*mixed[i]
				}
			}

			// Fa and Fb are the fractions of the source and backdrop kept by the operator.
			var fa, fb float64
			switch op.current {
			case Clear:
				fa, fb = 0, 0
			case Copy:
				fa, fb = 1, 0
			case Dst:
				fa, fb = 0, 1
			case SrcOver:
				fa, fb = 1, 1-as
			case DstOver:
				fa, fb = 1-ab, 1
			case SrcIn:
				fa, fb = ab, 0
			case DstIn:
				fa, fb = 0, as
			case SrcOut:
				fa, fb = 1-ab, 0
			case DstOut:
				fa, fb = 0, 1-as
			case SrcAtop:
				fa, fb = ab, 1-as
			case DstAtop:
				fa, fb = 1-ab, as
			case Xor:
				fa, fb = 1-ab, 1-as
			}

			ao := as*fa + ab*fb
			o := out.Pix[oi : oi+4 : oi+4]
			if ao <= 0 {
				o[0], o[1], o[2], o[3] = 0, 0, 0, 0
			} else {
				for i := range cs {
					// co is premultiplied; NRGBA stores straight color.
					co := as*fa*cs[i] + ab*fb*cb[i]
					o[i] = toByte(co / ao)
				}
				o[3] = toByte(ao)
			}

			si += 4
			di += 4
			oi += 4
		}
	}
}

// toByte converts a normalized [0, 1] value to its rounded 8-bit representation.
func toByte(v float64) uint8 {
	return uint8(math.Round(utils.Clamp(v, 0, 1) * 255))
}
