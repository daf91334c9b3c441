package smartbrush

import (
	"image"
	"image/draw"
	"math"

	"github.com/esimov/smartbrush/utils"
)

// Composite rebuilds the display canvas: the backdrop first, then, when the
// mask is visible, the tinted overlay blended over it.
func (p *Painter) Composite() {
	if p.display == nil {
		return
	}
	clear(p.display.Pix)
	draw.Draw(p.display, p.display.Rect, p.backdrop, image.Point{}, draw.Src)

	if !p.showMask {
		return
	}
	p.fillOverlay()
	p.comp.Draw(nil, p.overlay, p.display, p.Blend)
}

// fillOverlay writes the tint colour into the scratch overlay wherever the mask
// has strength; the alpha is the strength scaled by TintScale.
func (p *Painter) fillOverlay() {
	var (
		tint  = p.Tint
		scale = p.TintScale
		pix   = p.overlay.Pix
	)
	for i, s := range p.mask.Pix {
		o := pix[i*4 : i*4+4 : i*4+4]
		if s == 0 {
			o[0], o[1], o[2], o[3] = 0, 0, 0, 0
			continue
		}
		a := utils.Clamp(math.Round(float64(s)*scale), 0, 255)
		o[0], o[1], o[2], o[3] = tint.R, tint.G, tint.B, uint8(a)
	}
}
