package smartbrush

// Clear zeroes the mask buffer and recomposites. Calling it twice is the same as calling it once.
func (p *Painter) Clear() {
	if p.mask == nil {
		return
	}
	clear(p.mask.Pix)
	p.Composite()
	Logger().Debug("mask cleared")
}

// Coverage returns the number of mask pixels with non-zero strength.
func (p *Painter) Coverage() int {
	if p.mask == nil {
		return 0
	}
	var n int
	for _, s := range p.mask.Pix {
		if s > 0 {
			n++
		}
	}
	return n
}

// IsBlank reports whether there is no mask or nothing has been painted on it.
func (p *Painter) IsBlank() bool {
	return p.Coverage() == 0
}

// Strength returns the mask value at (x, y), or 0 outside the buffer.
func (p *Painter) Strength(x, y int) uint8 {
	if p.mask == nil {
		return 0
	}
	return p.mask.AlphaAt(x, y).A
}
