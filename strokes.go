package smartbrush

import (
	"encoding/json"
	"fmt"
	"io"
)

// Stroke is one recorded pointer drag in mask buffer coordinates.
// A zero Size or Opacity keeps the painter's current brush value.
type Stroke struct {
	Size    float64      `json:"size,omitempty"`
	Opacity float64      `json:"opacity,omitempty"`
	Points  [][2]float64 `json:"points"`
}

// ReadStrokes decodes a JSON array of strokes.
func ReadStrokes(r io.Reader) ([]Stroke, error) {
	var strokes []Stroke
	if err := json.NewDecoder(r).Decode(&strokes); err != nil {
		return nil, fmt.Errorf("could not decode the stroke script: %w", err)
	}
	return strokes, nil
}

// Replay feeds the strokes through the pointer handlers, as if they were
// drawn by hand: pointer down on the first point, moves on the rest, then up.
// The painter's brush is restored afterwards.
func (p *Painter) Replay(strokes []Stroke) error {
	if !p.Ready() {
		return ErrNoSource
	}
	brush := p.Brush
	defer func() { p.Brush = brush }()

	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		p.Brush = brush
		if s.Size > 0 {
			p.Brush.Size = s.Size
		}
		if s.Opacity > 0 {
			p.Brush.Opacity = s.Opacity
		}
		p.PointerDown(Pt(s.Points[0][0], s.Points[0][1]))
		for _, pt := range s.Points[1:] {
			p.PointerMove(Pt(pt[0], pt[1]))
		}
		p.PointerUp()
	}
	return nil
}
