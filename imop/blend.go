// Package imop implements the Porter-Duff composition operations
// used for mixing a graphic element with its backdrop.
// Porter and Duff presented in their paper 12 different composition operation,
// but the image/draw core package implements only the source-over-destination and source.
// This package is aimed to overcome the missing composite operations.
//
// It is used to lay the translucent mask tint over the photo shown in the editor,
// optionally mixing the tint with the photo through one of the separable blend modes.
package imop

import (
	"fmt"

	"github.com/esimov/smartbrush/utils"
)

// The supported separable blend modes.
const (
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
// An empty string disables blending.
func (o *Blend) Set(opType string) error {
	if opType == "" {
		o.OpType = ""
		return nil
	}
	bModes := []string{Darken, Lighten, Multiply, Screen, Overlay}

	if !utils.Contains(bModes, opType) {
		return fmt.Errorf("unsupported blend mode: %v", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	return o.OpType
}

// apply returns B(cb, cs) for each color channel.
func (o *Blend) apply(cs, cb [3]float64) [3]float64 {
	var res [3]float64
	for i := range res {
		s, b := cs[i], cb[i]
		switch o.OpType {
		case Darken:
			res[i] = utils.Min(s, b)
		case Lighten:
			res[i] = utils.Max(s, b)
		case Multiply:
			res[i] = s * b
		case Screen:
			res[i] = s + b - s*b
		case Overlay:
			// Overlay is hard-light with the layers swapped.
			if b <= 0.5 {
				res[i] = 2 * s * b
			} else {
				res[i] = 1 - 2*(1-s)*(1-b)
			}
		default:
			res[i] = s
		}
	}
	return res
}
