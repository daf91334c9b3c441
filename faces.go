package smartbrush

import (
	"fmt"

	pigo "github.com/esimov/pigo/core"
	"github.com/esimov/smartbrush/utils"
)

// FaceOptions tunes the face detector used to mask people in listing photos.
type FaceOptions struct {
	MinSize      int
	MaxSize      int // zero means the longest canvas side
	ShiftFactor  float64
	ScaleFactor  float64
	Angle        float64 // 0.0 is 0 radians and 1.0 is 2*pi radians
	IoUThreshold float64
	MinQuality   float32
	Padding      float64 // multiplies the detection diameter
}

// DefaultFaceOptions are reasonable detector settings for interior photos.
var DefaultFaceOptions = FaceOptions{
	MinSize:      20,
	ShiftFactor:  0.1,
	ScaleFactor:  1.1,
	IoUThreshold: 0.2,
	MinQuality:   5.0,
	Padding:      1.4,
}

// MaskFaces runs the pigo cascade over the display backdrop and stamps a fully
// opaque disc over every detected face. It returns the number of stamped faces.
func (p *Painter) MaskFaces(cascade []byte, opts FaceOptions) (n int, err error) {
	if p.backdrop == nil {
		return 0, ErrNoSource
	}
	if len(cascade) == 0 {
		return 0, fmt.Errorf("face classifier is empty")
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("could not run the face classifier: %v", r)
		}
	}()

	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return 0, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	size := p.Size()
	if opts.Padding <= 0 {
		opts.Padding = 1
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = utils.Max(size.X, size.Y)
	}

	params := pigo.CascadeParams{
		MinSize:     opts.MinSize,
		MaxSize:     opts.MaxSize,
		ShiftFactor: opts.ShiftFactor,
		ScaleFactor: opts.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: rgbToGrayscale(p.backdrop),
			Rows:   size.Y,
			Cols:   size.X,
			Dim:    size.X,
		},
	}
	dets := classifier.RunCascade(params, opts.Angle)
	dets = classifier.ClusterDetections(dets, opts.IoUThreshold)

	for _, d := range dets {
		if d.Q < opts.MinQuality {
			continue
		}
		b := Brush{Size: float64(d.Scale) * opts.Padding, Opacity: 1}
		if p.stamp(Pt(float64(d.Col), float64(d.Row)), b) {
			n++
		}
	}
	if n > 0 {
		p.Composite()
	}
	Logger().Debug("faces masked", "detections", len(dets), "stamped", n)

	return n, nil
}
