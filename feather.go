package smartbrush

import (
	"image"

	"github.com/esimov/smartbrush/utils"
)

// featherAlpha softens the mask edges with a single channel stack blur.
// A stack blur of radius r weighs the neighbours at distance k by r+1-|k|,
// which is applied here as a horizontal pass followed by a vertical one.
// Samples beyond the border repeat the edge pixel.
func featherAlpha(src *image.Alpha, radius int) *image.Alpha {
	b := src.Bounds()
	dst := image.NewAlpha(b)
	if radius <= 0 {
		copy(dst.Pix, src.Pix)
		return dst
	}
	w, h := b.Dx(), b.Dy()
	tmp := make([]uint64, w*h)
	div := uint64((radius + 1) * (radius + 1))

	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			tmp[y*w+x] = stackSum(radius, func(k int) uint64 {
				return uint64(row[clampIndex(x+k, w)])
			})
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			sum := stackSum(radius, func(k int) uint64 {
				return tmp[clampIndex(y+k, h)*w+x]
			})
			// Both passes multiply by div, hence the squared divisor with rounding.
			dst.Pix[y*dst.Stride+x] = uint8((sum + div*div/2) / (div * div))
		}
	}
	return dst
}

// stackSum accumulates the triangular weighted samples in [-radius, radius].
func stackSum(radius int, at func(k int) uint64) uint64 {
	var sum uint64
	for k := -radius; k <= radius; k++ {
		weight := uint64(radius + 1 - utils.Abs(k))
		sum += weight * at(k)
	}
	return sum
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
