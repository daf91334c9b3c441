package smartbrush

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"
)

const pngDataURLPrefix = "data:image/png;base64,"

// ExportMask encodes the mask buffer as a single channel PNG and returns the
// bare base64 payload, without any data URL header. It returns an empty
// string when no mask exists yet.
func (p *Painter) ExportMask() (string, error) {
	if p.mask == nil {
		return "", nil
	}
	uri, err := p.MaskDataURL()
	if err != nil {
		return "", err
	}
	return StripDataURL(uri), nil
}

// MaskDataURL returns the mask PNG as a data:image/png;base64 URL.
func (p *Painter) MaskDataURL() (string, error) {
	var buf bytes.Buffer
	if err := p.ExportMaskPNG(&buf); err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ExportMaskPNG writes the mask as an 8-bit grayscale PNG with the buffer's dimensions.
// When Feather is positive the exported copy is softened; the buffer itself is left untouched.
func (p *Painter) ExportMaskPNG(w io.Writer) error {
	if p.mask == nil {
		return ErrNoSource
	}
	if err := png.Encode(w, p.maskImage()); err != nil {
		return fmt.Errorf("could not encode the mask: %w", err)
	}
	return nil
}

// maskImage copies the strength buffer into a grayscale image.
func (p *Painter) maskImage() *image.Gray {
	src := p.mask
	if p.Feather > 0 {
		src = featherAlpha(p.mask, p.Feather)
	}
	gray := image.NewGray(src.Rect)
	copy(gray.Pix, src.Pix)

	return gray
}

// StripDataURL removes a "data:<mime>;base64," header, if any, and returns the payload.
func StripDataURL(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	if i := strings.IndexByte(s, ','); i >= 0 {
		return s[i+1:]
	}
	return s
}
