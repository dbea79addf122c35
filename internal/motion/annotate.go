package motion

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
)

var marker = color.RGBA{R: 255, A: 255}

// Annotate returns an RGBA copy of frame with the given sample positions painted red.
func Annotate(frame image.Image, points []image.Point) *image.RGBA {
	b := frame.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, frame, b.Min, draw.Src)
	for _, p := range points {
		out.SetRGBA(p.X, p.Y, marker)
	}
	return out
}

// EncodeJPEG encodes img at quality 90.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
