// Package motion implements quantized frame differencing against a rolling
// single-frame baseline of sampled luminance values.
package motion

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
)

const (
	// DefaultWidth and DefaultHeight size the baseline for VGA frames.
	DefaultWidth  = 640
	DefaultHeight = 480
	// DefaultStride samples every 10th pixel.
	DefaultStride = 10

	// PixelDiffThreshold is the luminance delta above which a sample counts as changed.
	PixelDiffThreshold = 40
)

// Result is the verdict of one detection pass.
type Result struct {
	Changed      bool
	Percent      float64
	Sampled      int
	ChangedCount int
	// Points holds the changed sample positions; only filled when Detector.Debug is set.
	Points []image.Point
}

// Detector owns the rolling baseline. A zero entry means "no prior sample".
// Not safe for concurrent use.
type Detector struct {
	baseline []uint8
	// Debug makes Detect report the positions of changed samples.
	Debug bool
}

// NewDetector allocates a baseline of width*height/stride entries.
func NewDetector(width, height, stride int) *Detector {
	if stride < 1 {
		stride = 1
	}
	n := width * height / stride
	if n < 1 {
		n = 1
	}
	return &Detector{baseline: make([]uint8, n)}
}

// Size returns the number of baseline entries.
func (d *Detector) Size() int {
	return len(d.baseline)
}

// Reset forgets the baseline.
func (d *Detector) Reset() {
	clear(d.baseline)
}

// Detect compares frame against the baseline and replaces the baseline with
// the frame's samples. A nil or empty frame yields an unchanged verdict and
// leaves the baseline untouched.
func (d *Detector) Detect(frame image.Image, thresholdPercent float64) Result {
	if frame == nil {
		return Result{}
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	pixels := w * h
	if w <= 0 || h <= 0 {
		return Result{}
	}

	// Stride follows the frame so the sample count matches the baseline size.
	stride := pixels / len(d.baseline)
	if stride < 1 {
		stride = 1
	}

	var res Result
	for j := 0; j < len(d.baseline); j++ {
		p := j * stride
		if p >= pixels {
			break
		}
		x, y := b.Min.X+p%w, b.Min.Y+p/w
		cur := luminance(frame, x, y)
		prev := d.baseline[j]
		if prev != 0 {
			diff := int(cur) - int(prev)
			if diff < 0 {
				diff = -diff
			}
			if diff > PixelDiffThreshold {
				res.ChangedCount++
				if d.Debug {
					res.Points = append(res.Points, image.Pt(x, y))
				}
			}
		}
		d.baseline[j] = cur
		res.Sampled++
	}

	if res.Sampled > 0 {
		res.Percent = float64(res.ChangedCount) / float64(res.Sampled) * 100
	}
	res.Changed = res.Percent > thresholdPercent
	return res
}

// DetectJPEG decodes data and runs Detect, returning the decoded frame for
// annotation. A decode failure is reported for logging but yields an
// unchanged verdict and leaves the baseline untouched.
func (d *Detector) DetectJPEG(data []byte, thresholdPercent float64) (Result, image.Image, error) {
	img, err := DecodeJPEG(data)
	if err != nil {
		return Result{}, nil, err
	}
	return d.Detect(img, thresholdPercent), img, nil
}

// DecodeJPEG decodes a captured frame.
func DecodeJPEG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode frame: empty buffer")
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, nil
}

// luminance returns the mean of the three color channels at (x, y), 0-255.
func luminance(img image.Image, x, y int) uint8 {
	switch m := img.(type) {
	case *image.Gray:
		return m.Pix[m.PixOffset(x, y)]
	case *image.YCbCr:
		yi, ci := m.YOffset(x, y), m.COffset(x, y)
		r, g, b := color.YCbCrToRGB(m.Y[yi], m.Cb[ci], m.Cr[ci])
		return mean3(uint32(r), uint32(g), uint32(b))
	case *image.RGBA:
		i := m.PixOffset(x, y)
		return mean3(uint32(m.Pix[i]), uint32(m.Pix[i+1]), uint32(m.Pix[i+2]))
	}
	r, g, b, _ := img.At(x, y).RGBA()
	return mean3(r>>8, g>>8, b>>8)
}

func mean3(r, g, b uint32) uint8 {
	return uint8((r + g + b) / 3)
}
