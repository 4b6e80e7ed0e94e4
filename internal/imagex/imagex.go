// Package imagex normalizes uploaded images: downsampling into a bounding
// box and re-encoding as JPEG. Processing is best-effort — bytes that
// cannot be decoded pass through unchanged rather than failing the save.
package imagex

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Options controls normalization.
type Options struct {
	MaxWidth  int `yaml:"max_width"`  // bounding box. Default: 1920.
	MaxHeight int `yaml:"max_height"` // Default: 1080.
	Quality   int `yaml:"quality"`    // JPEG quality. Default: 80.
}

// Defaults fills zero fields.
func (o *Options) Defaults() {
	if o.MaxWidth <= 0 {
		o.MaxWidth = 1920
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = 1080
	}
	if o.Quality <= 0 {
		o.Quality = 80
	}
}

// screenshotQuality is used by ProcessScreenshot; screenshots are
// recompressed but never resized.
const screenshotQuality = 85

// Process decodes, downsamples into the bounding box preserving aspect
// ratio (never enlarging), and re-encodes as JPEG. Undecodable input is
// returned unchanged.
func Process(data []byte, opts Options) ([]byte, error) {
	opts.Defaults()

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Best-effort: keep the original bytes.
		return data, nil
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > opts.MaxWidth || h > opts.MaxHeight {
		w, h = fitBox(w, h, opts.MaxWidth, opts.MaxHeight)
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	return encodeJPEG(src, opts.Quality)
}

// ProcessScreenshot recompresses screenshot bytes as JPEG without
// resizing. Undecodable input passes through unchanged.
func ProcessScreenshot(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	return encodeJPEG(src, screenshotQuality)
}

// fitBox scales (w, h) down to fit (maxW, maxH) preserving aspect ratio.
func fitBox(w, h, maxW, maxH int) (int, int) {
	scaleW := float64(maxW) / float64(w)
	scaleH := float64(maxH) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	fw := int(float64(w) * scale)
	fh := int(float64(h) * scale)
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
