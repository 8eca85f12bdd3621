// Package texture decodes images and uploads them to GPU texture slots.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG

	_ "golang.org/x/image/bmp" // register BMP
	"golang.org/x/image/draw"
)

// ErrUnsupportedFormat is returned for data no decoder understands.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ErrEmptyImage is returned for images with no pixels.
var ErrEmptyImage = errors.New("empty image")

// Decode decodes PNG, JPEG, BMP or TGA data into a tightly packed RGBA
// image with its origin at (0,0).
func Decode(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err == nil {
		if img.Bounds().Empty() {
			return nil, ErrEmptyImage
		}
		return ToRGBA(img), nil
	}
	if !errors.Is(err, image.ErrFormat) {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// TGA has no magic number, so it is tried last
	rgba, tgaErr := DecodeTGA(data)
	if tgaErr != nil {
		return nil, tgaErr
	}
	return rgba, nil
}

// ToRGBA converts any image to *image.RGBA, reusing img when it already is
// one with a zero origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// FitWithin scales img down so neither side exceeds maxSize, keeping the
// aspect ratio. maxSize <= 0 or an image that already fits is returned as is.
func FitWithin(img *image.RGBA, maxSize int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}

	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
