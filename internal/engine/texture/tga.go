package texture

import (
	"fmt"
	"image"
	"image/color"
)

// TGA image types.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeRLE          = 10 // RLE compressed true-color
)

// DecodeTGA decodes an uncompressed or RLE compressed true-color TGA file
// with 24 or 32 bits per pixel.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < 18 {
		return nil, fmt.Errorf("%w: TGA header truncated", ErrUnsupportedFormat)
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	width := int(data[12]) | int(data[13])<<8
	height := int(data[14]) | int(data[15])<<8
	bpp := int(data[16])
	descriptor := data[17]

	if colorMapType != 0 {
		return nil, fmt.Errorf("%w: color-mapped TGA", ErrUnsupportedFormat)
	}
	if imageType != TGATypeUncompressed && imageType != TGATypeRLE {
		return nil, fmt.Errorf("%w: TGA type %d", ErrUnsupportedFormat, imageType)
	}
	if bpp != 24 && bpp != 32 {
		return nil, fmt.Errorf("%w: TGA bit depth %d", ErrUnsupportedFormat, bpp)
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: empty TGA image", ErrUnsupportedFormat)
	}

	offset := 18 + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}

	d := &tgaDecoder{
		img:         image.NewRGBA(image.Rect(0, 0, width, height)),
		data:        data[offset:],
		width:       width,
		height:      height,
		bytesPerPx:  bpp / 8,
		topToBottom: descriptor&0x20 != 0,
	}

	if imageType == TGATypeUncompressed {
		if len(d.data) < width*height*d.bytesPerPx {
			return nil, fmt.Errorf("TGA pixel data truncated")
		}
		for d.pixel < width*height {
			d.put(d.next())
		}
	} else {
		d.decodeRLE()
	}

	return d.img, nil
}

type tgaDecoder struct {
	img           *image.RGBA
	data          []byte
	pos           int
	pixel         int
	width, height int
	bytesPerPx    int
	topToBottom   bool
}

// next reads one BGR(A) pixel.
func (d *tgaDecoder) next() color.RGBA {
	c, _ := d.read()
	return c
}

func (d *tgaDecoder) read() (color.RGBA, bool) {
	if d.pos+d.bytesPerPx > len(d.data) {
		return color.RGBA{}, false
	}
	p := d.data[d.pos:]
	c := color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	if d.bytesPerPx == 4 {
		c.A = p[3]
	}
	d.pos += d.bytesPerPx
	return c, true
}

// put stores c at the current pixel and advances. Bottom-up files are
// flipped so row 0 is the top.
func (d *tgaDecoder) put(c color.RGBA) {
	x := d.pixel % d.width
	y := d.pixel / d.width
	if !d.topToBottom {
		y = d.height - 1 - y
	}
	d.img.SetRGBA(x, y, c)
	d.pixel++
}

// decodeRLE stops quietly on truncated input, leaving the rest transparent.
func (d *tgaDecoder) decodeRLE() {
	total := d.width * d.height
	for d.pixel < total && d.pos < len(d.data) {
		packet := d.data[d.pos]
		d.pos++
		count := int(packet&0x7F) + 1

		if packet&0x80 != 0 {
			c, ok := d.read()
			if !ok {
				return
			}
			for i := 0; i < count && d.pixel < total; i++ {
				d.put(c)
			}
			continue
		}

		for i := 0; i < count && d.pixel < total; i++ {
			c, ok := d.read()
			if !ok {
				return
			}
			d.put(c)
		}
	}
}
