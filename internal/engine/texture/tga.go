package texture

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
)

// TGA image types. Colour-mapped images are not supported.
const (
	tgaTrueColor    = 2
	tgaGray         = 3
	tgaTrueColorRLE = 10
	tgaGrayRLE      = 11
)

const tgaHeaderSize = 18

var errTGATruncated = errors.New("tga: truncated pixel data")

type tgaHeader struct {
	idLength     int
	colorMapType byte
	imageType    byte
	width        int
	height       int
	depth        int
	topDown      bool
}

func parseTGAHeader(data []byte) (tgaHeader, error) {
	if len(data) < tgaHeaderSize {
		return tgaHeader{}, fmt.Errorf("tga: header needs %d bytes, got %d", tgaHeaderSize, len(data))
	}
	h := tgaHeader{
		idLength:     int(data[0]),
		colorMapType: data[1],
		imageType:    data[2],
		width:        int(data[12]) | int(data[13])<<8,
		height:       int(data[14]) | int(data[15])<<8,
		depth:        int(data[16]),
		topDown:      data[17]&0x20 != 0,
	}
	if h.colorMapType != 0 {
		return h, errors.New("tga: colour-mapped images are not supported")
	}
	switch h.imageType {
	case tgaTrueColor, tgaTrueColorRLE:
		if h.depth != 24 && h.depth != 32 {
			return h, fmt.Errorf("tga: unsupported true-colour depth %d", h.depth)
		}
	case tgaGray, tgaGrayRLE:
		if h.depth != 8 {
			return h, fmt.Errorf("tga: unsupported grayscale depth %d", h.depth)
		}
	default:
		return h, fmt.Errorf("tga: unsupported image type %d", h.imageType)
	}
	return h, nil
}

func (h tgaHeader) rle() bool {
	return h.imageType == tgaTrueColorRLE || h.imageType == tgaGrayRLE
}

// tgaWriter stores pixels in file order, which is bottom-up unless the
// descriptor says otherwise.
type tgaWriter struct {
	img    *image.RGBA
	h      tgaHeader
	stride int
	next   int
}

func (w *tgaWriter) done() bool {
	return w.next >= w.h.width*w.h.height
}

// put writes one stored pixel (BGR[A] or gray) at the cursor.
func (w *tgaWriter) put(px []byte) {
	x, y := w.next%w.h.width, w.next/w.h.width
	if !w.h.topDown {
		y = w.h.height - 1 - y
	}
	o := w.img.PixOffset(x, y)
	dst := w.img.Pix[o : o+4]
	if w.stride == 1 {
		dst[0], dst[1], dst[2], dst[3] = px[0], px[0], px[0], 255
	} else {
		dst[0], dst[1], dst[2], dst[3] = px[2], px[1], px[0], 255
		if w.stride == 4 {
			dst[3] = px[3]
		}
	}
	w.next++
}

// DecodeTGA decodes uncompressed and RLE true-colour or grayscale TGA data.
func DecodeTGA(data []byte) (image.Image, error) {
	h, err := parseTGAHeader(data)
	if err != nil {
		return nil, err
	}
	pixels := data[min(tgaHeaderSize+h.idLength, len(data)):]
	w := &tgaWriter{
		img:    image.NewRGBA(image.Rect(0, 0, h.width, h.height)),
		h:      h,
		stride: h.depth / 8,
	}

	if !h.rle() {
		if len(pixels) < h.width*h.height*w.stride {
			return nil, errTGATruncated
		}
		for i := 0; !w.done(); i += w.stride {
			w.put(pixels[i:])
		}
		return w.img, nil
	}

	for i := 0; !w.done(); {
		if i >= len(pixels) {
			return nil, errTGATruncated
		}
		packet := pixels[i]
		i++
		count := int(packet&0x7f) + 1
		if packet&0x80 != 0 {
			if i+w.stride > len(pixels) {
				return nil, errTGATruncated
			}
			for ; count > 0 && !w.done(); count-- {
				w.put(pixels[i:])
			}
			i += w.stride
			continue
		}
		for ; count > 0 && !w.done(); count-- {
			if i+w.stride > len(pixels) {
				return nil, errTGATruncated
			}
			w.put(pixels[i:])
			i += w.stride
		}
	}
	return w.img, nil
}

// ImageToRGBA converts any image.Image to *image.RGBA with its origin at (0,0).
func ImageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
