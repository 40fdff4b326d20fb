// Package texture decodes image files and owns their GPU texture objects.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder

	"github.com/Faultbox/scenery/internal/logger"
)

// ErrImageDecode reports a missing or undecodable image file.
var ErrImageDecode = errors.New("image decode error")

// Image is decoded pixel data. Pix is always 8-bit RGBA, rows top to bottom.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// LoadImage reads and decodes an image file.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}
	img, err := DecodeImage(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes PNG, JPEG, BMP, TIFF or TGA data. The name is only
// used to recognise TGA files, which carry no magic number.
func DecodeImage(data []byte, name string) (*Image, error) {
	var (
		img image.Image
		err error
	)
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err = DecodeTGA(data)
	} else {
		img, _, err = image.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImageDecode, err)
	}

	rgba := ImageToRGBA(img)
	if rgba.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrImageDecode)
	}
	return &Image{
		Width:    rgba.Bounds().Dx(),
		Height:   rgba.Bounds().Dy(),
		Channels: 4,
		Pix:      rgba.Pix,
	}, nil
}

// Texture is a GL texture plus the sampler uniform it binds to. Meshes share
// a *Texture by pointer and hold a reference each; the GL object is deleted
// when the last reference is released.
type Texture struct {
	ID          uint32
	SamplerName string
	Path        string

	refs int
}

// New uploads img to a new GL texture.
func New(img *Image, samplerName string) *Texture {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(img.Width), int32(img.Height), 0, gl.RGBA, gl.UNSIGNED_BYTE, unsafe.Pointer(&img.Pix[0]))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return &Texture{ID: id, SamplerName: samplerName}
}

// LoadFile decodes an image file and uploads it.
func LoadFile(path, samplerName string) (*Texture, error) {
	logger.Info("loading texture", zap.String("path", path), zap.String("sampler", samplerName))
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	t := New(img, samplerName)
	t.Path = path
	return t, nil
}

// Retain adds a reference.
func (t *Texture) Retain() {
	t.refs++
}

// Release drops a reference and deletes the GL texture once none remain.
func (t *Texture) Release() {
	if t.refs <= 0 {
		panic(fmt.Sprintf("texture: release of unreferenced texture %q", t.Path))
	}
	t.refs--
	if t.refs == 0 && t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}

// Discard deletes a texture no mesh ever retained.
func (t *Texture) Discard() {
	if t.refs != 0 {
		panic(fmt.Sprintf("texture: discard of texture %q with %d references", t.Path, t.refs))
	}
	if t.ID != 0 {
		gl.DeleteTextures(1, &t.ID)
		t.ID = 0
	}
}

// Refs returns the number of live references.
func (t *Texture) Refs() int {
	return t.refs
}
