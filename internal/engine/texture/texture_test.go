package texture

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(w-1, h-1, color.NRGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeImagePNG(t *testing.T) {
	img, err := DecodeImage(encodePNG(t, 3, 2), "test.png")
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if img.Width != 3 || img.Height != 2 || img.Channels != 4 {
		t.Errorf("got %dx%dx%d, want 3x2x4", img.Width, img.Height, img.Channels)
	}
	if len(img.Pix) != 3*2*4 {
		t.Errorf("expected %d pixel bytes, got %d", 3*2*4, len(img.Pix))
	}
	// First row is the top row.
	if img.Pix[0] != 255 || img.Pix[3] != 255 {
		t.Errorf("top-left pixel = %v, want opaque red", img.Pix[:4])
	}
}

func TestDecodeImageTGA(t *testing.T) {
	// 1x1 uncompressed 24-bit, stored bottom-up, BGR.
	data := make([]byte, 18, 21)
	data[2] = tgaTrueColor
	data[12] = 1
	data[14] = 1
	data[16] = 24
	data = append(data, 10, 20, 30)

	img, err := DecodeImage(data, "floor.TGA")
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	want := []byte{30, 20, 10, 255}
	if !bytes.Equal(img.Pix, want) {
		t.Errorf("pixel = %v, want %v", img.Pix, want)
	}
}

func tgaFile(imageType byte, w, h, depth int, topDown bool, pixels ...byte) []byte {
	data := make([]byte, 18, 18+len(pixels))
	data[2] = imageType
	data[12] = byte(w)
	data[14] = byte(h)
	data[16] = byte(depth)
	if topDown {
		data[17] = 0x20
	}
	return append(data, pixels...)
}

func TestDecodeTGAVariants(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{
			// Bottom-up: the first stored row lands at y=1.
			name: "bottom-up 32-bit",
			data: tgaFile(tgaTrueColor, 1, 2, 32, false, 1, 2, 3, 4, 5, 6, 7, 8),
			want: []byte{7, 6, 5, 8, 3, 2, 1, 4},
		},
		{
			name: "top-down 24-bit",
			data: tgaFile(tgaTrueColor, 1, 2, 24, true, 1, 2, 3, 5, 6, 7),
			want: []byte{3, 2, 1, 255, 7, 6, 5, 255},
		},
		{
			name: "grayscale",
			data: tgaFile(tgaGray, 2, 1, 8, true, 40, 80),
			want: []byte{40, 40, 40, 255, 80, 80, 80, 255},
		},
		{
			// One run of two followed by one raw pixel.
			name: "rle mixed packets",
			data: tgaFile(tgaTrueColorRLE, 3, 1, 24, true, 0x81, 1, 2, 3, 0x00, 9, 8, 7),
			want: []byte{3, 2, 1, 255, 3, 2, 1, 255, 7, 8, 9, 255},
		},
		{
			name: "grayscale rle",
			data: tgaFile(tgaGrayRLE, 2, 1, 8, true, 0x81, 60),
			want: []byte{60, 60, 60, 255, 60, 60, 60, 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := DecodeImage(tt.data, "t.tga")
			if err != nil {
				t.Fatalf("DecodeImage: %v", err)
			}
			if !bytes.Equal(img.Pix, tt.want) {
				t.Errorf("pixels = %v, want %v", img.Pix, tt.want)
			}
		})
	}
}

func TestDecodeImageErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		file string
	}{
		{"garbage", []byte("definitely not an image"), "x.png"},
		{"short tga", []byte{0, 0, 2}, "x.tga"},
		{"colour-mapped tga", append([]byte{0, 1, 2}, make([]byte, 15)...), "x.tga"},
		{"truncated tga", tgaFile(tgaTrueColor, 2, 1, 24, false, 1, 2, 3), "x.tga"},
		{"truncated rle", tgaFile(tgaTrueColorRLE, 2, 1, 24, false, 0x81, 1, 2), "x.tga"},
		{"16-bit tga", tgaFile(tgaTrueColor, 1, 1, 16, false, 0, 0), "x.tga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeImage(tt.data, tt.file)
			if !errors.Is(err, ErrImageDecode) {
				t.Errorf("expected ErrImageDecode, got %v", err)
			}
		})
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")
	if err := os.WriteFile(path, encodePNG(t, 4, 4), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	img, err := LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if img.Width != 4 || img.Height != 4 {
		t.Errorf("got %dx%d, want 4x4", img.Width, img.Height)
	}

	if _, err := LoadImage(filepath.Join(dir, "missing.png")); !errors.Is(err, ErrImageDecode) {
		t.Errorf("missing file: expected ErrImageDecode, got %v", err)
	}
}

func TestTextureRefs(t *testing.T) {
	// ID 0 never reaches GL.
	tex := &Texture{SamplerName: "baseTexture", Path: "a.png"}
	tex.Retain()
	tex.Retain()
	if tex.Refs() != 2 {
		t.Fatalf("expected 2 refs, got %d", tex.Refs())
	}
	tex.Release()
	tex.Release()
	if tex.Refs() != 0 {
		t.Errorf("expected 0 refs, got %d", tex.Refs())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic releasing an unreferenced texture")
		}
	}()
	tex.Release()
}

func TestTextureDiscard(t *testing.T) {
	(&Texture{}).Discard()

	held := &Texture{}
	held.Retain()
	defer func() {
		if recover() == nil {
			t.Error("expected panic discarding a referenced texture")
		}
	}()
	held.Discard()
}
