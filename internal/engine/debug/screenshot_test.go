package debug

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 30, 5, 0, time.UTC)
}

func TestFilename(t *testing.T) {
	s := NewScreenshots("shots", "scenery")
	s.now = fixedClock
	assert.Equal(t, filepath.Join("shots", "scenery_2024-03-01_12-30-05.000.png"), s.Filename())

	s.Dir = ""
	assert.Equal(t, "scenery_2024-03-01_12-30-05.000.png", s.Filename())
}

func TestSaveFlipsRows(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s := NewScreenshots(dir, "shot")
	s.now = fixedClock

	// Bottom row red, top row blue, as glReadPixels returns them.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}
	name, err := s.Save(pixels, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, s.Filename(), name)

	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	assert.Equal(t, color.RGBA{B: 255, A: 255}, color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, color.RGBAModel.Convert(img.At(1, 1)))
}

func TestSaveRejectsBadInput(t *testing.T) {
	s := NewScreenshots(t.TempDir(), "shot")
	_, err := s.Save(make([]byte, 10), 2, 2)
	assert.Error(t, err)
	_, err = s.Save(nil, 0, 0)
	assert.Error(t, err)
}
