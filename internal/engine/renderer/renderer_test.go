package renderer

import "testing"

func TestAspect(t *testing.T) {
	tests := []struct {
		w, h int
		want float32
	}{
		{1280, 720, 1280.0 / 720.0},
		{800, 800, 1},
		{0, 720, 1},
		{1280, 0, 1},
	}
	for _, tt := range tests {
		if got := Aspect(tt.w, tt.h); got != tt.want {
			t.Errorf("Aspect(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}
