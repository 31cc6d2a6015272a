package flow

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 10), G: 0, B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "src.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRaster(t *testing.T) {
	path := writeTestPNG(t, 8, 4)

	tests := []struct {
		name     string
		strategy Strategy
		wantW    int
		wantH    int
		wantNil  bool
	}{
		{"bitmap keeps native size", StrategyBitmap, 8, 4, false},
		{"image resamples to canvas", StrategyImage, 16, 12, false},
		{"noise needs no raster", StrategyPerlin, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := LoadRaster(tt.strategy, path, 16, 12)
			if err != nil {
				t.Fatalf("LoadRaster error: %v", err)
			}
			if tt.wantNil {
				if r != nil {
					t.Errorf("expected nil raster, got %dx%d", r.Width, r.Height)
				}
				return
			}
			if r.Width != tt.wantW || r.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, r.Width, r.Height)
			}
			if err := r.validate(); err != nil {
				t.Errorf("expected valid raster, got %v", err)
			}
		})
	}
}

func TestLoadRaster_Pixels(t *testing.T) {
	r, err := LoadRaster(StrategyBitmap, writeTestPNG(t, 8, 4), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	red, green, blue := r.RGB(3, 2)
	if red != 30 || green != 0 || blue != 200 {
		t.Errorf("expected (30, 0, 200), got (%d, %d, %d)", red, green, blue)
	}
}

func TestLoadRaster_Missing(t *testing.T) {
	if _, err := LoadRaster(StrategyImage, filepath.Join(t.TempDir(), "nope.png"), 10, 10); err == nil {
		t.Error("expected error for missing image")
	}
}
