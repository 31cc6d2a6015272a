package flow

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Raster is a packed RGB pixel buffer, row major, 3 bytes per pixel.
type Raster struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Pix    []uint8 `json:"pix"`
}

// NewRaster allocates a black raster.
func NewRaster(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*3),
	}
}

// RGB returns the pixel at (x, y). Coordinates must be in range.
func (r *Raster) RGB(x, y int) (uint8, uint8, uint8) {
	i := (y*r.Width + x) * 3
	return r.Pix[i], r.Pix[i+1], r.Pix[i+2]
}

// Set writes the pixel at (x, y). Coordinates must be in range.
func (r *Raster) Set(x, y int, red, green, blue uint8) {
	i := (y*r.Width + x) * 3
	r.Pix[i], r.Pix[i+1], r.Pix[i+2] = red, green, blue
}

func (r *Raster) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: raster is %dx%d", ErrInvalidParams, r.Width, r.Height)
	}
	if len(r.Pix) != r.Width*r.Height*3 {
		return fmt.Errorf("%w: raster has %d bytes, want %d", ErrInvalidParams, len(r.Pix), r.Width*r.Height*3)
	}
	return nil
}

// RasterFromImage copies img into a raster at its native size.
func RasterFromImage(img image.Image) *Raster {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rasterFromRGBA(rgba)
}

// ResampleImage scales img to width x height and copies it into a raster.
func ResampleImage(img image.Image, width, height int) *Raster {
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(rgba, rgba.Bounds(), img, img.Bounds(), draw.Src, nil)
	return rasterFromRGBA(rgba)
}

func rasterFromRGBA(rgba *image.RGBA) *Raster {
	b := rgba.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	for y := 0; y < r.Height; y++ {
		for x := 0; x < r.Width; x++ {
			c := rgba.RGBAAt(x, y)
			r.Set(x, y, c.R, c.G, c.B)
		}
	}
	return r
}

// LoadBitmap decodes an image file into a raster at its native size.
func LoadBitmap(path string) (*Raster, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return RasterFromImage(img), nil
}

// LoadImage decodes an image file and stretches it over the canvas.
func LoadImage(path string, width, height int) (*Raster, error) {
	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	return ResampleImage(img, width, height), nil
}

// LoadRaster loads the source image strategy s samples. Strategies that
// sample no image get a nil raster.
func LoadRaster(s Strategy, path string, width, height int) (*Raster, error) {
	switch s {
	case StrategyBitmap:
		return LoadBitmap(path)
	case StrategyImage:
		return LoadImage(path, width, height)
	}
	return nil, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return img, nil
}
