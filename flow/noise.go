package flow

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Perlin generator shape.
const (
	perlinAlpha   = 2.0
	perlinBeta    = 2.0
	perlinOctaves = 3
)

func buildPerlin(d PerlinData) func(x, y, w, h float64) (Sample, error) {
	p := perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, d.NoiseSeed)
	res := d.Resolution

	return func(x, y, _, _ float64) (Sample, error) {
		n := p.Noise2D(x*res, y*res)
		return Sample{Force: 1, Angle: n * 2 * math.Pi}, nil
	}
}

func buildSimplex(d SimplexData) func(x, y, w, h float64) (Sample, error) {
	n := opensimplex.New(d.NoiseSeed)
	res := d.Resolution

	return func(x, y, _, _ float64) (Sample, error) {
		return Sample{Force: 1, Angle: n.Eval2(x*res, y*res) * 2 * math.Pi}, nil
	}
}
