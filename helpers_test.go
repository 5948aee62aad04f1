package tripface

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/unixpickle/num-analysis/linalg"
	"github.com/unixpickle/weakai/neuralnet"
)

var identityColors = map[string]color.RGBA{
	"alice": {R: 255, A: 255},
	"bob":   {G: 255, A: 255},
	"carol": {B: 255, A: 255},
	"dave":  {R: 255, G: 255, A: 255},
}

// writeDataset creates one directory per label containing
// count uniformly colored PNG files.
func writeDataset(t *testing.T, counts map[string]int) string {
	t.Helper()
	dir := t.TempDir()
	for label, count := range counts {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, label), 0755))
		for i := 0; i < count; i++ {
			path := filepath.Join(dir, label, fmt.Sprintf("%s%d.png", label[:1], i))
			writePNG(t, path, identityColors[label], 8, 8)
		}
	}
	return dir
}

func writePNG(t *testing.T, path string, c color.Color, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// scriptedRand replays a fixed sequence of draws.
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		panic("scriptedRand: out of ints")
	}
	x := s.ints[0]
	s.ints = s.ints[1:]
	if x >= n {
		panic(fmt.Sprintf("scriptedRand: %d out of range [0, %d)", x, n))
	}
	return x
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scriptedRand: out of floats")
	}
	x := s.floats[0]
	s.floats = s.floats[1:]
	return x
}

func (s *scriptedRand) Perm(n int) []int {
	res := make([]int, n)
	for i := range res {
		res[i] = i
	}
	return res
}

// colorModel embeds a tensor as its mean red, green, and
// blue components.
type colorModel struct{}

func (colorModel) Embed(t *neuralnet.Tensor3) Embedding {
	vec := make(linalg.Vector, 3)
	for y := 0; y < t.Height; y++ {
		for x := 0; x < t.Width; x++ {
			for z := 0; z < 3; z++ {
				vec[z] += t.Get(x, y, z)
			}
		}
	}
	for i := range vec {
		vec[i] /= float64(t.Width * t.Height)
	}
	return staticEmbedding(vec)
}

type staticEmbedding linalg.Vector

func (s staticEmbedding) Vector() linalg.Vector { return linalg.Vector(s) }

func (s staticEmbedding) Backward(upstream linalg.Vector) {}
