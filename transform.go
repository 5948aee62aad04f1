package tripface

import (
	"errors"
	"image"

	"github.com/nfnt/resize"
	"github.com/unixpickle/weakai/neuralnet"
)

const (
	DefaultResizeSize = 128
)

// A Transform turns a decoded image into the tensor fed to
// an embedding model.
//
// A Transform must produce tensors of the same shape for
// every image, so that the three images of a triplet are
// interchangeable model inputs.
type Transform interface {
	Apply(img image.Image) (*neuralnet.Tensor3, error)
}

// Resize is a Transform which stretches images to a fixed
// size and converts them to RGB tensors with components
// in the range [0, 1].
type Resize struct {
	// Width and Height are the output dimensions.
	// If either is 0, DefaultResizeSize is used for it.
	Width  int
	Height int

	// Interp is the interpolation used for resizing.
	// If this is nil, resize.Bilinear is used.
	Interp *resize.InterpolationFunction
}

// Apply resizes the image and converts it to a tensor.
func (r *Resize) Apply(img image.Image) (*neuralnet.Tensor3, error) {
	if img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	width, height := r.Width, r.Height
	if width == 0 {
		width = DefaultResizeSize
	}
	if height == 0 {
		height = DefaultResizeSize
	}
	interp := resize.Bilinear
	if r.Interp != nil {
		interp = *r.Interp
	}
	if img.Bounds().Dx() != width || img.Bounds().Dy() != height {
		img = resize.Resize(uint(width), uint(height), img, interp)
	}
	return ImageToTensor(img), nil
}

// ImageToTensor converts an image to a depth-3 tensor of
// its red, green, and blue components, each scaled to the
// range [0, 1].
func ImageToTensor(img image.Image) *neuralnet.Tensor3 {
	b := img.Bounds()
	res := neuralnet.NewTensor3(b.Dx(), b.Dy(), 3)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			r, g, bl, _ := img.At(x+b.Min.X, y+b.Min.Y).RGBA()
			res.Set(x, y, 0, float64(r)/0xffff)
			res.Set(x, y, 1, float64(g)/0xffff)
			res.Set(x, y, 2, float64(bl)/0xffff)
		}
	}
	return res
}

type tensorTransform struct{}

func (tensorTransform) Apply(img image.Image) (*neuralnet.Tensor3, error) {
	if img.Bounds().Empty() {
		return nil, errors.New("empty image")
	}
	return ImageToTensor(img), nil
}
