package tripface

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"math"

	"github.com/nfnt/resize"
	"github.com/unixpickle/weakai/neuralnet"
)

// DefaultManipulator produces mild augmentations suitable
// for face crops.
var DefaultManipulator Manipulator = &AggregateManipulator{
	Manipulators: []Manipulator{
		&HorizontalFlip{},
		&Crop{
			MinMajorKeep: 0.85,
			MinMinorKeep: 0.85,
		},
		&Scale{
			MinScale: 0.75,
			MaxScale: 1.25,
		},
		&CompressJPEG{MinQuality: 40},
	},
	Probabilities: []float64{0.5, 0.3, 0.3, 0.2},
}

// A Manipulator applies a random, label-preserving change
// to an image.
// All randomness is drawn from the provided Rand.
type Manipulator interface {
	Manipulate(img image.Image, r Rand) (image.Image, error)
}

// Augmented is a Transform which manipulates images
// before handing them to another Transform.
type Augmented struct {
	Manipulator Manipulator
	Transform   Transform

	// Rand is the source of the manipulations.
	// It is shared by concurrent loads, so it must be
	// safe for concurrent use.
	Rand Rand
}

// Apply manipulates the image and then applies the wrapped
// Transform.
func (a *Augmented) Apply(img image.Image) (*neuralnet.Tensor3, error) {
	img, err := a.Manipulator.Manipulate(img, a.Rand)
	if err != nil {
		return nil, err
	}
	return a.Transform.Apply(img)
}

// A CompressJPEG manipulates images by compressing and
// then decompressing them with JPEG.
type CompressJPEG struct {
	// These parameters control the minimum and maximum
	// JPEG quality, where 100 is top quality and 1 is the
	// lowest. If a parameter is 0, the appropriate bound
	// (1 or 100) is used.
	MinQuality int
	MaxQuality int
}

// Manipulate re-encodes the image at a random quality.
func (c *CompressJPEG) Manipulate(img image.Image, r Rand) (image.Image, error) {
	min := c.MinQuality
	max := c.MaxQuality
	if min == 0 {
		min = 1
	}
	if max == 0 {
		max = 100
	}
	quality := r.Intn(max-min+1) + min

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return jpeg.Decode(&buf)
}

// A Scale manipulates images by resizing them by a random
// ratio, keeping the aspect ratio.
type Scale struct {
	// MinScale and MaxScale bound the ratio of the new
	// width to the old width.
	MinScale float64
	MaxScale float64
}

// Manipulate resizes the image.
func (s *Scale) Manipulate(img image.Image, r Rand) (image.Image, error) {
	scale := r.Float64()*(s.MaxScale-s.MinScale) + s.MinScale
	newWidth := uint(math.Max(1, float64(img.Bounds().Dx())*scale+0.5))
	return resize.Resize(newWidth, 0, img, resize.Bilinear), nil
}

// A Crop manipulates images by keeping a random region.
type Crop struct {
	// MinMajorKeep and MinMinorKeep are the smallest
	// fractions of the major (longer) and minor (shorter)
	// axes that the cropped region may cover.
	MinMajorKeep float64
	MinMinorKeep float64
}

// Manipulate crops the image.
func (c *Crop) Manipulate(img image.Image, r Rand) (image.Image, error) {
	b := img.Bounds()
	minorSize := math.Min(float64(b.Dx()), float64(b.Dy()))
	majorSize := math.Max(float64(b.Dx()), float64(b.Dy()))

	minorKeep := r.Float64()*(1-c.MinMinorKeep) + c.MinMinorKeep
	majorKeep := r.Float64()*(1-c.MinMajorKeep) + c.MinMajorKeep

	newMinor := int(math.Max(1, minorSize*minorKeep+0.5))
	newMajor := int(math.Max(1, majorSize*majorKeep+0.5))
	minorOffset := r.Intn(int(minorSize) - newMinor + 1)
	majorOffset := r.Intn(int(majorSize) - newMajor + 1)

	if b.Dx() >= b.Dy() {
		return cropImage(img, majorOffset, minorOffset, newMajor, newMinor), nil
	}
	return cropImage(img, minorOffset, majorOffset, newMinor, newMajor), nil
}

func cropImage(img image.Image, x, y, width, height int) image.Image {
	res := image.NewRGBA(image.Rect(0, 0, width, height))
	src := img.Bounds().Min.Add(image.Pt(x, y))
	draw.Draw(res, res.Bounds(), img, src, draw.Src)
	return res
}

// HorizontalFlip mirrors images left to right.
type HorizontalFlip struct{}

// Manipulate mirrors the image.
func (h *HorizontalFlip) Manipulate(img image.Image, r Rand) (image.Image, error) {
	b := img.Bounds()
	res := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			res.Set(b.Dx()-x-1, y, img.At(x+b.Min.X, y+b.Min.Y))
		}
	}
	return res, nil
}

// An AggregateManipulator probabilistically applies a list
// of Manipulators in order.
type AggregateManipulator struct {
	Manipulators []Manipulator

	// Probabilities stores the chance of applying each
	// Manipulator.
	Probabilities []float64
}

// Manipulate randomly applies the manipulators.
func (a *AggregateManipulator) Manipulate(img image.Image, r Rand) (image.Image, error) {
	for i, manip := range a.Manipulators {
		if r.Float64() >= a.Probabilities[i] {
			continue
		}
		var err error
		img, err = manip.Manipulate(img, r)
		if err != nil {
			return nil, err
		}
	}
	return img, nil
}
