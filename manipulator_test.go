package tripface

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / width), G: uint8(y * 255 / height), A: 255})
		}
	}
	return img
}

func TestHorizontalFlip(t *testing.T) {
	img := gradientImage(4, 3)
	res, err := (&HorizontalFlip{}).Manipulate(img, NewLockedRand(1))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), res.Bounds())
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, img.At(x, y), res.At(3-x, y))
		}
	}
}

func TestCrop(t *testing.T) {
	img := gradientImage(20, 10)
	crop := &Crop{MinMajorKeep: 0.5, MinMinorKeep: 0.8}
	r := NewLockedRand(2)
	for i := 0; i < 20; i++ {
		res, err := crop.Manipulate(img, r)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Bounds().Dx(), 10)
		assert.LessOrEqual(t, res.Bounds().Dx(), 20)
		assert.GreaterOrEqual(t, res.Bounds().Dy(), 8)
		assert.LessOrEqual(t, res.Bounds().Dy(), 10)
	}
}

func TestCropOffset(t *testing.T) {
	img := gradientImage(10, 10)
	r := &scriptedRand{floats: []float64{0, 0}, ints: []int{2, 3}}
	res, err := (&Crop{MinMajorKeep: 0.5, MinMinorKeep: 0.5}).Manipulate(img, r)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Bounds().Dx())
	assert.Equal(t, 5, res.Bounds().Dy())
	assert.Equal(t, img.At(3, 2), res.At(0, 0))
}

func TestScaleAndCompress(t *testing.T) {
	img := gradientImage(20, 10)
	r := NewLockedRand(3)

	scaled, err := (&Scale{MinScale: 0.5, MaxScale: 0.5}).Manipulate(img, r)
	require.NoError(t, err)
	assert.Equal(t, 10, scaled.Bounds().Dx())
	assert.Equal(t, 5, scaled.Bounds().Dy())

	compressed, err := (&CompressJPEG{MinQuality: 50, MaxQuality: 60}).Manipulate(img, r)
	require.NoError(t, err)
	assert.Equal(t, 20, compressed.Bounds().Dx())
	assert.Equal(t, 10, compressed.Bounds().Dy())
}

func TestAugmentedDeterministic(t *testing.T) {
	img := gradientImage(16, 12)
	apply := func() []float64 {
		a := &Augmented{
			Manipulator: DefaultManipulator,
			Transform:   &Resize{Width: 8, Height: 8},
			Rand:        NewLockedRand(99),
		}
		var res []float64
		for i := 0; i < 5; i++ {
			tensor, err := a.Apply(img)
			require.NoError(t, err)
			require.Equal(t, 8, tensor.Width)
			require.Equal(t, 8, tensor.Height)
			res = append(res, tensor.Data...)
		}
		return res
	}
	assert.Equal(t, apply(), apply())
}

func TestResizeEmptyImage(t *testing.T) {
	_, err := (&Resize{}).Apply(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)

	tensor, err := (&Resize{}).Apply(gradientImage(3, 3))
	require.NoError(t, err)
	assert.Equal(t, DefaultResizeSize, tensor.Width)
	assert.Equal(t, DefaultResizeSize, tensor.Height)
}
