package tripface

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
)

// Flags is used to create samplers and models from
// command-line arguments.
type Flags struct {
	DataDir   string
	ImageSize int
	Augment   bool
	Seed      int64
	NetPath   string
	Margin    float64
}

// AddToSet adds the struct fields of f as arguments to
// the flag set.
func (f *Flags) AddToSet(set *pflag.FlagSet) {
	set.StringVar(&f.DataDir, "data", "", "directory with one sub-directory of images per identity")
	set.IntVar(&f.ImageSize, "size", DefaultResizeSize, "width and height images are resized to")
	set.BoolVar(&f.Augment, "augment", false, "randomly flip, crop, scale, and compress images")
	set.Int64Var(&f.Seed, "seed", 0, "random seed (0 seeds from the clock)")
	set.StringVar(&f.NetPath, "net", "", "path to an embedding network file")
	set.Float64Var(&f.Margin, "margin", DefaultMargin, "triplet loss margin")
}

// Rand creates the random source selected by the seed.
func (f *Flags) Rand() *LockedRand {
	if f.Seed == 0 {
		return NewTimeRand()
	}
	return NewLockedRand(f.Seed)
}

// Transform creates the image transform from the parsed
// flags, drawing augmentations from r.
func (f *Flags) Transform(r Rand) Transform {
	var t Transform = &Resize{Width: f.ImageSize, Height: f.ImageSize}
	if f.Augment {
		t = &Augmented{Manipulator: DefaultManipulator, Transform: t, Rand: r}
	}
	return t
}

// Samples creates a DirTriplets from the parsed flags.
func (f *Flags) Samples(r Rand) (*DirTriplets, error) {
	if f.DataDir == "" {
		return nil, errors.New("missing --data flag")
	}
	return NewDirTriplets(f.DataDir, f.Transform(r), r)
}

// Loss creates the triplet loss from the parsed flags.
func (f *Flags) Loss() TripletLoss {
	return TripletLoss{Margin: f.Margin}
}

// LoadEmbedder loads the network at NetPath and checks
// that it accepts images of the configured size.
func (f *Flags) LoadEmbedder() (*ConvEmbedder, error) {
	if f.NetPath == "" {
		return nil, errors.New("missing --net flag")
	}
	res, err := LoadConvEmbedder(f.NetPath)
	if err != nil {
		return nil, err
	}
	if res.Config().InputSize != f.ImageSize {
		return nil, fmt.Errorf("network expects %dx%d images, --size is %d",
			res.Config().InputSize, res.Config().InputSize, f.ImageSize)
	}
	return res, nil
}
