package tripface

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/unixpickle/weakai/neuralnet"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// An Identity is a labeled group of images showing the
// same person.
type Identity struct {
	Label  string
	Images []string
}

// An ImageRef points to one image of an identity.
type ImageRef struct {
	Identity string
	Path     string
}

// TripletRefs identifies the images of a triplet before
// they are loaded.
type TripletRefs struct {
	Anchor   ImageRef
	Positive ImageRef
	Negative ImageRef
}

// A Triplet is a loaded anchor/positive/negative triple.
// The anchor and positive show the same identity, and the
// negative shows a different one.
type Triplet struct {
	Anchor   *neuralnet.Tensor3
	Positive *neuralnet.Tensor3
	Negative *neuralnet.Tensor3
}

// A TripletSource is any indexable source of triplets.
//
// The index passed to SampleRefs only satisfies the
// fixed-length sequence contract; sources may ignore it.
type TripletSource interface {
	// Len is the declared length of the sequence.
	Len() int

	// SampleRefs draws the references for one triplet.
	SampleRefs(index int) (TripletRefs, error)

	// Load reads and transforms the referenced images.
	Load(refs TripletRefs) (*Triplet, error)
}

// DirTriplets samples triplets from a base directory with
// one sub-directory of images per identity.
type DirTriplets struct {
	baseDir    string
	identities []*Identity
	transform  Transform
	rand       Rand
	length     int
}

// NewDirTriplets creates a DirTriplets by listing the base
// directory and each identity directory in it.
//
// If t is nil, images are converted to tensors at their
// decoded size.
// If r is nil, a time-seeded source is used.
func NewDirTriplets(baseDir string, t Transform, r Rand) (*DirTriplets, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, &DatasetConfigurationError{Path: baseDir, Reason: "cannot access base directory",
			cause: err}
	}
	if !info.IsDir() {
		return nil, &DatasetConfigurationError{Path: baseDir, Reason: "not a directory"}
	}
	listing, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, &DatasetConfigurationError{Path: baseDir, Reason: "cannot list base directory",
			cause: err}
	}

	res := &DirTriplets{baseDir: baseDir, transform: t, rand: r}
	if res.transform == nil {
		res.transform = tensorTransform{}
	}
	if res.rand == nil {
		res.rand = NewTimeRand()
	}

	for _, entry := range listing {
		if !entry.IsDir() || hiddenName(entry.Name()) {
			continue
		}
		identity, err := listIdentity(baseDir, entry.Name())
		if err != nil {
			return nil, err
		}
		res.identities = append(res.identities, identity)
		res.length += len(identity.Images)
	}
	if len(res.identities) < 2 {
		return nil, &DatasetConfigurationError{
			Path:   baseDir,
			Reason: fmt.Sprintf("found %d identity director(ies), need at least 2", len(res.identities)),
		}
	}
	return res, nil
}

func listIdentity(baseDir, label string) (*Identity, error) {
	dir := filepath.Join(baseDir, label)
	listing, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DatasetConfigurationError{Path: dir, Reason: "cannot list identity directory",
			cause: err}
	}
	identity := &Identity{Label: label}
	for _, entry := range listing {
		if entry.IsDir() || hiddenName(entry.Name()) {
			continue
		}
		identity.Images = append(identity.Images, filepath.Join(dir, entry.Name()))
	}
	if len(identity.Images) == 0 {
		return nil, &DatasetConfigurationError{Path: dir, Reason: "identity has no images"}
	}
	sort.Strings(identity.Images)
	return identity, nil
}

func hiddenName(name string) bool {
	return strings.HasPrefix(name, ".")
}

// Len returns the total number of images across all of the
// identities.
func (d *DirTriplets) Len() int {
	return d.length
}

// Identities returns the discovered identities, sorted by
// label.
// The result must not be modified.
func (d *DirTriplets) Identities() []*Identity {
	return d.identities
}

// SampleRefs randomly chooses an identity, two distinct
// images of it, and an image of some other identity.
func (d *DirTriplets) SampleRefs(index int) (TripletRefs, error) {
	idIdx := d.rand.Intn(len(d.identities))
	identity := d.identities[idIdx]
	posIdx := d.rand.Intn(len(identity.Images))
	if len(identity.Images) < 2 {
		return TripletRefs{}, &InsufficientSamplesError{
			Identity: identity.Label,
			Count:    len(identity.Images),
		}
	}
	anchorIdx := d.rand.Intn(len(identity.Images) - 1)
	if anchorIdx >= posIdx {
		anchorIdx++
	}

	if len(d.identities) < 2 {
		return TripletRefs{}, &DatasetConfigurationError{Path: d.baseDir,
			Reason: "no identity available for a negative"}
	}
	negIdx := d.rand.Intn(len(d.identities) - 1)
	if negIdx >= idIdx {
		negIdx++
	}
	negative := d.identities[negIdx]
	negImage := d.rand.Intn(len(negative.Images))

	return TripletRefs{
		Anchor:   ImageRef{Identity: identity.Label, Path: identity.Images[anchorIdx]},
		Positive: ImageRef{Identity: identity.Label, Path: identity.Images[posIdx]},
		Negative: ImageRef{Identity: negative.Label, Path: negative.Images[negImage]},
	}, nil
}

// Load reads, decodes, and transforms the three images of
// a triplet.
// Every call reads the files again.
func (d *DirTriplets) Load(refs TripletRefs) (*Triplet, error) {
	var tensors [3]*neuralnet.Tensor3
	for i, ref := range []ImageRef{refs.Anchor, refs.Positive, refs.Negative} {
		img, err := LoadImage(ref.Path)
		if err != nil {
			return nil, err
		}
		tensor, err := d.transform.Apply(img)
		if err != nil {
			return nil, &ImageDecodeError{Path: ref.Path, cause: err}
		}
		if i > 0 && !sameShape(tensor, tensors[0]) {
			return nil, &ImageDecodeError{
				Path: ref.Path,
				cause: fmt.Errorf("tensor shape %dx%dx%d does not match anchor %dx%dx%d",
					tensor.Width, tensor.Height, tensor.Depth,
					tensors[0].Width, tensors[0].Height, tensors[0].Depth),
			}
		}
		tensors[i] = tensor
	}
	return &Triplet{Anchor: tensors[0], Positive: tensors[1], Negative: tensors[2]}, nil
}

// Get samples and loads a triplet.
func (d *DirTriplets) Get(index int) (*Triplet, error) {
	refs, err := d.SampleRefs(index)
	if err != nil {
		return nil, err
	}
	return d.Load(refs)
}

// LoadImage opens and decodes an image file.
// Decoding failures are reported as *ImageDecodeError.
func LoadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageDecodeError{Path: path, cause: err}
	}
	return img, nil
}

func sameShape(t1, t2 *neuralnet.Tensor3) bool {
	return t1.Width == t2.Width && t1.Height == t2.Height && t1.Depth == t2.Depth
}
