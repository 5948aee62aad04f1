// Package tripface trains image embeddings with a triplet
// margin loss, sampling anchor/positive/negative triples from
// a directory of per-identity image folders.
package tripface

import "image"

// A Samer estimates whether or not two images show the
// same identity.
type Samer interface {
	Same(img1, img2 image.Image) bool
}
