package tripface

import (
	"math"

	"github.com/unixpickle/num-analysis/linalg"
)

const (
	DefaultMargin      = 1.0
	DefaultDistanceEps = 1e-6
)

// TripletLoss is the triplet margin loss
//
//	max(0, d(a, p) - d(a, n) + Margin)
//
// where d is the Euclidean distance.
type TripletLoss struct {
	// Margin is the gap by which the negative must be
	// farther from the anchor than the positive.
	// If this is 0, DefaultMargin is used.
	Margin float64

	// Eps is added to every component of a difference
	// before taking its norm, keeping the distance
	// differentiable for identical embeddings.
	// If this is 0, DefaultDistanceEps is used; a negative
	// value disables it.
	Eps float64
}

// Distance computes |a - b + eps|.
func (t *TripletLoss) Distance(a, b linalg.Vector) float64 {
	return t.diff(a, b).Mag()
}

// Loss computes the loss for a single triplet.
func (t *TripletLoss) Loss(a, p, n linalg.Vector) float64 {
	return math.Max(0, t.Distance(a, p)-t.Distance(a, n)+t.margin())
}

// Gradient computes the loss for a single triplet, along
// with its partial derivatives with respect to the three
// embeddings.
func (t *TripletLoss) Gradient(a, p, n linalg.Vector) (loss float64, da, dp, dn linalg.Vector) {
	posDiff := t.diff(a, p)
	negDiff := t.diff(a, n)
	posDist := posDiff.Mag()
	negDist := negDiff.Mag()

	da = make(linalg.Vector, len(a))
	dp = make(linalg.Vector, len(p))
	dn = make(linalg.Vector, len(n))

	loss = posDist - negDist + t.margin()
	if loss <= 0 {
		return 0, da, dp, dn
	}
	for i := range da {
		if posDist > 0 {
			g := posDiff[i] / posDist
			da[i] += g
			dp[i] -= g
		}
		if negDist > 0 {
			g := negDiff[i] / negDist
			da[i] -= g
			dn[i] += g
		}
	}
	return loss, da, dp, dn
}

// BatchLoss computes the mean loss over a batch of
// embedding triplets.
func (t *TripletLoss) BatchLoss(a, p, n []linalg.Vector) float64 {
	if len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += t.Loss(a[i], p[i], n[i])
	}
	return sum / float64(len(a))
}

func (t *TripletLoss) margin() float64 {
	if t.Margin == 0 {
		return DefaultMargin
	}
	return t.Margin
}

func (t *TripletLoss) diff(a, b linalg.Vector) linalg.Vector {
	eps := t.Eps
	if eps == 0 {
		eps = DefaultDistanceEps
	} else if eps < 0 {
		eps = 0
	}
	res := make(linalg.Vector, len(a))
	for i, x := range a {
		res[i] = x - b[i] + eps
	}
	return res
}
