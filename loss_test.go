package tripface

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unixpickle/num-analysis/linalg"
)

func TestTripletLoss(t *testing.T) {
	exact := TripletLoss{Margin: 1, Eps: -1}
	tests := []struct {
		name     string
		a, p, n  linalg.Vector
		expected float64
	}{
		{"Identical", linalg.Vector{1, 2}, linalg.Vector{1, 2}, linalg.Vector{1, 2}, 1},
		{"Separated", linalg.Vector{0, 0}, linalg.Vector{0, 0.5}, linalg.Vector{0, 2}, 0},
		{"OnMargin", linalg.Vector{0, 0}, linalg.Vector{0, 0.5}, linalg.Vector{0, 1.5}, 0},
		{"InsideMargin", linalg.Vector{0, 0}, linalg.Vector{3, 4}, linalg.Vector{0, 5.5}, 0.5},
		{"Inverted", linalg.Vector{0, 0}, linalg.Vector{0, 2}, linalg.Vector{0, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, exact.Loss(tt.a, tt.p, tt.n), 1e-12)
		})
	}
}

func TestTripletLossIdenticalEmbeddings(t *testing.T) {
	for _, margin := range []float64{0.2, 1, 3} {
		loss := TripletLoss{Margin: margin}
		v := linalg.Vector{0.3, -1, 7}
		assert.Equal(t, margin, loss.Loss(v, v, v))
	}
}

func TestTripletLossDefaults(t *testing.T) {
	var loss TripletLoss
	v := linalg.Vector{1, 1}
	assert.Equal(t, DefaultMargin, loss.Loss(v, v, v))
	assert.InDelta(t, DefaultDistanceEps*1.4142135, loss.Distance(v, v), 1e-12)
}

func TestTripletLossNonNegative(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	loss := TripletLoss{Margin: 0.5}
	for i := 0; i < 1000; i++ {
		a, p, n := randVec(r, 4), randVec(r, 4), randVec(r, 4)
		assert.GreaterOrEqual(t, loss.Loss(a, p, n), 0.0)
		l, _, _, _ := loss.Gradient(a, p, n)
		assert.GreaterOrEqual(t, l, 0.0)
	}
}

func TestTripletLossGradient(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	loss := TripletLoss{Margin: 5, Eps: -1}
	const delta = 1e-6
	for i := 0; i < 20; i++ {
		vecs := []linalg.Vector{randVec(r, 3), randVec(r, 3), randVec(r, 3)}
		value, da, dp, dn := loss.Gradient(vecs[0], vecs[1], vecs[2])
		assert.InDelta(t, loss.Loss(vecs[0], vecs[1], vecs[2]), value, 1e-12)

		for which, grad := range []linalg.Vector{da, dp, dn} {
			for j := range grad {
				old := vecs[which][j]
				vecs[which][j] = old + delta
				plus := loss.Loss(vecs[0], vecs[1], vecs[2])
				vecs[which][j] = old - delta
				minus := loss.Loss(vecs[0], vecs[1], vecs[2])
				vecs[which][j] = old
				assert.InDelta(t, (plus-minus)/(2*delta), grad[j], 1e-4)
			}
		}
	}
}

func TestTripletLossInactiveGradient(t *testing.T) {
	loss := TripletLoss{Margin: 1, Eps: -1}
	value, da, dp, dn := loss.Gradient(linalg.Vector{0, 0}, linalg.Vector{0, 0.1}, linalg.Vector{0, 5})
	assert.Equal(t, 0.0, value)
	assert.Equal(t, linalg.Vector{0, 0}, da)
	assert.Equal(t, linalg.Vector{0, 0}, dp)
	assert.Equal(t, linalg.Vector{0, 0}, dn)
}

func TestTripletLossBatch(t *testing.T) {
	loss := TripletLoss{Margin: 1, Eps: -1}
	a := []linalg.Vector{{0}, {0}}
	p := []linalg.Vector{{0}, {2}}
	n := []linalg.Vector{{5}, {1}}
	assert.InDelta(t, 1.0, loss.BatchLoss(a, p, n), 1e-12)
	assert.Equal(t, 0.0, loss.BatchLoss(nil, nil, nil))
}

func randVec(r *rand.Rand, n int) linalg.Vector {
	res := make(linalg.Vector, n)
	for i := range res {
		res[i] = r.NormFloat64()
	}
	return res
}
