package tripface

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/num-analysis/linalg"
	"github.com/unixpickle/weakai/neuralnet"
)

func tinyEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		InputSize:  12,
		Filters1:   2,
		Filters2:   3,
		KernelSize: 3,
		Hidden:     4,
		EmbedDim:   3,
	}
}

func tinyInput(size int) *neuralnet.Tensor3 {
	t := neuralnet.NewTensor3(size, size, 3)
	for i := range t.Data {
		t.Data[i] = float64(i%7) / 7
	}
	return t
}

func TestEmbedderConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultEmbedderConfig().Validate())
	assert.NoError(t, tinyEmbedderConfig().Validate())

	bad := tinyEmbedderConfig()
	bad.InputSize = 6
	assert.Error(t, bad.Validate())

	bad = tinyEmbedderConfig()
	bad.EmbedDim = 0
	assert.Error(t, bad.Validate())

	_, err := NewConvEmbedder(bad)
	assert.Error(t, err)
}

func TestConvEmbedderEmbed(t *testing.T) {
	e, err := NewConvEmbedder(tinyEmbedderConfig())
	require.NoError(t, err)

	vec := e.Embed(tinyInput(12)).Vector()
	assert.Len(t, vec, 3)
	for _, x := range vec {
		assert.False(t, math.IsNaN(x))
	}

	assert.Panics(t, func() {
		e.Embed(tinyInput(10))
	})
}

func TestConvEmbedderSaveLoad(t *testing.T) {
	e, err := NewConvEmbedder(tinyEmbedderConfig())
	require.NoError(t, err)
	input := tinyInput(12)
	expected := e.Embed(input).Vector()

	path := filepath.Join(t.TempDir(), "net")
	require.NoError(t, e.Save(path))
	loaded, err := LoadConvEmbedder(path)
	require.NoError(t, err)

	assert.Equal(t, tinyEmbedderConfig(), loaded.Config())
	actual := loaded.Embed(input).Vector()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.InDelta(t, expected[i], actual[i], 1e-9)
	}

	_, err = LoadConvEmbedder(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestAdamStep(t *testing.T) {
	e, err := NewConvEmbedder(tinyEmbedderConfig())
	require.NoError(t, err)
	opt := NewAdam(e, 0.01)
	input := tinyInput(12)
	before := append(linalg.Vector{}, e.Embed(input).Vector()...)

	opt.ZeroGradients()
	e.Embed(input).Backward(linalg.Vector{1, 1, 1})
	opt.Step()

	after := e.Embed(input).Vector()
	var sumBefore, sumAfter float64
	for i := range before {
		sumBefore += before[i]
		sumAfter += after[i]
	}
	assert.Less(t, sumAfter, sumBefore)

	opt.ZeroGradients()
	for _, vec := range e.grad() {
		for _, x := range vec {
			require.Zero(t, x)
		}
	}
}

func TestConvEmbedderTraining(t *testing.T) {
	dir := writeDataset(t, map[string]int{"alice": 3, "bob": 3, "carol": 2})
	r := NewLockedRand(7)
	samples, err := NewDirTriplets(dir, &Resize{Width: 12, Height: 12}, r)
	require.NoError(t, err)
	e, err := NewConvEmbedder(tinyEmbedderConfig())
	require.NoError(t, err)

	trainer := &Trainer{
		Samples:   samples,
		Model:     e,
		Optimizer: NewAdam(e, 0.001),
		Loss:      TripletLoss{Margin: 1},
		Epochs:    2,
		BatchSize: 3,
		Workers:   2,
		Rand:      r,
	}
	stats, err := trainer.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Steps)
	for _, loss := range stats.EpochLoss {
		assert.False(t, math.IsNaN(loss))
		assert.GreaterOrEqual(t, loss, 0.0)
	}
}
