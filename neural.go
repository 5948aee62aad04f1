package tripface

import (
	"errors"
	"fmt"
	"os"

	"github.com/unixpickle/autofunc"
	"github.com/unixpickle/num-analysis/linalg"
	"github.com/unixpickle/serializer"
	"github.com/unixpickle/sgd"
	"github.com/unixpickle/weakai/neuralnet"
)

func init() {
	var c ConvEmbedder
	serializer.RegisterTypedDeserializer(c.SerializerType(), DeserializeConvEmbedder)
}

// EmbedderConfig describes the architecture of a
// ConvEmbedder.
type EmbedderConfig struct {
	// InputSize is the width and height of input tensors.
	InputSize int

	// Filters1 and Filters2 are the filter counts of the
	// two convolutional layers.
	Filters1 int
	Filters2 int

	// KernelSize is the width and height of every filter.
	KernelSize int

	// Hidden is the size of the hidden dense layer.
	Hidden int

	// EmbedDim is the length of the output embedding.
	EmbedDim int
}

// DefaultEmbedderConfig returns the configuration for
// 128x128 RGB inputs and 128-dimensional embeddings.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		InputSize:  DefaultResizeSize,
		Filters1:   32,
		Filters2:   64,
		KernelSize: 5,
		Hidden:     256,
		EmbedDim:   128,
	}
}

// Validate checks that the configuration describes a
// network whose layers fit together.
func (e EmbedderConfig) Validate() error {
	if e.InputSize <= 0 || e.Filters1 <= 0 || e.Filters2 <= 0 || e.KernelSize <= 0 ||
		e.Hidden <= 0 || e.EmbedDim <= 0 {
		return errors.New("embedder config: all sizes must be positive")
	}
	size := (e.InputSize-e.KernelSize+1)/2 - e.KernelSize + 1
	if size < 2 {
		return fmt.Errorf("embedder config: input size %d too small for kernel size %d",
			e.InputSize, e.KernelSize)
	}
	return nil
}

// ConvEmbedder is a Model which embeds images with a small
// convolutional network:
//
//	conv -> ReLU -> max-pool -> conv -> ReLU -> max-pool ->
//	dense -> ReLU -> dense
type ConvEmbedder struct {
	config   EmbedderConfig
	network  neuralnet.Network
	gradient autofunc.Gradient
}

// NewConvEmbedder creates a randomly initialized
// ConvEmbedder.
func NewConvEmbedder(config EmbedderConfig) (*ConvEmbedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	convLayer1 := &neuralnet.ConvLayer{
		FilterCount:  config.Filters1,
		FilterWidth:  config.KernelSize,
		FilterHeight: config.KernelSize,
		Stride:       1,

		InputWidth:  config.InputSize,
		InputHeight: config.InputSize,
		InputDepth:  3,
	}
	poolingLayer1 := &neuralnet.MaxPoolingLayer{
		XSpan:       2,
		YSpan:       2,
		InputWidth:  convLayer1.OutputWidth(),
		InputHeight: convLayer1.OutputHeight(),
		InputDepth:  convLayer1.FilterCount,
	}
	convLayer2 := &neuralnet.ConvLayer{
		FilterCount:  config.Filters2,
		FilterWidth:  config.KernelSize,
		FilterHeight: config.KernelSize,
		Stride:       1,

		InputWidth:  poolingLayer1.OutputWidth(),
		InputHeight: poolingLayer1.OutputHeight(),
		InputDepth:  convLayer1.FilterCount,
	}
	poolingLayer2 := &neuralnet.MaxPoolingLayer{
		XSpan:       2,
		YSpan:       2,
		InputWidth:  convLayer2.OutputWidth(),
		InputHeight: convLayer2.OutputHeight(),
		InputDepth:  convLayer2.FilterCount,
	}
	denseLayer1 := &neuralnet.DenseLayer{
		InputCount: poolingLayer2.OutputWidth() * poolingLayer2.OutputHeight() *
			convLayer2.FilterCount,
		OutputCount: config.Hidden,
	}
	denseLayer2 := &neuralnet.DenseLayer{
		InputCount:  denseLayer1.OutputCount,
		OutputCount: config.EmbedDim,
	}
	network := neuralnet.Network{
		convLayer1,
		&neuralnet.ReLU{},
		poolingLayer1,
		convLayer2,
		&neuralnet.ReLU{},
		poolingLayer2,
		denseLayer1,
		&neuralnet.ReLU{},
		denseLayer2,
	}
	network.Randomize()
	return &ConvEmbedder{config: config, network: network}, nil
}

// DeserializeConvEmbedder deserializes a ConvEmbedder.
func DeserializeConvEmbedder(d []byte) (*ConvEmbedder, error) {
	slice, err := serializer.DeserializeSlice(d)
	if err != nil {
		return nil, err
	}
	if len(slice) != 7 {
		return nil, errors.New("invalid ConvEmbedder slice")
	}
	var sizes [6]int
	for i := range sizes {
		size, ok := slice[i].(serializer.Int)
		if !ok {
			return nil, errors.New("invalid ConvEmbedder slice")
		}
		sizes[i] = int(size)
	}
	network, ok := slice[6].(neuralnet.Network)
	if !ok {
		return nil, errors.New("invalid ConvEmbedder slice")
	}
	return &ConvEmbedder{
		config: EmbedderConfig{
			InputSize:  sizes[0],
			Filters1:   sizes[1],
			Filters2:   sizes[2],
			KernelSize: sizes[3],
			Hidden:     sizes[4],
			EmbedDim:   sizes[5],
		},
		network: network,
	}, nil
}

// LoadConvEmbedder reads a ConvEmbedder from a file
// written by Save.
func LoadConvEmbedder(path string) (*ConvEmbedder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := serializer.DeserializeWithType(data)
	if err != nil {
		return nil, err
	}
	res, ok := obj.(*ConvEmbedder)
	if !ok {
		return nil, fmt.Errorf("load embedder: unexpected type %T", obj)
	}
	return res, nil
}

// Config returns the architecture of the embedder.
func (c *ConvEmbedder) Config() EmbedderConfig {
	return c.config
}

// Embed applies the network to a tensor.
// It panics if the tensor does not have the configured
// input shape.
func (c *ConvEmbedder) Embed(t *neuralnet.Tensor3) Embedding {
	if t.Width != c.config.InputSize || t.Height != c.config.InputSize || t.Depth != 3 {
		panic(fmt.Sprintf("embed: expected %dx%dx3 tensor, got %dx%dx%d",
			c.config.InputSize, c.config.InputSize, t.Width, t.Height, t.Depth))
	}
	out := c.network.Apply(&autofunc.Variable{Vector: t.Data})
	return &convEmbedding{embedder: c, result: out}
}

// Save writes the embedder to a file.
func (c *ConvEmbedder) Save(path string) error {
	data, err := serializer.SerializeWithType(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SerializerType returns the unique ID used to serialize
// a ConvEmbedder with the serializer package.
func (c *ConvEmbedder) SerializerType() string {
	return "github.com/unixpickle/tripface.ConvEmbedder"
}

// Serialize serializes the ConvEmbedder.
func (c *ConvEmbedder) Serialize() ([]byte, error) {
	slice := []serializer.Serializer{
		serializer.Int(c.config.InputSize),
		serializer.Int(c.config.Filters1),
		serializer.Int(c.config.Filters2),
		serializer.Int(c.config.KernelSize),
		serializer.Int(c.config.Hidden),
		serializer.Int(c.config.EmbedDim),
		c.network,
	}
	return serializer.SerializeSlice(slice)
}

func (c *ConvEmbedder) grad() autofunc.Gradient {
	if c.gradient == nil {
		c.gradient = autofunc.NewGradient(c.network.Parameters())
	}
	return c.gradient
}

type convEmbedding struct {
	embedder *ConvEmbedder
	result   autofunc.Result
}

func (c *convEmbedding) Vector() linalg.Vector {
	return c.result.Output()
}

func (c *convEmbedding) Backward(upstream linalg.Vector) {
	// PropagateGradient may overwrite upstream.
	u := make(linalg.Vector, len(upstream))
	copy(u, upstream)
	c.result.PropagateGradient(u, c.embedder.grad())
}

// Adam is an Optimizer which applies Adam updates to a
// ConvEmbedder's parameters.
type Adam struct {
	StepSize float64

	embedder *ConvEmbedder
	adam     *sgd.Adam
}

// NewAdam creates an Adam optimizer for the embedder.
func NewAdam(e *ConvEmbedder, stepSize float64) *Adam {
	return &Adam{
		StepSize: stepSize,
		embedder: e,
		adam:     &sgd.Adam{Gradienter: accumulatedGradienter{e}},
	}
}

// ZeroGradients clears the accumulated gradient.
func (a *Adam) ZeroGradients() {
	for _, vec := range a.embedder.grad() {
		for i := range vec {
			vec[i] = 0
		}
	}
}

// Step moves the parameters against the Adam-adjusted
// accumulated gradient.
func (a *Adam) Step() {
	update := a.adam.Gradient(sgd.SliceSampleSet{})
	for variable, delta := range update {
		for i, d := range delta {
			variable.Vector[i] -= a.StepSize * d
		}
	}
}

// accumulatedGradienter feeds the gradient accumulated by
// Embedding.Backward into sgd.Adam.
type accumulatedGradienter struct {
	embedder *ConvEmbedder
}

func (a accumulatedGradienter) Gradient(s sgd.SampleSet) autofunc.Gradient {
	res := autofunc.Gradient{}
	for variable, vec := range a.embedder.grad() {
		res[variable] = append(linalg.Vector{}, vec...)
	}
	return res
}
