package tripface

import (
	"github.com/unixpickle/num-analysis/linalg"
	"github.com/unixpickle/weakai/neuralnet"
)

// A Model maps image tensors to fixed-length embeddings.
type Model interface {
	Embed(t *neuralnet.Tensor3) Embedding
}

// An Embedding is the output of a Model for one input.
type Embedding interface {
	Vector() linalg.Vector

	// Backward accumulates the gradient of the model's
	// parameters, given the gradient of some objective
	// with respect to Vector().
	Backward(upstream linalg.Vector)
}

// An Optimizer updates a Model's parameters from the
// gradients accumulated by Embedding.Backward.
type Optimizer interface {
	ZeroGradients()
	Step()
}

// TrainingModeSetter is implemented by models which behave
// differently while training.
type TrainingModeSetter interface {
	SetTraining(training bool)
}
