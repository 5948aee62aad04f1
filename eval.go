package tripface

import (
	"errors"
	"image"
)

// EvalResult summarizes how well a Model separates
// sampled triplets.
type EvalResult struct {
	Count int

	// Accuracy is the fraction of triplets whose positive
	// is closer to the anchor than the negative.
	Accuracy float64

	MeanLoss float64

	// MeanPosDist and MeanNegDist are the average
	// anchor-positive and anchor-negative distances.
	MeanPosDist float64
	MeanNegDist float64
}

// Evaluate samples count triplets and measures the model
// on them.
func Evaluate(m Model, s TripletSource, loss TripletLoss, count int) (*EvalResult, error) {
	if count <= 0 {
		return nil, errors.New("evaluate: count must be positive")
	}
	if m, ok := m.(TrainingModeSetter); ok {
		m.SetTraining(false)
	}
	res := &EvalResult{Count: count}
	var correct int
	for i := 0; i < count; i++ {
		refs, err := s.SampleRefs(i)
		if err != nil {
			return nil, err
		}
		triplet, err := s.Load(refs)
		if err != nil {
			return nil, err
		}
		a := m.Embed(triplet.Anchor).Vector()
		p := m.Embed(triplet.Positive).Vector()
		n := m.Embed(triplet.Negative).Vector()
		posDist := loss.Distance(a, p)
		negDist := loss.Distance(a, n)
		if posDist < negDist {
			correct++
		}
		res.MeanPosDist += posDist
		res.MeanNegDist += negDist
		res.MeanLoss += loss.Loss(a, p, n)
	}
	res.Accuracy = float64(correct) / float64(count)
	res.MeanPosDist /= float64(count)
	res.MeanNegDist /= float64(count)
	res.MeanLoss /= float64(count)
	return res, nil
}

// EmbedSamer decides whether two images show the same
// identity by comparing the distance between their
// embeddings to a threshold.
type EmbedSamer struct {
	Model     Model
	Transform Transform

	// Threshold is the largest distance considered a
	// match.
	Threshold float64
}

// Same embeds both images and compares their distance to
// the threshold.
// Images that cannot be transformed never match.
func (e *EmbedSamer) Same(img1, img2 image.Image) bool {
	dist, err := e.Distance(img1, img2)
	if err != nil {
		return false
	}
	return dist <= e.Threshold
}

// Distance computes the Euclidean distance between the
// embeddings of two images.
func (e *EmbedSamer) Distance(img1, img2 image.Image) (float64, error) {
	t1, err := e.Transform.Apply(img1)
	if err != nil {
		return 0, err
	}
	t2, err := e.Transform.Apply(img2)
	if err != nil {
		return 0, err
	}
	v1 := e.Model.Embed(t1).Vector()
	v2 := e.Model.Embed(t2).Vector()
	loss := TripletLoss{Eps: -1}
	return loss.Distance(v1, v2), nil
}
