package tripface

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/unixpickle/num-analysis/linalg"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize   = 32
	DefaultLogInterval = 100
)

// Trainer trains a Model on triplets from a TripletSource.
type Trainer struct {
	Samples   TripletSource
	Model     Model
	Optimizer Optimizer
	Loss      TripletLoss

	// Epochs is the number of passes over the declared
	// length of Samples.
	Epochs int

	// BatchSize is the number of triplets per step.
	// If this is 0, DefaultBatchSize is used.
	BatchSize int

	// Workers bounds the number of triplets loaded
	// concurrently. Values below 1 mean 1.
	Workers int

	// LogInterval is the number of steps between progress
	// log lines. If this is 0, DefaultLogInterval is used.
	LogInterval int

	// Rand shuffles batch indices.
	// If this is nil, a time-seeded source is used.
	Rand Rand

	// Log receives progress lines.
	// If this is nil, the standard logrus logger is used.
	Log logrus.FieldLogger

	// Progress enables a progress bar on stderr for each
	// epoch.
	Progress bool
}

// TrainStats summarizes a training run.
type TrainStats struct {
	Epochs   int
	Steps    int
	LastLoss float64

	// EpochLoss is the mean batch loss of every epoch.
	EpochLoss []float64
}

// Train runs every epoch and returns the resulting stats.
//
// Any sampling or loading error aborts training and is
// returned wrapped with the epoch and step. Cancelling
// ctx stops training before the next step.
func (t *Trainer) Train(ctx context.Context) (*TrainStats, error) {
	if t.Samples == nil || t.Model == nil || t.Optimizer == nil {
		return nil, errors.New("train: samples, model, and optimizer are required")
	}
	if t.Samples.Len() == 0 {
		return nil, errors.New("train: empty sample source")
	}
	logger := t.Log
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := t.Rand
	if r == nil {
		r = NewTimeRand()
	}
	batchSize := t.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	logInterval := t.LogInterval
	if logInterval <= 0 {
		logInterval = DefaultLogInterval
	}

	length := t.Samples.Len()
	numSteps := (length + batchSize - 1) / batchSize
	stats := &TrainStats{}

	for epoch := 0; epoch < t.Epochs; epoch++ {
		var bar *progressbar.ProgressBar
		if t.Progress {
			bar = progressbar.NewOptions(numSteps,
				progressbar.OptionSetDescription(fmt.Sprintf("epoch %d/%d", epoch+1, t.Epochs)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}

		perm := r.Perm(length)
		var lossSum float64
		for step := 0; step < numSteps; step++ {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			end := (step + 1) * batchSize
			if end > length {
				end = length
			}
			loss, err := t.step(ctx, perm[step*batchSize:end])
			if err != nil {
				return stats, fmt.Errorf("epoch %d step %d: %w", epoch+1, step+1, err)
			}
			lossSum += loss
			stats.Steps++
			stats.LastLoss = loss

			if (step+1)%logInterval == 0 {
				logger.WithFields(logrus.Fields{
					"epoch": fmt.Sprintf("%d/%d", epoch+1, t.Epochs),
					"step":  fmt.Sprintf("%d/%d", step+1, numSteps),
					"loss":  fmt.Sprintf("%.4f", loss),
				}).Info("training")
			}
			if bar != nil {
				bar.Add(1)
			}
		}
		if bar != nil {
			bar.Finish()
		}

		stats.Epochs++
		stats.EpochLoss = append(stats.EpochLoss, lossSum/float64(numSteps))
		logger.WithFields(logrus.Fields{
			"epoch":     epoch + 1,
			"mean_loss": fmt.Sprintf("%.4f", lossSum/float64(numSteps)),
		}).Debug("epoch done")
	}
	return stats, nil
}

// step performs one optimizer step on the batch and
// returns the mean batch loss.
func (t *Trainer) step(ctx context.Context, indices []int) (float64, error) {
	batch, err := t.loadBatch(ctx, indices)
	if err != nil {
		return 0, err
	}

	if m, ok := t.Model.(TrainingModeSetter); ok {
		m.SetTraining(true)
	}
	t.Optimizer.ZeroGradients()

	scale := 1 / float64(len(batch))
	var total float64
	for _, triplet := range batch {
		a := t.Model.Embed(triplet.Anchor)
		p := t.Model.Embed(triplet.Positive)
		n := t.Model.Embed(triplet.Negative)
		loss, da, dp, dn := t.Loss.Gradient(a.Vector(), p.Vector(), n.Vector())
		total += loss
		if loss == 0 {
			continue
		}
		a.Backward(scaleVec(da, scale))
		p.Backward(scaleVec(dp, scale))
		n.Backward(scaleVec(dn, scale))
	}
	t.Optimizer.Step()

	return total * scale, nil
}

// loadBatch draws the triplet references sequentially and
// then loads the images with up to t.Workers goroutines.
func (t *Trainer) loadBatch(ctx context.Context, indices []int) ([]*Triplet, error) {
	refs := make([]TripletRefs, len(indices))
	for i, idx := range indices {
		var err error
		refs[i], err = t.Samples.SampleRefs(idx)
		if err != nil {
			return nil, err
		}
	}

	batch := make([]*Triplet, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	workers := t.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			triplet, err := t.Samples.Load(refs[i])
			if err != nil {
				return err
			}
			batch[i] = triplet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

func scaleVec(v linalg.Vector, s float64) linalg.Vector {
	for i := range v {
		v[i] *= s
	}
	return v
}
