package main

import (
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/unixpickle/tripface"
)

var trainOpts struct {
	tripface.Flags

	BatchSize   int
	Epochs      int
	StepSize    float64
	Workers     int
	LogInterval int
	Progress    bool
	OutPath     string
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train an embedding network on a directory of identities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTrain(cmd)
	},
}

func init() {
	trainOpts.AddToSet(trainCmd.Flags())
	trainCmd.Flags().IntVarP(&trainOpts.BatchSize, "batch", "b", tripface.DefaultBatchSize, "triplets per step")
	trainCmd.Flags().IntVarP(&trainOpts.Epochs, "epochs", "e", 100, "number of epochs")
	trainCmd.Flags().Float64Var(&trainOpts.StepSize, "lr", 0.001, "Adam step size")
	trainCmd.Flags().IntVarP(&trainOpts.Workers, "workers", "w", 1, "concurrent image loaders")
	trainCmd.Flags().IntVar(&trainOpts.LogInterval, "log-every", tripface.DefaultLogInterval, "steps between progress logs")
	trainCmd.Flags().BoolVar(&trainOpts.Progress, "progress", false, "show a progress bar per epoch")
	trainCmd.Flags().StringVarP(&trainOpts.OutPath, "out", "o", "", "where to save the network (default: --net)")
	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command) error {
	opts := &trainOpts
	outPath := opts.OutPath
	if outPath == "" {
		outPath = opts.NetPath
	}
	if outPath == "" {
		return errors.New("one of --out or --net is required")
	}

	r := opts.Rand()
	samples, err := opts.Samples(r)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"identities": len(samples.Identities()),
		"images":     samples.Len(),
	}).Info("loaded dataset")

	embedder, err := loadOrCreateEmbedder(&opts.Flags)
	if err != nil {
		return err
	}

	trainer := &tripface.Trainer{
		Samples:     samples,
		Model:       embedder,
		Optimizer:   tripface.NewAdam(embedder, opts.StepSize),
		Loss:        opts.Loss(),
		Epochs:      opts.Epochs,
		BatchSize:   opts.BatchSize,
		Workers:     opts.Workers,
		LogInterval: opts.LogInterval,
		Rand:        r,
		Log:         logrus.StandardLogger(),
		Progress:    opts.Progress,
	}
	stats, trainErr := trainer.Train(cmd.Context())

	// A run stopped by a signal still saves what it learned.
	if trainErr != nil && (stats == nil || cmd.Context().Err() == nil) {
		return trainErr
	}
	if err := embedder.Save(outPath); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"path":      outPath,
		"epochs":    stats.Epochs,
		"steps":     stats.Steps,
		"last_loss": stats.LastLoss,
	}).Info("saved network")
	return trainErr
}

func loadOrCreateEmbedder(f *tripface.Flags) (*tripface.ConvEmbedder, error) {
	if f.NetPath != "" {
		if _, err := os.Stat(f.NetPath); err == nil {
			embedder, err := f.LoadEmbedder()
			if err != nil {
				return nil, err
			}
			logrus.WithField("path", f.NetPath).Info("loaded network")
			return embedder, nil
		}
	}
	config := tripface.DefaultEmbedderConfig()
	config.InputSize = f.ImageSize
	logrus.Info("created new network")
	return tripface.NewConvEmbedder(config)
}
