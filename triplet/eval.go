package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/tripface"
)

var evalOpts struct {
	tripface.Flags

	Count int
}

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure how well a network separates sampled triplets",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := evalOpts.Rand()
		samples, err := evalOpts.Samples(r)
		if err != nil {
			return err
		}
		embedder, err := evalOpts.LoadEmbedder()
		if err != nil {
			return err
		}
		res, err := tripface.Evaluate(embedder, samples, evalOpts.Loss(), evalOpts.Count)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Triplets:", res.Count)
		fmt.Fprintf(out, "Accuracy: %.4f\n", res.Accuracy)
		fmt.Fprintf(out, "Mean loss: %.4f\n", res.MeanLoss)
		fmt.Fprintf(out, "Mean positive distance: %.4f\n", res.MeanPosDist)
		fmt.Fprintf(out, "Mean negative distance: %.4f\n", res.MeanNegDist)
		return nil
	},
}

func init() {
	evalOpts.AddToSet(evalCmd.Flags())
	evalCmd.Flags().IntVarP(&evalOpts.Count, "count", "n", 100, "number of triplets to sample")
	rootCmd.AddCommand(evalCmd)
}
