package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/tripface"
)

var sampleOpts struct {
	tripface.Flags

	Count int
	Load  bool
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print randomly sampled triplets",
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, err := sampleOpts.Samples(sampleOpts.Rand())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i := 0; i < sampleOpts.Count; i++ {
			refs, err := samples.SampleRefs(i)
			if err != nil {
				return err
			}
			if sampleOpts.Load {
				if _, err := samples.Load(refs); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "%s\t%s\t%s\n", refs.Anchor.Path, refs.Positive.Path, refs.Negative.Path)
		}
		return nil
	},
}

func init() {
	sampleOpts.AddToSet(sampleCmd.Flags())
	sampleCmd.Flags().IntVarP(&sampleOpts.Count, "count", "n", 10, "number of triplets")
	sampleCmd.Flags().BoolVar(&sampleOpts.Load, "load", false, "also decode and transform every image")
	rootCmd.AddCommand(sampleCmd)
}
