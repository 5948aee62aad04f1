package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/unixpickle/tripface"
)

var verifyOpts struct {
	tripface.Flags

	Threshold float64
}

var verifyCmd = &cobra.Command{
	Use:   "verify IMAGE1 IMAGE2",
	Short: "Decide whether two images show the same identity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		embedder, err := verifyOpts.LoadEmbedder()
		if err != nil {
			return err
		}
		img1, err := tripface.LoadImage(args[0])
		if err != nil {
			return err
		}
		img2, err := tripface.LoadImage(args[1])
		if err != nil {
			return err
		}
		samer := &tripface.EmbedSamer{
			Model:     embedder,
			Transform: &tripface.Resize{Width: verifyOpts.ImageSize, Height: verifyOpts.ImageSize},
			Threshold: verifyOpts.Threshold,
		}
		dist, err := samer.Distance(img1, img2)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Distance: %.4f\nSame: %v\n", dist, dist <= samer.Threshold)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyOpts.NetPath, "net", "", "path to an embedding network file")
	verifyCmd.Flags().IntVar(&verifyOpts.ImageSize, "size", tripface.DefaultResizeSize, "width and height images are resized to")
	verifyCmd.Flags().Float64VarP(&verifyOpts.Threshold, "threshold", "t", 1.0, "largest embedding distance considered a match")
	rootCmd.AddCommand(verifyCmd)
}
