package main

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/septagon/TRACE/internal/config"
	"github.com/septagon/TRACE/internal/direction"
)

func newAlphabetCmd(opts *options) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "alphabet",
		Short: "Print the direction alphabet new vocabularies are built with",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}

			dirs, err := direction.Generate(cfg.GestureOptions(nil).Directions)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !summary {
				for i, d := range dirs {
					fmt.Fprintf(out, "%3d % .6f % .6f % .6f\n", i, d.X, d.Y, d.Z)
				}
			}
			sep := direction.MinSeparation(dirs)
			fmt.Fprintf(out, "%d directions, minimum separation %.2f°\n", len(dirs), sep*180/math.Pi)
			return nil
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "print only the summary line")
	return cmd
}
