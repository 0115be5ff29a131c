package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/septagon/TRACE/internal/recording"
)

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify recording...",
		Short: "Classify recorded takes against the vocabulary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.Close()) }()

			tracer, err := rt.tracer(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range args {
				rec, err := recording.ReadFile(path)
				if err != nil {
					return err
				}
				t, err := rec.Trajectory(rt.cfg.Recognizer.SegmentLength)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				res, err := tracer.Classify(t)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				switch {
				case res.Recognized:
					fmt.Fprintf(out, "%s: %s (cost %.3f)\n", path, res.Name, res.Cost)
				case res.Candidate != "":
					fmt.Fprintf(out, "%s: not recognized (closest %s, cost %.3f)\n", path, res.Candidate, res.Cost)
				default:
					fmt.Fprintf(out, "%s: not recognized (empty vocabulary)\n", path)
				}
			}
			return nil
		},
	}
}
