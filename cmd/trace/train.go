package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/septagon/TRACE/internal/recording"
)

func newTrainCmd(opts *options) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "train [flags] recording...",
		Short: "Add recorded takes to the vocabulary",
		Long: `Add recorded takes to the vocabulary and save it. Each take is added to
the class given by --label, or to the label stored in the recording.
A take that is already recognized as a different class is reported.`,
		Args: cobra.MinimumNArgs(1),
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
				name := label
				if name == "" {
					name = rec.Label
				}
				if name == "" {
					return fmt.Errorf("%s: %w", path, errNoLabel)
				}

				t, err := rec.Trajectory(rt.cfg.Recognizer.SegmentLength)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				res, err := tracer.Train(t, name)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}

				if res.Recognized && res.Name != name {
					fmt.Fprintf(out, "%s: added to %q (looks like %q, cost %.3f)\n", path, name, res.Name, res.Cost)
				} else {
					fmt.Fprintf(out, "%s: added to %q\n", path, name)
				}
			}

			return tracer.Save(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "class to add the takes to")
	return cmd
}

var errNoLabel = errors.New("no label given and the recording has none")
