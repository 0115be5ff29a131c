package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newClassesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the classes of the stored vocabulary",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			rt, err := opts.open(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, rt.Close()) }()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			// The SQLite store keeps class summaries, so no vocabulary needs
			// to be rebuilt to list them.
			if rt.sqlite != nil {
				classes, err := rt.sqlite.Classes().List(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "NAME\tEXEMPLARS\tUPDATED")
				for _, c := range classes {
					fmt.Fprintf(w, "%s\t%d\t%s\n", c.Name, c.Exemplars, c.UpdatedAt.Format(time.RFC3339))
				}
				return nil
			}

			tracer, err := rt.tracer(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "NAME\tEXEMPLARS\tSPREAD")
			for _, c := range tracer.Classes() {
				fmt.Fprintf(w, "%s\t%d\t%.3f\n", c.Name, c.Exemplars, c.Spread)
			}
			return nil
		},
	}
}
