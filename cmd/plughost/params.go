package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plugkit/pkg/framework/param"
)

func paramsCommand(a *app) *cobra.Command {
	var session string
	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the plugin's parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.newInstance(session)
			if err != nil {
				return err
			}
			defer w.Destroy()

			info := w.Info()
			a.printf(cmd, "%s\nclass id %s, latency %d samples\n\n", info, info.UID(), w.LatencySamples())

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tVALUE\tDEFAULT\tNORMALIZED\tSTEPS")
			w.Parameters().Each(func(p *param.Parameter) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.4f\t%s\n",
					p.Key, p.Name,
					p.FormatValue(p.Normalized()),
					p.FormatValue(p.DefaultNormalized()),
					p.Normalized(),
					steps(p.Range.Steps()),
				)
			})
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session file to load first")
	return cmd
}

func steps(n int32) string {
	if n == 0 {
		return "continuous"
	}
	return fmt.Sprint(n)
}
