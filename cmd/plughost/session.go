package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plugkit/pkg/framework/state"
)

func sessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Save and load plugin sessions",
	}
	cmd.AddCommand(sessionSaveCommand(a), sessionLoadCommand(a))
	return cmd
}

func sessionSaveCommand(a *app) *cobra.Command {
	var (
		from string
		sets []string
	)
	cmd := &cobra.Command{
		Use:   "save OUTPUT",
		Short: "Write a session file",
		Long: "Write the plugin's state to a session file. The extension picks the format: " +
			".yaml or .yml for YAML, .bin or .state for binary, JSON otherwise. Values are given as key=value in " +
			"the parameter's display units, for example gain=-6dB or mode=mono.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newInstance(from)
			if err != nil {
				return err
			}
			defer w.Destroy()

			for _, kv := range sets {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--set %q: want key=value", kv)
				}
				p, ok := w.Parameters().Lookup(strings.TrimSpace(key))
				if !ok {
					return fmt.Errorf("--set %q: unknown parameter %q", kv, key)
				}
				normalized, err := p.ParseValue(strings.TrimSpace(value))
				if err != nil {
					return fmt.Errorf("--set %q: %w", kv, err)
				}
				if err := w.SetParameter(p.Key, normalized); err != nil {
					return err
				}
			}

			doc, err := w.Snapshot()
			if err != nil {
				return err
			}
			if err := state.SaveFile(args[0], doc); err != nil {
				return err
			}
			a.printf(cmd, "saved %d parameters to %s (%s)\n", len(doc.Params), args[0], state.FormatFor(args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start from this session instead of the defaults")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Set a parameter, as key=value (repeatable)")
	return cmd
}

func sessionLoadCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load INPUT",
		Short: "Load a session file and show the resulting values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, rep, err := state.LoadFile(args[0])
			if err != nil {
				return err
			}
			w, err := a.newInstance("")
			if err != nil {
				return err
			}
			defer w.Destroy()

			loaded, err := w.Restore(doc)
			if err != nil {
				return err
			}
			rep.Merge(loaded)

			a.printf(cmd, "%s: version %d, %d applied\n", args[0], rep.Version, rep.Applied)
			for _, key := range rep.Unknown {
				a.printf(cmd, "  ignored unknown parameter %s\n", key)
			}
			for _, key := range rep.Invalid {
				a.printf(cmd, "  reset invalid parameter %s\n", key)
			}
			for _, e := range rep.Errors {
				a.printf(cmd, "  %v\n", e)
			}
			for _, kv := range doc.Params {
				if p, ok := w.Parameters().Lookup(kv.Key); ok {
					a.printf(cmd, "  %s = %s\n", p.Key, p.FormatValue(p.Normalized()))
				}
			}
			return nil
		},
	}
}
