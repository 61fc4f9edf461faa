package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/internal/host"
)

func renderCommand(a *app) *cobra.Command {
	var (
		automation string
		session    string
		bits       int
		maxTail    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "render INPUT.wav OUTPUT.wav",
		Short: "Process a WAV file offline",
		Long: "Render a WAV file through the plugin, applying an optional automation script and " +
			"session, and write the result including the plugin's tail.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := host.ReadWAV(args[0])
			if err != nil {
				return err
			}
			w, err := a.newInstance(session)
			if err != nil {
				return err
			}
			defer w.Destroy()

			s := a.settings
			sr := s.SampleRate
			if sr == 0 {
				sr = float64(in.SampleRate)
			}
			tl, err := loadTimeline(w, automation, sr)
			if err != nil {
				return err
			}

			res, err := host.Render(cmd.Context(), w, in, tl, host.Options{
				SampleRate: sr,
				BlockSize:  s.BlockSize,
				Layout:     s.Layout(),
				MaxTail:    maxTail,
				Logger:     a.log,
			})
			if err != nil {
				return err
			}
			if err := host.WriteWAV(args[1], res.Output, bits); err != nil {
				return err
			}

			a.log.Debug("process meter", zap.String("report", w.Meter().Report()))
			a.printf(cmd, "%s: %d frames, %d tail, %d blocks, peak load %.1f%%\n",
				args[1], res.Output.Frames(), res.Tail, res.Blocks, res.Meter.PeakLoad*100)
			for ch, r := range res.Analysis {
				a.printf(cmd, "  ch%d peak %.3f rms %.3f\n", ch, r.Peak, r.RMS)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&automation, "automation", "a", "", "YAML automation script")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session file to load before rendering")
	cmd.Flags().IntVar(&bits, "bits", 24, "Output bit depth (16, 24 or 32)")
	cmd.Flags().DurationVar(&maxTail, "max-tail", host.DefaultMaxTail, "Longest tail to render after the input (negative disables)")
	return cmd
}
