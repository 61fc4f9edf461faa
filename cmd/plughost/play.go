package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/plugkit/internal/host"
	"github.com/justyntemme/plugkit/pkg/framework/metrics"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

func playCommand(a *app) *cobra.Command {
	var (
		automation string
		session    string
		loop       bool
		latency    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play INPUT.wav",
		Short: "Play a WAV file through the plugin in real time",
		Long: "Play a WAV file through the plugin on the default output device. With " +
			"session.watch set, edits to that session file are applied while playing. With " +
			"metrics.listen set, instance metrics are served for Prometheus.",
		Args: cobra.ExactArgs(1),
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
			p := host.NewPlayer(w, in, tl, host.PlayerOptions{
				SampleRate: sr,
				BlockSize:  s.BlockSize,
				Layout:     s.Layout(),
				Latency:    latency,
				Loop:       loop,
				Logger:     a.log,
			})

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				// The other tasks run for as long as playback does.
				defer cancel()
				return p.Run(gctx)
			})
			if s.Metrics.Listen != "" {
				g.Go(func() error {
					return a.serveMetrics(gctx, s.Metrics.Listen, w)
				})
			}
			if s.Session.Watch != "" {
				g.Go(func() error {
					return host.Watch(gctx, s.Session.Watch, s.Session.Debounce, a.log, func(data []byte) {
						rep, err := host.ApplyLive(w, data)
						if err != nil {
							a.log.Warn("session update rejected", zap.Error(err))
							return
						}
						a.report(s.Session.Watch, rep)
					})
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			st := p.Stats()
			a.printf(cmd, "played %s: %d underruns, %d overruns\n", args[0], st.Underruns, st.Overruns)
			return nil
		},
	}
	cmd.Flags().StringVarP(&automation, "automation", "a", "", "YAML automation script")
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session file to load before playing")
	cmd.Flags().BoolVar(&loop, "loop", false, "Loop the input until interrupted")
	cmd.Flags().DurationVar(&latency, "latency", host.DefaultLatency, "Write-ahead latency")
	cmd.Flags().String("metrics-listen", "", "Serve Prometheus metrics on this address")
	cmd.Flags().String("watch", "", "Session file to apply live when it changes")
	if err := bindFlags(a.v, cmd, map[string]string{
		"metrics-listen": "metrics.listen",
		"watch":          "session.watch",
	}); err != nil {
		panic(err)
	}
	return cmd
}

// serveMetrics serves the instance's metrics until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string, w *plugin.Wrapper) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	c, err := metrics.Register(reg)
	if err != nil {
		return err
	}
	c.Add("main", w)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("serving metrics", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func loadTimeline(w *plugin.Wrapper, path string, sampleRate float64) (host.Timeline, error) {
	if path == "" {
		return nil, nil
	}
	auto, err := host.LoadAutomation(path)
	if err != nil {
		return nil, err
	}
	return auto.Compile(w.Parameters(), sampleRate)
}
