package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/internal/testplugin"
	"github.com/justyntemme/plugkit/pkg/framework/debug"
	"github.com/justyntemme/plugkit/pkg/framework/state"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// app carries what every subcommand needs once the root has run.
type app struct {
	v        *viper.Viper
	settings *Settings
	log      *zap.Logger
	config   string
}

func newRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	setDefaults(a.v)

	root := &cobra.Command{
		Use:           "plughost",
		Short:         "Development host for plugkit plugins",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.config, "config", "", "YAML config file")
	pf.Float64("samplerate", 0, "Sample rate in Hz (0 uses the input file's rate)")
	pf.Int("blocksize", 512, "Maximum block size in samples")
	pf.Int("channels", 0, "Channel count (0 uses the plugin's default layout)")
	pf.Int("queue-capacity", plugin.DefaultConfig().QueueCapacity, "Events the control thread can queue ahead of the audio thread")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Write logs to this file instead of stderr")
	if err := bindFlags(a.v, root, map[string]string{
		"samplerate":     "samplerate",
		"blocksize":      "blocksize",
		"channels":       "channels",
		"queue-capacity": "queue.capacity",
		"log-level":      "log.level",
		"log-file":       "log.file",
	}); err != nil {
		panic(err)
	}

	root.AddCommand(
		renderCommand(a),
		playCommand(a),
		paramsCommand(a),
		sessionCommand(a),
	)
	return root
}

func (a *app) setup() error {
	s, err := loadSettings(a.v, a.config)
	if err != nil {
		return err
	}
	a.settings = s

	log, err := debug.NewLogger(s.Log)
	if err != nil {
		return err
	}
	debug.SetLogger(log)
	a.log = log.Named("plughost")
	return nil
}

// newInstance wraps a fresh plugin instance, restoring the session at path
// when one is given.
func (a *app) newInstance(session string) (*plugin.Wrapper, error) {
	w, err := plugin.NewWrapper(testplugin.New(), a.settings.WrapperConfig())
	if err != nil {
		return nil, err
	}
	if session == "" {
		return w, nil
	}

	doc, rep, err := state.LoadFile(session)
	if err != nil {
		return nil, err
	}
	loaded, err := w.Restore(doc)
	rep.Merge(loaded)
	if err != nil {
		return nil, err
	}
	a.report(session, rep)
	return w, nil
}

func (a *app) report(path string, rep state.LoadReport) {
	fields := []zap.Field{
		zap.String("path", path),
		zap.Int("applied", rep.Applied),
		zap.Strings("unknown", rep.Unknown),
		zap.Strings("invalid", rep.Invalid),
	}
	if err := rep.Err(); err != nil {
		a.log.Warn("session loaded with problems", append(fields, zap.Error(err))...)
		return
	}
	a.log.Info("session loaded", fields...)
}

func (a *app) printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
