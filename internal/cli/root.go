// Package cli implements the peerreviewctl command-line interface.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/noah-isme/peer-review-dashboard/internal/bootstrap"
	"github.com/noah-isme/peer-review-dashboard/internal/config"
)

// Loader builds the wired container for a command invocation.
type Loader func(logger zerolog.Logger) (*bootstrap.Container, error)

// Options customises the root command. Zero values use the process environment.
type Options struct {
	Loader Loader
	Fs     afero.Fs
}

type rootState struct {
	opts     Options
	verbose  bool
	logLevel string
}

// NewRootCommand returns the peerreviewctl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Loader == nil {
		opts.Loader = loadFromEnvironment
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	state := &rootState{opts: opts}

	root := &cobra.Command{
		Use:   "peerreviewctl",
		Short: "Inspect and sync the peer review dashboard snapshot",
		Long: `peerreviewctl works against the same snapshot store and backend API as the
dashboard service. It can print the cached platform state, force a refresh from the
backend, and render the PDF reports offered by the dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "Log sync activity to stderr")
	root.PersistentFlags().StringVar(&state.logLevel, "log-level", "info", "Log level used with --verbose")

	root.AddCommand(newStateCommand(state))
	root.AddCommand(newRefreshCommand(state))
	root.AddCommand(newExportCommand(state))

	return root
}

// Execute runs the command tree against the process environment.
func Execute() error {
	return NewRootCommand(Options{}).Execute()
}

func (s *rootState) logger(cmd *cobra.Command) zerolog.Logger {
	if !s.verbose {
		return zerolog.Nop()
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).With().Timestamp().Logger()
	if level, err := zerolog.ParseLevel(s.logLevel); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

func (s *rootState) container(cmd *cobra.Command) (*bootstrap.Container, error) {
	return s.opts.Loader(s.logger(cmd))
}

func loadFromEnvironment(logger zerolog.Logger) (*bootstrap.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, logger, bootstrap.Options{})
}
