package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-diecut/internal/version"
	"github.com/goliatone/go-diecut/pkg/config"
	"github.com/goliatone/go-diecut/pkg/logging"
	"github.com/goliatone/go-diecut/pkg/orchestrator"
)

// app carries the seams commands are built on.
type app struct {
	verbosity    int
	setupLogging func(verbosity int, errOut io.Writer)
	loadUser     func() (config.UserConfig, error)
	options      []orchestrator.Option
}

// NewRootCmd builds the diecut command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{
		setupLogging: func(verbosity int, _ io.Writer) { logging.SetupLogger(verbosity) },
		loadUser:     func() (config.UserConfig, error) { return config.LoadUser() },
	})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "diecut",
		Short: "A language-agnostic project template generator",
		Long: `diecut generates projects from templates and keeps them up to date.

Templates are directories with a diecut.toml and a template/ tree, either local
or fetched from git (https://, git@, ssh:// or gh:/gl:/bb:/sr: abbreviations).`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setupLogging(a.verbosity, cmd.ErrOrStderr())
			logger := logging.GetLogger("cli")
			logger.Debug().Str("command", cmd.Name()).Msg("command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(newNewCmd(a))
	rootCmd.AddCommand(newUpdateCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "diecut version %s\n", version.Version)
			fmt.Fprintf(out, "  commit: %s\n", version.Commit)
			fmt.Fprintf(out, "  built:  %s\n", version.Date)
		},
	}
}

// newOrchestrator builds an orchestrator with the user config applied first so
// injected options win.
func (a *app) newOrchestrator() (*orchestrator.Orchestrator, error) {
	user, err := a.loadUser()
	if err != nil {
		return nil, err
	}
	options := append([]orchestrator.Option{orchestrator.WithUserConfig(user)}, a.options...)
	return orchestrator.New(options...), nil
}
