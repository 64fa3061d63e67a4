package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/portal/internal/adapter"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// globals carries persistent flag values and the wired app to subcommands
type globals struct {
	configFile string
	output     string
	debug      bool

	cfg *adapter.Config
	app *app
}

// NewRootCmd creates the root Cobra command. Without a subcommand it runs the TUI.
func NewRootCmd(ver string) *cobra.Command {
	cmd, _ := newRootCmd(ver)
	return cmd
}

// Execute runs the CLI. Services are released even when a command fails.
func Execute(ctx context.Context, ver string) error {
	cmd, g := newRootCmd(ver)
	err := cmd.ExecuteContext(ctx)
	return errors.Join(err, g.teardown())
}

func newRootCmd(ver string) (*cobra.Command, *globals) {
	g := &globals{}

	cmd := &cobra.Command{
		Use:           "portal",
		Short:         "Browse the multiverse from your terminal",
		Long:          "portal: browse locations and characters, keep notes, search and generate stories",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setup(cmd, ver)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return g.teardown()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, g)
		},
	}

	cmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default ~/.config/portal/config.yaml)")
	cmd.PersistentFlags().StringVarP(&g.output, "output", "o", string(formatTable), "output format: table, json or yaml")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newLocationsCmd(g),
		newLocationCmd(g),
		newCharactersCmd(g),
		newCharacterCmd(g),
		newNotesCmd(g),
		newSearchCmd(g),
		newGenerateCmd(g),
		newHistoryCmd(g),
		newConfigCmd(g),
		newVersionCmd(ver),
	)

	return cmd, g
}

// setup loads config and wires services. Commands that need neither skip it.
func (g *globals) setup(cmd *cobra.Command, ver string) error {
	if _, err := parseFormat(g.output); err != nil {
		return err
	}
	if cmd.Annotations[annotationNoApp] == "true" {
		return nil
	}

	cfg, err := adapter.LoadConfig(g.configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if g.debug {
		cfg.Logging.Level = "DEBUG"
	}
	g.cfg = cfg
	if cmd.Annotations[annotationConfigOnly] == "true" {
		return nil
	}

	logger, closer, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
		closer = nil
	}
	logger.Info("starting portal", "version", ver, "command", cmd.CommandPath())

	a, err := newApp(cfg, logger, closer)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return err
	}
	g.app = a
	return nil
}

func (g *globals) teardown() error {
	if g.app == nil {
		return nil
	}
	err := g.app.Close()
	g.app = nil
	return err
}

const (
	// annotationNoApp marks commands that run without config or services
	annotationNoApp = "portal/no-app"
	// annotationConfigOnly marks commands that need config but no services
	annotationConfigOnly = "portal/config-only"
)

const rootCmdExample = `  # Start the interactive browser
  portal

  # List the first page of locations with their residents
  portal locations --residents

  # Every character as JSON
  portal characters --all -o json

  # Show a character and its notes
  portal character 1

  # Add a note
  portal notes add 1 "Has a portal gun"

  # Semantic search, with an offline fallback
  portal search "pickle"

  # Generate and evaluate a backstory
  portal generate backstory 1 --evaluate`
