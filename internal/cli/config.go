package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmcdole/portal/internal/adapter"
)

func newConfigCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(g), newConfigInitCmd())
	return cmd
}

func newConfigShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration",
		Long:        "Prints defaults merged with the config file and PORTAL_* environment overrides.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationConfigOnly: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := nestSettings(g.cfg.Settings())
			out := cmd.OutOrStdout()
			if g.format() == formatJSON {
				_, err := writeStructured(out, formatJSON, settings)
				return err
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(settings); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// nestSettings turns "section.key" settings into section maps
func nestSettings(flat map[string]any) map[string]map[string]any {
	nested := make(map[string]map[string]any)
	for key, value := range flat {
		section, name, _ := strings.Cut(key, ".")
		if nested[section] == nil {
			nested[section] = make(map[string]any)
		}
		nested[section][name] = value
	}
	return nested
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		Example: `  # Create ~/.config/portal/config.yaml
  portal config init

  # Create ./config.yaml, overwriting an existing one
  portal config init --dir . --force`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			target := dir
			if target == "" {
				target = adapter.DefaultConfigPath()
			}

			// Check if config already exists and force isn't set
			if !force {
				_, err := os.Stat(filepath.Join(target, "config.yaml"))
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", target, err)
				}
			}

			path, err := adapter.SaveConfig(adapter.DefaultConfig(), target)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration initialized at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&dir, "dir", "", "directory to write config.yaml into (default ~/.config/portal)")
	return cmd
}

func newVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoApp: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portal %s\n", ver)
		},
	}
}
