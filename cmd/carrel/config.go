package main

import (
	"github.com/spf13/cobra"
)

var (
	configEditor string
	configViewer string
)

func init() {
	configCmd.Flags().StringVar(&configEditor, "editor", "", "Command template for editing BibTeX")
	configCmd.Flags().StringVar(&configViewer, "viewer", "", "Command template for opening documents")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [flags]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  carrel config                     # Show resolved config
  carrel config --editor "vim"      # Set the editor template
  carrel config --viewer "zathura"  # Set the viewer template

The viewer value "system" (or an empty value) means the platform opener
(open on macOS, xdg-open on Linux). An unset editor falls back to
$VISUAL, then $EDITOR, then vi.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	if configEditor == "" && configViewer == "" {
		if humanOutput {
			outputHuman("active: %s\n", cfg.Active)
			outputHuman("editor: %s\n", cfg.Editor)
			outputHuman("viewer: %s\n", cfg.Viewer)
		} else {
			outputJSON(ConfigResponse{
				Active: cfg.Active,
				Editor: cfg.Editor,
				Viewer: cfg.Viewer,
			})
		}
		return nil
	}

	if configEditor != "" {
		cfg.Editor = configEditor
	}
	if configViewer != "" {
		cfg.Viewer = configViewer
	}
	if err := cfg.Save(); err != nil {
		exitWithError(ExitConfigError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Updated config\n")
	} else {
		outputJSON(StatusResponse{Status: "updated"})
	}
	return nil
}
