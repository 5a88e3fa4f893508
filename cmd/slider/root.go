package main

import (
	"github.com/spf13/cobra"

	"slider/internal/config"
)

// NewRootCmd creates the root slider command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "slider",
		Short:         "Slider: slide drafting backend with conversation memory",
		Long:          "Slider serves the PowerPoint add-in: it classifies chat messages, remembers each conversation and drafts or edits slides.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file (default ./config.yaml or ~/.config/slider/config.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newClassifyCmd(),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads --config when given, else the default locations, and
// applies --verbose.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	var (
		cfg *config.AppConfig
		err error
	)
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}
