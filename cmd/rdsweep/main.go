package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/san-kum/rdsweep/internal/config"
)

var dataDir string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rdsweep",
		Short:         "parameter sweeps over an external dose simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := loggerFromFlags(cmd, os.Stderr)
			if err != nil {
				return err
			}
			cmd.SetContext(pslog.ContextWithLogger(cmd.Context(), logger))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&dataDir, "data", ".rdsweep", "data directory")
	addLoggingFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newPlotCmd())
	root.AddCommand(newExportJSONCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newInitCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset sweeps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				plan, err := cfg.Plan()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %-20s %-14s %s\n", name, plan.String(), config.PresetDescription(name))
			}
			return nil
		},
	}
}

func newInitCmd() *cobra.Command {
	var preset string
	var force bool

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "write a sweep config to edit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := config.GetPreset(preset)
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "beam-ratio", "preset to start from")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
