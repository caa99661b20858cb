package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/rdsweep/internal/config"
	"github.com/san-kum/rdsweep/internal/storage"
	"github.com/san-kum/rdsweep/internal/store"
	"github.com/san-kum/rdsweep/internal/viz"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), viz.RenderRuns(runs))
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "show a run's metadata and result table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, viz.TitleStyle.Render(meta.ID))
			fmt.Fprintf(out, "%s %s\n", viz.MetricLabel.Render("plan     "), meta.Plan)
			fmt.Fprintf(out, "%s %v\n", viz.MetricLabel.Render("command  "), meta.Command)
			fmt.Fprintf(out, "%s %s\n", viz.MetricLabel.Render("started  "), meta.Timestamp.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "%s %d/%d\n", viz.MetricLabel.Render("points   "), meta.Completed, meta.Points)
			fmt.Fprintf(out, "%s %.1fs\n", viz.MetricLabel.Render("simulator"), meta.SimulatorSec)
			if !meta.Succeeded() {
				fmt.Fprintf(out, "%s %s\n", viz.MetricLabel.Render("failure  "), viz.StatusFailed.Render(meta.Failure))
				return nil
			}

			table, err := st.LoadTable(meta.ID)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, viz.RenderTable(table, limit))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to show (0 for all)")
	return cmd
}

func newPlotCmd() *cobra.Command {
	var metric, by, x string
	var height, width int

	cmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "plot a metric with one line per outer sweep value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			table, err := st.LoadTable(meta.ID)
			if err != nil {
				return err
			}

			defBy, defX := axisColumns(meta)
			if by == "" {
				by = defBy
			}
			if x == "" {
				x = defX
			}

			graph, err := viz.PlotMetric(table, by, x, metric, viz.PlotOptions{Height: height, Width: width})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run: %s\n\n%s\n", meta.ID, graph)
			return nil
		},
	}
	cmd.Flags().StringVar(&metric, "metric", "DWD", "column to plot")
	cmd.Flags().StringVar(&by, "by", "", "column that selects the series (default first sweep variable)")
	cmd.Flags().StringVar(&x, "x", "", "column along the x axis (default last sweep variable)")
	cmd.Flags().IntVar(&height, "height", 15, "plot height")
	cmd.Flags().IntVar(&width, "width", 80, "plot width")
	return cmd
}

// axisColumns picks the header labels of the outermost and innermost sweep
// variables from the run's config snapshot.
func axisColumns(meta *storage.RunMetadata) (string, string) {
	cfg, err := config.Parse([]byte(meta.Config))
	if err != nil || len(cfg.Variables) == 0 {
		cfg = config.DefaultConfig()
	}
	label := func(v config.VariableConfig) string {
		if v.Label != "" {
			return v.Label
		}
		return v.Name
	}
	return label(cfg.Variables[0]), label(cfg.Variables[len(cfg.Variables)-1])
}

func newExportJSONCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export-json <run_id>",
		Short: "export a run's table as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			table, err := st.LoadTable(meta.ID)
			if err != nil {
				return err
			}
			if output == "" {
				return store.ExportJSON(cmd.OutOrStdout(), meta, table)
			}
			if err := store.ExportJSONFile(output, meta, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}
