package commands

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

// NewMetricsCommand creates the command listing the metric catalog.
func NewMetricsCommand() *cobra.Command {
	var patterns []string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "List the available metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := metrics.DefaultCatalog().Select(patterns)
			if err != nil {
				return err
			}

			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Name", "Display Name", "Type", "Description"})

			for _, def := range catalog.Definitions() {
				tbl.AppendRow(table.Row{def.Name(), def.DisplayName(), def.Type(), def.Description()})
			}

			tbl.Render()

			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&patterns, "metrics", "m", nil, "Metric names or glob patterns (example: number_of_*,code_churn)")

	return cmd
}
