package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "Print case totals and severity bands per region",
	Long: "Aggregates every record by normalized region. When BOUNDARY_PATH is set, " +
		"every boundary region is listed, including those with no records.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd.Context(), logger, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.pipeline.Refresh(cmd.Context()); err != nil {
			return err
		}

		aggs := e.pipeline.Regions()
		names := make([]string, 0, len(aggs))
		if e.boundaries != nil {
			names = e.boundaries.Regions()
			aggs = domain.FillRegions(aggs, names)
		} else {
			for _, a := range aggs {
				names = append(names, a.Region)
			}
		}
		bands := e.pipeline.Choropleth(names)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REGION\tCASES\tDEATHS\tBAND\tCOLOR")
		for _, a := range aggs {
			band := bands[a.Region]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", a.Region, a.TotalCases, a.TotalDeaths, band, band.Color())
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
