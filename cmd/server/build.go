package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/dfryer1193/spacetraveling/shared/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newBuildCmd(cfg *config.Config) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the landing page and every known post page into the page store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to gracefully close dependencies")
				}
			}()

			report, err := a.generator.Prebuild(cmd.Context())
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"Path", "Status"})
			for _, path := range report.Built {
				t.AppendRow(table.Row{path, "built"})
			}

			failed := make([]string, 0, len(report.Failed))
			for path := range report.Failed {
				failed = append(failed, path)
			}
			sort.Strings(failed)
			for _, path := range failed {
				t.AppendRow(table.Row{path, report.Failed[path].Error()})
			}
			t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d built, %d failed", len(report.Built), len(failed))})
			t.Render()

			if strict && len(failed) > 0 {
				return fmt.Errorf("%d pages failed to build", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any page fails")

	return cmd
}
