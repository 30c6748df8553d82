package main

import (
	"os"

	"github.com/dfryer1193/spacetraveling/blog/application"
	"github.com/dfryer1193/spacetraveling/blog/domain"
	"github.com/dfryer1193/spacetraveling/shared/config"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPostsCmd(cfg *config.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts the way the landing page does, loading more pages until the cursor runs out",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to gracefully close dependencies")
				}
			}()

			page, err := a.generator.Serve(ctx, domain.ListPath)
			if err != nil {
				return err
			}

			list := application.NewPostList(a.content, a.dates)
			list.Initialize(*page.List)

			for list.HasMore() && (limit <= 0 || len(list.Posts()) < limit) {
				if _, err := list.LoadMore(ctx); err != nil {
					return err
				}
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.AppendHeader(table.Row{"#", "UID", "Published", "Title", "Author"})
			for i, p := range list.Posts() {
				t.AppendRow(table.Row{i + 1, p.UID, p.FirstPublicationDate, p.Title, p.Author})
			}
			t.AppendFooter(table.Row{"", "", "", "Pages loaded", list.Page()})
			t.Render()

			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "stop loading once this many posts are listed (0 loads all)")

	return cmd
}
