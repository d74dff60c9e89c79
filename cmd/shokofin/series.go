package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/shokofin/shokofin/internal/database"
	"github.com/shokofin/shokofin/internal/shoko"
)

var seriesCmd = &cobra.Command{
	Use:   "series",
	Short: "Inspect series metadata from Shoko",
}

var seriesShowCmd = &cobra.Command{
	Use:   "show <series-id>",
	Short: "Show a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shoko.Timeout+5*time.Second)
		defer cancel()

		client := newAPIClient()
		series, err := client.GetSeries(ctx, id)
		if err != nil {
			return err
		}

		if err := database.SaveSeries(database.GetDB(), series); err != nil {
			logger.Warn("failed to cache series", "series", id, "error", err)
		}

		fmt.Println(renderSeries(series, client.ImageURL(series.Images.Poster)))
		return nil
	},
}

var seriesEpisodesCmd = &cobra.Command{
	Use:   "episodes <series-id>",
	Short: "List the episodes of a series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		showHidden, _ := cmd.Flags().GetBool("hidden")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Shoko.Timeout+5*time.Second)
		defer cancel()

		episodes, err := newAPIClient().GetSeriesEpisodes(ctx, id)
		if err != nil {
			return err
		}

		rows := episodeRows(episodes, showHidden)
		if len(rows) == 0 {
			fmt.Println("No episodes")
			return nil
		}

		fmt.Println(renderTable([]tableColumn{
			numCol("ID"), textCol("Type"), numCol("No."), textCol("Title"),
			numCol("Length"), numCol("Files"), textCol("Watched"),
		}, rows))
		return nil
	},
}

var seriesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search series names",
	Long: `Fuzzy search series names. Matches against the local series cache; use
--refresh to fetch the full series list from Shoko first.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		limit, _ := cmd.Flags().GetInt("limit")
		query := strings.Join(args, " ")

		db := database.GetDB()
		records, err := database.ListSeriesRecords(db)
		if err != nil {
			return err
		}

		if refresh || len(records) == 0 {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Shoko.Timeout+5*time.Second)
			defer cancel()

			list, err := newAPIClient().ListSeries(ctx)
			if err != nil {
				return err
			}
			for i := range list {
				if err := database.SaveSeries(db, &list[i]); err != nil {
					return err
				}
			}
			if records, err = database.ListSeriesRecords(db); err != nil {
				return err
			}
		}

		matches := searchSeries(query, records, limit)
		if len(matches) == 0 {
			fmt.Printf("No series matching %q\n", query)
			return nil
		}

		rows := make([][]string, 0, len(matches))
		for _, r := range matches {
			rows = append(rows, []string{strconv.Itoa(r.ShokoID), strconv.Itoa(r.AniDBID), r.Name})
		}
		fmt.Println(renderTable([]tableColumn{numCol("ID"), numCol("AniDB"), textCol("Name")}, rows))
		return nil
	},
}

func init() {
	seriesEpisodesCmd.Flags().Bool("hidden", false, "include hidden episodes")
	seriesSearchCmd.Flags().Bool("refresh", false, "fetch the series list from Shoko before searching")
	seriesSearchCmd.Flags().IntP("limit", "n", 20, "maximum number of results")

	seriesCmd.AddCommand(seriesShowCmd)
	seriesCmd.AddCommand(seriesEpisodesCmd)
	seriesCmd.AddCommand(seriesSearchCmd)
	rootCmd.AddCommand(seriesCmd)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", s)
	}
	return id, nil
}

// searchSeries ranks records by fuzzy match on their name, best first
func searchSeries(query string, records []database.SeriesRecord, limit int) []database.SeriesRecord {
	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}

	matches := fuzzy.Find(query, names)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]database.SeriesRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, records[m.Index])
	}
	return out
}

func episodeRows(episodes []shoko.Episode, showHidden bool) [][]string {
	rows := make([][]string, 0, len(episodes))
	for _, ep := range episodes {
		if ep.IsHidden && !showHidden {
			continue
		}

		watched := ""
		if ep.Watched != nil {
			watched = humanize.Time(ep.Watched.Time)
		}

		rows = append(rows, []string{
			strconv.Itoa(ep.IDs.ID),
			ep.AniDBEntity.Type.String(),
			strconv.Itoa(ep.AniDBEntity.EpisodeNumber),
			episodeTitle(&ep),
			formatRuntime(ep.Duration.Duration),
			strconv.Itoa(len(ep.FileIDs())),
			watched,
		})
	}
	return rows
}

func episodeTitle(ep *shoko.Episode) string {
	if ep.Name != "" {
		return ep.Name
	}
	if t, ok := shoko.FindTitle(ep.AniDBEntity.Titles, "en", ""); ok {
		return t.Name
	}
	return fmt.Sprintf("Episode %d", ep.AniDBEntity.EpisodeNumber)
}

func formatRuntime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func renderSeries(s *shoko.Series, posterURL string) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(s.Title()))
	b.WriteString("\n")
	if s.AniDBEntity.Title != "" && s.AniDBEntity.Title != s.Title() {
		b.WriteString(subtitleStyle.Render(s.AniDBEntity.Title))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	lines := []string{
		field("Shoko ID", strconv.Itoa(s.IDs.ID)),
		field("AniDB ID", strconv.Itoa(s.AniDBEntity.ID)),
		field("Type", string(s.AniDBEntity.Type)),
		field("Aired", dateRange(s.AniDBEntity.AirDate(), s.AniDBEntity.EndDate())),
	}
	if s.AniDBEntity.Rating.MaxValue > 0 {
		lines = append(lines, field("Rating", fmt.Sprintf("%.1f / 10 (%s votes)",
			s.AniDBEntity.Rating.Normalized(10), humanize.Comma(int64(s.AniDBEntity.Rating.Votes)))))
	}

	sizes := s.Sizes
	episodes := fmt.Sprintf("%d / %d local, %d watched", sizes.Local.Episodes, sizes.Total.Episodes, sizes.Watched.Episodes)
	if s.IsMissingEpisodes() {
		episodes += " " + errStyle.Render("(missing)")
	}
	lines = append(lines,
		field("Episodes", episodes),
		field("Specials", fmt.Sprintf("%d / %d local", sizes.Local.Specials, sizes.Total.Specials)),
		field("Files", humanize.Comma(int64(sizes.Files()))),
	)
	if !s.LastUpdatedAt.IsZero() {
		lines = append(lines, field("Updated", humanize.Time(s.LastUpdatedAt.Time)))
	}
	if posterURL != "" {
		lines = append(lines, field("Poster", posterURL))
	}

	b.WriteString(boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))

	if desc := strings.TrimSpace(s.Description); desc != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().Width(78).Render(desc))
	}
	return b.String()
}

func dateRange(start, end *time.Time) string {
	switch {
	case start == nil:
		return "unknown"
	case end == nil:
		return start.Format("2006-01-02") + " - ongoing"
	default:
		return start.Format("2006-01-02") + " - " + end.Format("2006-01-02")
	}
}
