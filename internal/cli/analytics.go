package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAnalyticsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Site analytics",
	}

	cmd.AddCommand(newAnalyticsStatsCmd())
	return cmd
}

func newAnalyticsStatsCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show traffic statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			to := time.Now()
			from := to.AddDate(0, 0, -days)

			stats, err := apiClient.Analytics().Stats(context.Background(), from, to)
			if err != nil {
				return fmt.Errorf("failed to get analytics: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			fmt.Printf("%s to %s\n", formatDate(stats.From), formatDate(stats.To))
			fmt.Printf("  Events:          %d\n", stats.TotalEvents)
			fmt.Printf("  Page views:      %d\n", stats.PageViews)
			fmt.Printf("  Unique sessions: %d\n", stats.UniqueSessions)
			fmt.Printf("  Unique users:    %d\n\n", stats.UniqueUsers)

			t := NewTable("PAGE", "VIEWS")
			for _, p := range stats.TopPages {
				t.AddRow(truncate(p.Path, 60), fmt.Sprintf("%d", p.Views))
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "size of the window ending now")
	return cmd
}
