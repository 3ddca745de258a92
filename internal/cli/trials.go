package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newTrialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trials",
		Short: "Manage free trials",
	}

	cmd.AddCommand(newTrialsListCmd())
	cmd.AddCommand(newTrialsStatsCmd())
	cmd.AddCommand(newTrialsExtendCmd())
	cmd.AddCommand(newTrialsCancelCmd())

	return cmd
}

func newTrialsListCmd() *cobra.Command {
	opts := &client.TrialListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trials",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Trials().ListAll(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list trials: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "USER", "PRODUCT", "STATUS", "EXPIRES", "DAYS LEFT")
			for _, tr := range list.Data {
				t.AddRow(
					formatID(tr.ID),
					tr.UserEmail,
					truncate(tr.ProductName, 30),
					formatStatus(tr.Status),
					formatDate(tr.ExpiresAt),
					fmt.Sprintf("%d", tr.DaysRemaining),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d trials)\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status: active, expired, converted, cancelled")
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "filter by user ID")
	cmd.Flags().Int64Var(&opts.ProductID, "product", 0, "filter by product ID")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "trials per page")

	return cmd
}

func newTrialsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show trial statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Trials().Stats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get trial stats: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Total trials:    %d\n", stats.Total)
			fmt.Printf("Conversion rate: %.1f%%\n\n", stats.ConversionRate*100)

			t := NewTable("STATUS", "COUNT")
			for _, k := range sortedKeys(stats.ByStatus) {
				t.AddRow(formatStatus(k), fmt.Sprintf("%d", stats.ByStatus[k]))
			}
			t.Render()
			return nil
		},
	}
}

func newTrialsExtendCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "extend <trial-id>",
		Short: "Extend a trial",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tr, err := apiClient.Trials().Extend(context.Background(), id, days)
			if err != nil {
				return fmt.Errorf("failed to extend trial: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(tr)
			}
			fmt.Printf("Trial %d now expires %s (%d days left)\n", tr.ID, formatDate(tr.ExpiresAt), tr.DaysRemaining)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "days to add")
	return cmd
}

func newTrialsCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <trial-id>",
		Short: "End a trial early",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tr, err := apiClient.Trials().Cancel(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to cancel trial: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(tr)
			}
			fmt.Printf("Trial %d cancelled\n", tr.ID)
			return nil
		},
	}
}
