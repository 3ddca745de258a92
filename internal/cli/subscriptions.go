package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newSubscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs"},
		Short:   "Manage subscriptions",
	}

	cmd.AddCommand(newSubscriptionsListCmd())
	cmd.AddCommand(newSubscriptionTransitionCmd("pause", "Pause an active subscription", (*client.SubscriptionService).Pause))
	cmd.AddCommand(newSubscriptionTransitionCmd("resume", "Resume a paused subscription", (*client.SubscriptionService).Resume))
	cmd.AddCommand(newSubscriptionTransitionCmd("cancel", "Cancel a subscription", (*client.SubscriptionService).AdminCancel))

	return cmd
}

func newSubscriptionsListCmd() *cobra.Command {
	opts := &client.SubscriptionListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Subscriptions().ListAll(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list subscriptions: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "USER", "PRODUCT", "INTERVAL", "STATUS", "PERIOD END", "DAYS LEFT")
			for _, s := range list.Data {
				t.AddRow(
					formatID(s.ID),
					s.UserEmail,
					truncate(s.ProductName, 30),
					s.Interval,
					formatStatus(s.Status),
					formatDate(s.CurrentPeriodEnd),
					fmt.Sprintf("%d", s.DaysRemaining),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d subscriptions)\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status: active, paused, cancelled, expired")
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "filter by user ID")
	cmd.Flags().Int64Var(&opts.ProductID, "product", 0, "filter by product ID")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "subscriptions per page")

	return cmd
}

func newSubscriptionTransitionCmd(verb, short string, fn func(*client.SubscriptionService, context.Context, int64) (*client.Subscription, error)) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <subscription-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			s, err := fn(apiClient.Subscriptions(), context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to %s subscription: %w", verb, err)
			}

			if getOutputFormat() != "table" {
				return printOutput(s)
			}
			fmt.Printf("Subscription %d is now %s\n", s.ID, s.Status)
			return nil
		},
	}
}
