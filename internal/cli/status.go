package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			d, err := apiClient.Analytics().Dashboard(ctx)
			if err != nil {
				return fmt.Errorf("failed to load dashboard: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(d)
			}

			fmt.Println("Spartano Furioso Dashboard")
			fmt.Println(strings.Repeat("=", 40))
			fmt.Printf("  Users:          %d\n", d.TotalUsers)
			fmt.Printf("  Paid orders:    %d\n", d.PaidOrders)
			fmt.Printf("  Subscriptions:  %d active\n", d.ActiveSubscriptions)
			fmt.Printf("  Trials:         %d active\n", d.ActiveTrials)
			fmt.Printf("  Newsletter:     %d subscribers\n", d.NewsletterSubscribers)

			for _, cur := range sortedKeys(d.RevenueByCurrency) {
				fmt.Printf("  Revenue:        %s\n", formatMoney(d.RevenueByCurrency[cur], cur))
			}

			pending, err := apiClient.Orders().ListAll(ctx, &client.OrderListOptions{Status: "pending"})
			if err == nil && pending.TotalItems > 0 {
				fmt.Printf("\n  %d order(s) awaiting payment\n", pending.TotalItems)
			}
			return nil
		},
	}
}
