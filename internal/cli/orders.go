package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage orders",
	}

	cmd.AddCommand(newOrdersListCmd())
	cmd.AddCommand(newOrdersStatsCmd())
	cmd.AddCommand(newOrdersConfirmCmd())
	cmd.AddCommand(newOrdersRefundCmd())

	return cmd
}

func newOrdersListCmd() *cobra.Command {
	opts := &client.OrderListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Orders().ListAll(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "CUSTOMER", "PRODUCT", "AMOUNT", "METHOD", "STATUS", "CREATED")
			for _, o := range list.Data {
				t.AddRow(
					formatID(o.ID),
					o.UserEmail,
					truncate(o.ProductName, 30),
					formatMoney(o.AmountCents, o.Currency),
					o.PaymentMethod,
					formatStatus(o.Status),
					formatDate(o.CreatedAt),
				)
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d orders)\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status: pending, paid, cancelled, refunded")
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "filter by user ID")
	cmd.Flags().Int64Var(&opts.ProductID, "product", 0, "filter by product ID")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "orders per page")

	return cmd
}

func newOrdersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show order and revenue statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := apiClient.Orders().Stats(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get order stats: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(stats)
			}

			fmt.Printf("Total orders: %d\n\n", stats.TotalOrders)

			t := NewTable("STATUS", "COUNT")
			for _, k := range sortedKeys(stats.ByStatus) {
				t.AddRow(formatStatus(k), fmt.Sprintf("%d", stats.ByStatus[k]))
			}
			t.Render()
			fmt.Println()

			t = NewTable("CURRENCY", "REVENUE", "LAST 30 DAYS")
			for _, cur := range sortedKeys(stats.RevenueByCurrency) {
				t.AddRow(cur, formatMoney(stats.RevenueByCurrency[cur], cur), formatMoney(stats.RevenueLast30Days[cur], cur))
			}
			t.Render()
			return nil
		},
	}
}

func newOrdersConfirmCmd() *cobra.Command {
	var reference string

	cmd := &cobra.Command{
		Use:   "confirm <order-id>",
		Short: "Mark a PayPal or crypto payment as received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			o, err := apiClient.Orders().Confirm(context.Background(), id, reference)
			if err != nil {
				return fmt.Errorf("failed to confirm order: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(o)
			}
			fmt.Printf("Order %d confirmed: %s for %s\n", o.ID, formatMoney(o.AmountCents, o.Currency), o.UserEmail)
			return nil
		},
	}

	cmd.Flags().StringVar(&reference, "reference", "", "payment reference (PayPal transaction ID, tx hash)")
	return cmd
}

func newOrdersRefundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refund <order-id>",
		Short: "Refund a paid order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			o, err := apiClient.Orders().Refund(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to refund order: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(o)
			}
			fmt.Printf("Order %d refunded\n", o.ID)
			return nil
		},
	}
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
