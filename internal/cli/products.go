package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newProductsCmd() *cobra.Command {
	var productType string
	var all bool

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Manage the product catalog",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List products",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			var products []client.Product
			var err error
			if all {
				if err := initAuthenticatedClient(); err != nil {
					return err
				}
				products, err = apiClient.Products().ListAll(ctx, productType)
			} else {
				products, err = apiClient.Products().List(ctx, productType)
			}
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(products)
			}

			t := NewTable("ID", "TYPE", "NAME", "PRICE", "INTERVAL", "TRIAL", "ACTIVE")
			for _, p := range products {
				t.AddRow(
					formatID(p.ID),
					p.Type,
					truncate(p.Name, 40),
					formatMoney(p.PriceCents, p.Currency),
					p.BillingInterval,
					fmt.Sprintf("%v", p.TrialEnabled),
					fmt.Sprintf("%v", p.IsActive),
				)
			}
			t.Render()
			return nil
		},
	}
	list.Flags().StringVar(&productType, "type", "", "filter by type: bot, course, subscription, indicator")
	list.Flags().BoolVar(&all, "all", false, "include inactive products (admin)")

	cmd.AddCommand(list)
	return cmd
}
