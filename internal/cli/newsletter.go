package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spartanofurioso/platform/pkg/client"
)

func newNewsletterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "newsletter",
		Short: "Manage the newsletter",
	}

	cmd.AddCommand(newNewsletterSubscribersCmd())
	cmd.AddCommand(newNewsletterMessagesCmd())
	cmd.AddCommand(newNewsletterDraftCmd())
	cmd.AddCommand(newNewsletterSendCmd())

	return cmd
}

func newNewsletterSubscribersCmd() *cobra.Command {
	var status string
	opts := &client.ListOptions{}

	cmd := &cobra.Command{
		Use:   "subscribers",
		Short: "List subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Newsletter().Subscribers(context.Background(), opts, status)
			if err != nil {
				return fmt.Errorf("failed to list subscribers: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "EMAIL", "STATUS", "SOURCE", "SINCE")
			for _, s := range list.Data {
				t.AddRow(formatID(s.ID), s.Email, formatStatus(s.Status), s.Source, formatDate(s.SubscribedAt))
			}
			t.Render()
			fmt.Printf("\nPage %d of %d (%d subscribers)\n", list.Page, list.TotalPages, list.TotalItems)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status: subscribed, unsubscribed")
	cmd.Flags().StringVar(&opts.Search, "search", "", "email fragment")
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 50, "subscribers per page")

	return cmd
}

func newNewsletterMessagesCmd() *cobra.Command {
	opts := &client.ListOptions{}

	cmd := &cobra.Command{
		Use:   "messages",
		Short: "List newsletter messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := apiClient.Newsletter().Messages(context.Background(), opts)
			if err != nil {
				return fmt.Errorf("failed to list messages: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(list)
			}

			t := NewTable("ID", "SUBJECT", "STATUS", "SENT", "FAILED", "CREATED")
			for _, m := range list.Data {
				t.AddRow(
					formatID(m.ID),
					truncate(m.Subject, 50),
					formatStatus(m.Status),
					fmt.Sprintf("%d/%d", m.SentCount, m.RecipientCount),
					fmt.Sprintf("%d", m.FailedCount),
					formatDate(m.CreatedAt),
				)
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.PageSize, "page-size", 20, "messages per page")

	return cmd
}

func newNewsletterDraftCmd() *cobra.Command {
	var subject, body string

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Create a draft message",
		RunE: func(cmd *cobra.Command, args []string) error {
			if subject == "" || body == "" {
				return fmt.Errorf("--subject and --body are required")
			}

			m, err := apiClient.Newsletter().CreateMessage(context.Background(), subject, body)
			if err != nil {
				return fmt.Errorf("failed to create message: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(m)
			}
			fmt.Printf("Draft %d created. Send it with 'spartano newsletter send %d'\n", m.ID, m.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "message subject")
	cmd.Flags().StringVar(&body, "body", "", "message body (HTML allowed)")
	return cmd
}

func newNewsletterSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message-id>",
		Short: "Send a message to every subscriber",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			m, err := apiClient.Newsletter().Send(context.Background(), id)
			if err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(m)
			}
			fmt.Printf("Message %d queued for %d subscribers\n", m.ID, m.RecipientCount)
			return nil
		},
	}
}
