package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autolib/internal/workqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and act on the review queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueApproveCommand(ctx))
	queueCmd.AddCommand(newQueueRejectCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued book units",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			items, err := client.Queue(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch queue: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			if plainOutput(out) {
				for _, item := range items {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
						item.ID, item.Status, itemTitle(item), item.Dirpath)
				}
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rows = append(rows, []string{
					item.ID,
					string(item.Status),
					itemTitle(item),
					fmt.Sprintf("%d", len(item.Files)),
					item.AddedAt.Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Status", "Book", "Files", "Added"}, rows))
			return nil
		},
	}
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one queued book unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			item, err := client.QueueItem(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetch queue item: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:         %s\n", item.ID)
			fmt.Fprintf(out, "Status:     %s\n", item.Status)
			fmt.Fprintf(out, "Directory:  %s\n", item.Dirpath)
			fmt.Fprintf(out, "Added:      %s\n", item.AddedAt.Format("2006-01-02 15:04:05"))
			if meta := item.Metadata; meta != nil {
				fmt.Fprintf(out, "Title:      %s\n", meta.Title)
				fmt.Fprintf(out, "Author:     %s\n", meta.Author)
				if meta.Narrator != "" {
					fmt.Fprintf(out, "Narrator:   %s\n", meta.Narrator)
				}
				if meta.Year != 0 {
					fmt.Fprintf(out, "Year:       %d\n", meta.Year)
				}
				fmt.Fprintf(out, "Confidence: %.0f (%s)\n", meta.Confidence, meta.Source)
			}
			fmt.Fprintf(out, "Files:\n")
			for _, file := range item.Files {
				fmt.Fprintf(out, "  %s\n", file)
			}
			return nil
		},
	}
}

func newQueueApproveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a queued book for organization",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.Approve(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("approve item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s\n", args[0])
			return nil
		},
	}
}

func newQueueRejectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject a queued book and route it to manual handling",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.Reject(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("reject item: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rejected %s\n", args[0])
			return nil
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a queued book from memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			removed, err := client.RemoveQueueItem(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("remove item: %w", err)
			}
			if !removed {
				return fmt.Errorf("queue item %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			return nil
		},
	}
}

func itemTitle(item *workqueue.Item) string {
	if item.Metadata == nil {
		return ""
	}
	return strings.TrimSpace(item.Metadata.DisplayName())
}
