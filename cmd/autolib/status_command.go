package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running:        %v (pid %d)\n", status.Running, status.PID)
			fmt.Fprintf(out, "Queue length:   %d\n", status.QueueLength)
			fmt.Fprintf(out, "History DB:     %s\n", status.HistoryDBPath)
			fmt.Fprintf(out, "Lock file:      %s\n", status.LockFilePath)
			fmt.Fprintf(out, "Files observed: %d (emitted %d)\n",
				status.Monitor.FilesObserved, status.Monitor.FilesEmitted)
			fmt.Fprintf(out, "Ingest:         accepted %d, ignored %d, archives %d, groups %d\n",
				status.Ingest.FilesAccepted, status.Ingest.FilesIgnored,
				status.Ingest.ArchivesExpanded, status.Ingest.GroupsEmitted)

			if len(status.History) == 0 {
				return nil
			}
			statuses := make([]string, 0, len(status.History))
			for name := range status.History {
				statuses = append(statuses, name)
			}
			sort.Strings(statuses)
			if plainOutput(out) {
				for _, name := range statuses {
					fmt.Fprintf(out, "History %s: %d\n", name, status.History[name])
				}
				return nil
			}
			rows := make([][]string, 0, len(statuses))
			for _, name := range statuses {
				rows = append(rows, []string{name, fmt.Sprintf("%d", status.History[name])})
			}
			fmt.Fprintln(out, renderTable([]string{"History Status", "Count"}, rows))
			return nil
		},
	}
}
