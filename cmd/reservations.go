package cmd

import (
	"fmt"
	"strings"

	"toolrent-cli/availability"
	"toolrent-cli/storage"

	"github.com/spf13/cobra"
)

type ReservationEntry struct {
	ToolID    int64  `json:"tool_id"`
	ID        string `json:"id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	Expired   bool   `json:"expired"`
}

func reservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Manage reservations cached on this machine",
		Long:  "Reservations made here are cached until the server lists them, so calendars show them right away.",
	}

	cmd.AddCommand(reservationsListCmd())
	cmd.AddCommand(reservationsRemoveCmd())
	cmd.AddCommand(reservationsPruneCmd())
	cmd.AddCommand(reservationsClearCmd())
	return cmd
}

func reservationEntries(cache availability.LocalCache) []ReservationEntry {
	today := availability.Day(now())
	entries := []ReservationEntry{}
	for _, toolID := range cache.ToolIDs() {
		for _, local := range cache.For(toolID) {
			entry := ReservationEntry{
				ToolID:    toolID,
				ID:        local.ID,
				StartDate: local.StartDate,
				EndDate:   local.EndDate,
				Status:    strings.ToUpper(local.Status),
				CreatedAt: local.CreatedAt,
			}
			if r, ok := local.Range(); !ok || r.End.Before(today) {
				entry.Expired = true
			}
			entries = append(entries, entry)
		}
	}
	return entries
}

func reservationsListCmd() *cobra.Command {
	var toolFilter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached reservations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := storage.LoadLocalCache()
			if err != nil {
				return err
			}
			entries := reservationEntries(cache)
			if toolFilter != "" {
				toolID, err := parseID(toolFilter)
				if err != nil {
					return err
				}
				filtered := entries[:0]
				for _, entry := range entries {
					if entry.ToolID == toolID {
						filtered = append(filtered, entry)
					}
				}
				entries = filtered
			}

			if outputJSON {
				return writeJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No cached reservations.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "TOOL\tID\tFROM\tTO\tSTATUS\tEXPIRED")
			}
			for _, entry := range entries {
				fmt.Fprintf(writer, "%d\t%s\t%s\t%s\t%s\t%s\n", entry.ToolID, entry.ID, entry.StartDate, entry.EndDate, strings.ToLower(entry.Status), yesNo(entry.Expired))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().StringVar(&toolFilter, "tool", "", "Only reservations of this tool id")
	return cmd
}

func reservationsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <tool-id> <id>",
		Short: "Remove one cached reservation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolID, err := parseID(args[0])
			if err != nil {
				return err
			}
			id := strings.TrimSpace(args[1])

			cache, err := storage.LoadLocalCache()
			if err != nil {
				return err
			}
			next, removed := cache.Without(toolID, id)
			if !removed {
				return fmt.Errorf("reservation %q for tool %d not found", id, toolID)
			}
			if err := storage.SaveLocalCache(next); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Removed reservation %s of tool %d.\n", id, toolID)
			return nil
		},
	}

	return cmd
}

func reservationsPruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop cached reservations that have ended",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := storage.LoadLocalCache()
			if err != nil {
				return err
			}
			before := len(reservationEntries(cache))
			pruned := cache.Prune(now())
			dropped := before - len(reservationEntries(pruned))
			if err := storage.SaveLocalCache(pruned); err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(map[string]int{"dropped": dropped})
			}
			fmt.Fprintf(stdout, "Dropped %d expired reservation(s).\n", dropped)
			return nil
		},
	}

	return cmd
}

func reservationsClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := confirm("Delete all cached reservations? [Y/n] ")
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
			}
			if err := storage.ClearLocalCache(); err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Cached reservations cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Do not ask for confirmation")
	return cmd
}
