package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"toolrent-cli/api"
	"toolrent-cli/availability"
	"toolrent-cli/storage"

	"github.com/spf13/cobra"
)

type RentalStats struct {
	TotalRentals      int     `json:"total_rentals"`
	TotalSpent        float64 `json:"total_spent"`
	TotalDays         int     `json:"total_days"`
	FavouriteTool     string  `json:"favourite_tool"`
	FavouriteToolUses int     `json:"favourite_tool_uses"`
	LastRental        string  `json:"last_rental"`
}

func rentalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rentals",
		Short: "Manage your rental history",
	}

	cmd.AddCommand(rentalsListCmd())
	cmd.AddCommand(rentalsSyncCmd())
	cmd.AddCommand(rentalsStatsCmd())
	cmd.AddCommand(rentalsRemoveCmd())
	return cmd
}

func rentalsListCmd() *cobra.Command {
	var past bool
	var all bool
	var from string
	var to string
	var status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rentals recorded on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.RentalFilter{Status: status}

			if from != "" {
				date, err := parseDateInput(from)
				if err != nil {
					return err
				}
				filter.From = date.Format("2006-01-02")
			}
			if to != "" {
				date, err := parseDateInput(to)
				if err != nil {
					return err
				}
				filter.To = date.Format("2006-01-02")
			}
			if filter.From != "" && filter.To != "" && filter.From > filter.To {
				return fmt.Errorf("--from must be on or before --to")
			}

			filter.NowDate = availability.Day(now()).Format("2006-01-02")
			if filter.From == "" && filter.To == "" && !all {
				if past {
					filter.Past = true
				} else {
					filter.Upcoming = true
				}
			}

			db, err := storage.OpenRentalsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rentals, err := storage.ListRentals(db, filter)
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(rentals)
			}
			if len(rentals) == 0 {
				fmt.Fprintln(stdout, "No rentals found.")
				return nil
			}

			writer := newTable()
			if !outputCompact {
				fmt.Fprintln(writer, "ID\tFROM\tTO\tTOOL\tSTATUS\tPRICE")
			}
			for _, r := range rentals {
				fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.StartDate, r.EndDate, truncate(r.ToolName, 32), strings.ToLower(r.Status), formatMoney(r.TotalPrice))
			}
			return writer.Flush()
		},
	}

	cmd.Flags().BoolVar(&past, "past", false, "List past rentals")
	cmd.Flags().BoolVar(&all, "all", false, "List every rental")
	cmd.Flags().StringVar(&from, "from", "", "Rentals ending on/after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Rentals starting on/before this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "Only this status (APPROVED, PENDING, ...)")
	return cmd
}

type syncResult struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total_in_account"`
}

func rentalsSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync your rentals from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := requireSession()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rents, err := client.ListRents(ctx, 0)
			if err != nil {
				return err
			}

			var toolNames map[int64]string
			if tools, err := client.ListTools(ctx); err == nil {
				toolNames = make(map[int64]string, len(tools))
				for _, tool := range tools {
					toolNames[tool.ID] = tool.Name
				}
			} else {
				logger.Warn().Err(err).Msg("tool names unavailable during sync")
			}

			db, err := storage.OpenRentalsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			mine := ownRentals(rents, current.UserID())
			result := syncResult{}
			for _, rent := range mine {
				result.Total++
				record, ok := recordFromRental(rent, toolNames)
				if !ok {
					logger.Warn().Int64("rental_id", rent.ID).Msg("skipping rental with unreadable dates")
					result.Skipped++
					continue
				}
				inserted, err := storage.AddRentalIfNotExists(db, record)
				if err != nil {
					return err
				}
				if inserted {
					result.Added++
					continue
				}
				updated, err := storage.UpdateRentalStatus(db, record.ID, record.Status)
				if err != nil {
					return err
				}
				if updated {
					result.Updated++
				} else {
					result.Skipped++
				}
			}

			pruneListedReservations(mine)

			if outputJSON {
				return writeJSON(result)
			}
			fmt.Fprintf(stdout, "Sync complete. Added %d, updated %d, skipped %d (total %d).\n", result.Added, result.Updated, result.Skipped, result.Total)
			return nil
		},
	}

	return cmd
}

// ownRentals keeps the rentals of userID. The server may already scope the
// list; records without a user reference are kept in that case.
func ownRentals(rents []api.Rental, userID int64) []api.Rental {
	if userID == 0 {
		return rents
	}
	mine := make([]api.Rental, 0, len(rents))
	for _, rent := range rents {
		if ref := rent.UserRef(); ref != 0 && ref != userID {
			continue
		}
		mine = append(mine, rent)
	}
	return mine
}

func recordFromRental(rent api.Rental, toolNames map[int64]string) (storage.RentalRecord, bool) {
	r, ok := availability.NewRange(availability.RentalID(rent.ID), rent.StartDate, rent.EndDate, rent.Status)
	if !ok || r.ID == "" {
		return storage.RentalRecord{}, false
	}
	name := rent.ToolName()
	if name == "" {
		name = toolNames[rent.ToolRef()]
	}
	createdAt := rent.CreatedAt
	if createdAt == "" {
		createdAt = now().UTC().Format(time.RFC3339)
	}
	return storage.RentalRecord{
		ID:            r.ID,
		ToolID:        rent.ToolRef(),
		ToolName:      name,
		StartDate:     r.Start.Format("2006-01-02"),
		EndDate:       r.End.Format("2006-01-02"),
		Days:          availability.DaysBetween(r.Start, r.End, true),
		TotalPrice:    rent.TotalPrice,
		Status:        r.Status,
		PayPalOrderID: rent.PayPalOrderID,
		CreatedAt:     createdAt,
		Source:        storage.SourceSync,
	}, true
}

// pruneListedReservations drops cached reservations the server now lists.
func pruneListedReservations(rents []api.Rental) {
	cache, err := storage.LoadLocalCache()
	if err != nil || len(cache) == 0 {
		return
	}
	changed := false
	for _, rent := range rents {
		next, removed := cache.Without(rent.ToolRef(), availability.RentalID(rent.ID))
		if removed {
			cache = next
			changed = true
		}
	}
	if !changed {
		return
	}
	if err := storage.SaveLocalCache(cache.Prune(now())); err != nil {
		logger.Warn().Err(err).Msg("save reservation cache")
	}
}

func rentalsStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show rental stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.OpenRentalsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rentals, err := storage.ListRentals(db, storage.RentalFilter{})
			if err != nil {
				return err
			}
			if len(rentals) == 0 {
				fmt.Fprintln(stdout, "No rentals found.")
				return nil
			}

			stats := computeRentalStats(rentals, now())
			if outputJSON {
				return writeJSON(stats)
			}

			fmt.Fprintf(stdout, "Total rentals: %d\n", stats.TotalRentals)
			fmt.Fprintf(stdout, "Total spent: %s\n", formatMoney(stats.TotalSpent))
			fmt.Fprintf(stdout, "Days rented: %d\n", stats.TotalDays)
			fmt.Fprintf(stdout, "Favourite tool: %s (%d rentals)\n", stats.FavouriteTool, stats.FavouriteToolUses)
			fmt.Fprintf(stdout, "Last rental: %s\n", stats.LastRental)
			return nil
		},
	}

	return cmd
}

func rentalsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a rental from local history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			db, err := storage.OpenRentalsDB()
			if err != nil {
				return err
			}
			defer db.Close()

			removed, err := storage.RemoveRental(db, id)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("rental %q not found", id)
			}

			fmt.Fprintf(stdout, "Removed rental %s.\n", id)
			return nil
		},
	}

	return cmd
}

// computeRentalStats ignores rejected and cancelled rentals for money and days.
func computeRentalStats(rentals []storage.RentalRecord, at time.Time) RentalStats {
	stats := RentalStats{TotalRentals: len(rentals)}

	counts := map[string]int{}
	today := availability.Day(at).Format("2006-01-02")
	last := ""
	for _, r := range rentals {
		switch strings.ToUpper(r.Status) {
		case api.StatusRejected, api.StatusCancelled:
			continue
		}
		stats.TotalSpent += r.TotalPrice
		stats.TotalDays += r.Days
		name := r.ToolName
		if name == "" {
			name = fmt.Sprintf("#%d", r.ToolID)
		}
		counts[name]++
		if r.StartDate <= today && r.StartDate > last {
			last = r.StartDate
		}
	}
	stats.TotalSpent = roundMoney(stats.TotalSpent)

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	stats.FavouriteTool = "N/A"
	for _, name := range names {
		if counts[name] > stats.FavouriteToolUses {
			stats.FavouriteTool = name
			stats.FavouriteToolUses = counts[name]
		}
	}

	stats.LastRental = "N/A"
	if last != "" {
		stats.LastRental = last
	}
	return stats
}
