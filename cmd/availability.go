package cmd

import (
	"context"
	"fmt"

	"toolrent-cli/api"
	"toolrent-cli/availability"
	"toolrent-cli/storage"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type toolAvailability struct {
	Tool    api.Tool                 `json:"tool"`
	Blocked []availability.DateRange `json:"blocked"`
}

type AvailabilityOutput struct {
	ToolID          int64                   `json:"tool_id"`
	ToolName        string                  `json:"tool_name"`
	StartDate       string                  `json:"start_date"`
	EndDate         string                  `json:"end_date"`
	Days            int                     `json:"days"`
	TotalPrice      float64                 `json:"total_price"`
	Available       bool                    `json:"available"`
	LocalConflict   *availability.DateRange `json:"local_conflict,omitempty"`
	ServerAvailable *bool                   `json:"server_available,omitempty"`
}

// loadToolAvailability fetches the tool and its rentals concurrently and
// merges them with the local reservation cache.
func loadToolAvailability(ctx context.Context, toolID int64) (toolAvailability, error) {
	var tool api.Tool
	var rents []api.Rental

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		tool, err = client.GetTool(gctx, toolID)
		return err
	})
	group.Go(func() error {
		var err error
		rents, err = client.ListRents(gctx, toolID)
		return err
	})
	if err := group.Wait(); err != nil {
		return toolAvailability{}, err
	}

	cache, err := storage.LoadLocalCache()
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring unreadable reservation cache")
		cache = availability.LocalCache{}
	}

	blocked := availability.ComputeBlockedRanges(toolID, rents, cache, now())
	logger.Debug().Int64("tool_id", toolID).Int("rentals", len(rents)).Int("blocked", len(blocked)).Msg("availability computed")
	return toolAvailability{Tool: tool, Blocked: blocked}, nil
}

func availabilityCmd() *cobra.Command {
	var from string
	var to string
	var skipServer bool

	cmd := &cobra.Command{
		Use:   "availability <tool-id>",
		Short: "Check whether a tool can be rented for a date range",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			toolID, err := parseID(args[0])
			if err != nil {
				return err
			}
			candidate, err := parseDateRange(from, to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			view, err := loadToolAvailability(ctx, toolID)
			if err != nil {
				return err
			}

			days := availability.DaysBetween(candidate.Start, candidate.End, true)
			output := AvailabilityOutput{
				ToolID:     toolID,
				ToolName:   view.Tool.Name,
				StartDate:  candidate.Start.Format("2006-01-02"),
				EndDate:    candidate.End.Format("2006-01-02"),
				Days:       days,
				TotalPrice: roundMoney(float64(days) * view.Tool.DailyPrice),
				Available:  true,
			}
			if conflict, found := availability.FirstConflict(candidate, view.Blocked); found {
				output.Available = false
				output.LocalConflict = &conflict
			}
			if output.Available && !skipServer {
				ok, err := client.CheckAvailability(ctx, toolID, candidate.Start, candidate.End)
				if err != nil {
					return err
				}
				output.ServerAvailable = &ok
				output.Available = ok
			}

			if outputJSON {
				return writeJSON(output)
			}
			return renderAvailability(output)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First rental day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last rental day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&skipServer, "local-only", false, "Skip the server availability check")
	return cmd
}

func renderAvailability(output AvailabilityOutput) error {
	fmt.Fprintf(stdout, "%s (#%d)\n", output.ToolName, output.ToolID)
	fmt.Fprintf(stdout, "%s to %s | %d day(s) | %s\n", output.StartDate, output.EndDate, output.Days, formatMoney(output.TotalPrice))
	switch {
	case output.LocalConflict != nil:
		fmt.Fprintf(stdout, "Unavailable: overlaps %s rental %s.\n", output.LocalConflict.Status, output.LocalConflict)
	case !output.Available:
		fmt.Fprintln(stdout, "Unavailable: the server reports the tool is taken for these dates.")
	default:
		fmt.Fprintln(stdout, "Available.")
	}
	return nil
}

func checkBookable(ctx context.Context, view toolAvailability, candidate availability.DateRange) error {
	if conflict, found := availability.FirstConflict(candidate, view.Blocked); found {
		return fmt.Errorf("%w: %s is %s", availability.ErrRangeBlocked, conflict, conflict.Status)
	}
	ok, err := client.CheckAvailability(ctx, view.Tool.ID, candidate.Start, candidate.End)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: server reports tool %d unavailable", availability.ErrRangeBlocked, view.Tool.ID)
	}
	return nil
}
