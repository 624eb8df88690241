package cmd

import (
	"fmt"
	"strings"
	"time"

	"toolrent-cli/api"
	"toolrent-cli/availability"
	"toolrent-cli/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type RentOutput struct {
	RentalID      int64   `json:"rental_id"`
	ToolID        int64   `json:"tool_id"`
	ToolName      string  `json:"tool_name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Days          int     `json:"days"`
	TotalPrice    float64 `json:"total_price"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	PayPalOrderID string  `json:"paypal_order_id"`
}

func rentCmd() *cobra.Command {
	var from string
	var to string
	var yes bool

	cmd := &cobra.Command{
		Use:   "rent <tool-id>",
		Short: "Rent a tool and pay with PayPal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := requireSession()
			if err != nil {
				return err
			}
			toolID, err := parseID(args[0])
			if err != nil {
				return err
			}
			candidate, err := parseDateRange(from, to)
			if err != nil {
				return err
			}
			if candidate.Start.Before(availability.Day(now())) {
				return fmt.Errorf("--from must not be in the past")
			}

			ctx := cmd.Context()
			view, err := loadToolAvailability(ctx, toolID)
			if err != nil {
				return err
			}
			if err := checkBookable(ctx, view, candidate); err != nil {
				return err
			}

			tool := view.Tool
			days := availability.DaysBetween(candidate.Start, candidate.End, true)
			total := roundMoney(float64(days) * tool.DailyPrice)
			startDate := candidate.Start.Format("2006-01-02")
			endDate := candidate.End.Format("2006-01-02")

			order, err := client.CreatePayPalOrder(ctx, api.PayPalOrderRequest{
				ToolID:    toolID,
				Amount:    fmt.Sprintf("%.2f", total),
				Currency:  cfg.Checkout.Currency,
				StartDate: startDate,
				EndDate:   endDate,
			}, uuid.NewString())
			if err != nil {
				return err
			}
			logger.Info().Str("order_id", order.ID).Int64("tool_id", toolID).Float64("total", total).Msg("paypal order created")

			if !outputJSON {
				fmt.Fprintf(stdout, "%s | %s to %s | %d day(s) | %s\n", tool.Name, startDate, endDate, days, formatMoney(total))
			}
			if !yes {
				if link := order.ApprovalURL(); link != "" {
					fmt.Fprintf(stdout, "Approve the payment in PayPal:\n  %s\n", link)
				}
				ok, err := confirm("Press Enter once approved (n to cancel): ")
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("checkout cancelled; PayPal order %s was not captured", order.ID)
				}
			}

			captured, err := client.CapturePayPalOrder(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("capture paypal order %s: %w", order.ID, err)
			}
			if !strings.EqualFold(captured.Status, api.PayPalCompleted) {
				return fmt.Errorf("paypal order %s not completed (status %s)", order.ID, captured.Status)
			}

			rent, err := client.CreateRent(ctx, api.RentalInput{
				ToolID:        toolID,
				StartDate:     startDate,
				EndDate:       endDate,
				TotalPrice:    total,
				PayPalOrderID: captured.ID,
			})
			if err != nil {
				return fmt.Errorf("payment %s captured but rental was not created: %w", captured.ID, err)
			}
			status := strings.ToUpper(rent.Status)
			if status == "" {
				status = api.StatusPending
			}

			rememberReservation(toolID, availability.DateRange{
				ID:     availability.RentalID(rent.ID),
				Start:  candidate.Start,
				End:    candidate.End,
				Status: api.StatusPending,
			})
			recordRental(storage.RentalRecord{
				ID:            availability.RentalID(rent.ID),
				ToolID:        toolID,
				ToolName:      tool.Name,
				StartDate:     startDate,
				EndDate:       endDate,
				Days:          days,
				TotalPrice:    total,
				Status:        status,
				PayPalOrderID: captured.ID,
				CreatedAt:     now().UTC().Format(time.RFC3339),
				Source:        storage.SourceCheckout,
			})
			logger.Info().Int64("rental_id", rent.ID).Int64("user_id", current.UserID()).Msg("rental created")

			output := RentOutput{
				RentalID:      rent.ID,
				ToolID:        toolID,
				ToolName:      tool.Name,
				StartDate:     startDate,
				EndDate:       endDate,
				Days:          days,
				TotalPrice:    total,
				Currency:      cfg.Checkout.Currency,
				Status:        status,
				PayPalOrderID: captured.ID,
			}
			if outputJSON {
				return writeJSON(output)
			}
			fmt.Fprintf(stdout, "Rented: %s from %s to %s\n", tool.Name, startDate, endDate)
			fmt.Fprintf(stdout, "Rental ID: %d (%s)\n", rent.ID, strings.ToLower(status))
			fmt.Fprintf(stdout, "PayPal order: %s\n", captured.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First rental day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last rental day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&yes, "yes", false, "Capture without waiting for confirmation")
	return cmd
}

// rememberReservation adds the new rental to the local cache so calendars show
// it before the server lists it. Failures only cost that early display.
func rememberReservation(toolID int64, r availability.DateRange) {
	cache, err := storage.LoadLocalCache()
	if err != nil {
		logger.Warn().Err(err).Msg("reservation cache unreadable, starting a new one")
		cache = availability.LocalCache{}
	}
	cache = cache.Prune(now()).WithReservation(toolID, r)
	if err := storage.SaveLocalCache(cache); err != nil {
		logger.Warn().Err(err).Msg("save reservation cache")
	}
}

func recordRental(record storage.RentalRecord) {
	db, err := storage.OpenRentalsDB()
	if err != nil {
		logger.Warn().Err(err).Msg("open rental history")
		return
	}
	defer db.Close()

	if _, err := storage.AddRentalIfNotExists(db, record); err != nil {
		logger.Warn().Err(err).Str("rental_id", record.ID).Msg("record rental history")
	}
}
