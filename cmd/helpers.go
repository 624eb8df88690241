package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"toolrent-cli/availability"
	"toolrent-cli/session"
)

func parseDateInput(input string) (time.Time, error) {
	if input == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	today := availability.Day(now())
	switch strings.ToLower(input) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}
	parsed, err := time.Parse("2006-01-02", input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", input)
	}
	return parsed, nil
}

func parseDateRange(from, to string) (availability.DateRange, error) {
	if from == "" || to == "" {
		return availability.DateRange{}, fmt.Errorf("--from and --to are required")
	}
	start, err := parseDateInput(from)
	if err != nil {
		return availability.DateRange{}, err
	}
	end, err := parseDateInput(to)
	if err != nil {
		return availability.DateRange{}, err
	}
	if end.Before(start) {
		return availability.DateRange{}, fmt.Errorf("--to must be on or after --from")
	}
	return availability.DateRange{Start: start, End: end}, nil
}

func parseMonthInput(input string) (time.Time, error) {
	if input == "" {
		return time.Date(now().Year(), now().Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.Parse("2006-01", input)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", input)
	}
	return parsed, nil
}

func parseID(input string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", input)
	}
	return id, nil
}

func requireSession() (session.Session, error) {
	current, err := sessions.Require(now())
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return session.Session{}, fmt.Errorf("not logged in. Run 'toolrent auth login' first")
	case errors.Is(err, session.ErrExpired):
		if clearErr := sessions.Logout(); clearErr != nil {
			logger.Warn().Err(clearErr).Msg("clear expired session")
		}
		return session.Session{}, fmt.Errorf("token expired. Run 'toolrent auth login' to re-authenticate")
	case err != nil:
		return session.Session{}, err
	}
	return current, nil
}

func requireAdmin() (session.Session, error) {
	current, err := requireSession()
	if err != nil {
		return session.Session{}, err
	}
	if !current.IsAdmin() {
		return session.Session{}, fmt.Errorf("admin role required (signed in as %s)", current.DisplayName())
	}
	return current, nil
}

func writeJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(stdout, 2, 2, 2, ' ', 0)
}

func roundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

func formatMoney(amount float64) string {
	return fmt.Sprintf("%s %.2f", cfg.Checkout.Currency, amount)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}

// confirm reads one line; anything but n/no counts as yes.
func confirm(prompt string) (bool, error) {
	fmt.Fprint(stdout, prompt)
	reader := bufio.NewReader(stdin)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "n", "no":
		return false, nil
	}
	return true, nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
