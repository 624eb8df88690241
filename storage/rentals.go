package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const (
	SourceCheckout = "cli_checkout"
	SourceSync     = "server_sync"
)

type RentalRecord struct {
	ID            string  `json:"id"`
	ToolID        int64   `json:"tool_id"`
	ToolName      string  `json:"tool_name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Days          int     `json:"days"`
	TotalPrice    float64 `json:"total_price"`
	Status        string  `json:"status"`
	PayPalOrderID string  `json:"paypal_order_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
	Source        string  `json:"source"`
}

type RentalFilter struct {
	From     string
	To       string
	Status   string
	Past     bool
	Upcoming bool
	NowDate  string
}

func OpenRentalsDB() (*sql.DB, error) {
	if _, err := ensureConfigDir(); err != nil {
		return nil, err
	}
	path, err := RentalsPath()
	if err != nil {
		return nil, err
	}
	return OpenRentalsDBAt(path)
}

func OpenRentalsDBAt(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := ensureRentalsSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func ensureRentalsSchema(db *sql.DB) error {
	createTable := `
CREATE TABLE IF NOT EXISTS rentals (
  id TEXT PRIMARY KEY,
  tool_id INTEGER,
  tool_name TEXT,
  start_date TEXT,
  end_date TEXT,
  days INTEGER,
  total_price REAL,
  status TEXT,
  created_at TEXT,
  source TEXT
);`

	if _, err := db.Exec(createTable); err != nil {
		return fmt.Errorf("create rentals table: %w", err)
	}

	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS idx_rentals_start ON rentals(start_date);"); err != nil {
		return fmt.Errorf("create rentals index: %w", err)
	}

	if err := ensureRentalsColumns(db, []string{"paypal_order_id"}); err != nil {
		return err
	}

	return nil
}

func ensureRentalsColumns(db *sql.DB, columns []string) error {
	rows, err := db.Query("PRAGMA table_info(rentals);")
	if err != nil {
		return fmt.Errorf("inspect rentals table: %w", err)
	}
	defer rows.Close()

	existing := map[string]struct{}{}
	for rows.Next() {
		var cid int
		var name string
		var ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect rentals columns: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect rentals columns: %w", err)
	}

	for _, column := range columns {
		if _, ok := existing[column]; ok {
			continue
		}
		_, err := db.Exec(fmt.Sprintf("ALTER TABLE rentals ADD COLUMN %s TEXT;", column))
		if err != nil {
			return fmt.Errorf("add rentals column %s: %w", column, err)
		}
	}
	return nil
}

const insertRental = `
INSERT %s INTO rentals (
  id, tool_id, tool_name, start_date, end_date, days, total_price, status, paypal_order_id, created_at, source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

func rentalArgs(r RentalRecord) []any {
	return []any{
		r.ID,
		r.ToolID,
		r.ToolName,
		r.StartDate,
		r.EndDate,
		r.Days,
		r.TotalPrice,
		r.Status,
		r.PayPalOrderID,
		r.CreatedAt,
		r.Source,
	}
}

func AddRental(db *sql.DB, rental RentalRecord) error {
	_, err := db.Exec(fmt.Sprintf(insertRental, ""), rentalArgs(rental)...)
	if err != nil {
		return fmt.Errorf("add rental %s: %w", rental.ID, err)
	}
	return nil
}

func AddRentalIfNotExists(db *sql.DB, rental RentalRecord) (bool, error) {
	res, err := db.Exec(fmt.Sprintf(insertRental, "OR IGNORE"), rentalArgs(rental)...)
	if err != nil {
		return false, fmt.Errorf("add rental %s: %w", rental.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateRentalStatus returns false when no row has that id or the status is unchanged.
func UpdateRentalStatus(db *sql.DB, id, status string) (bool, error) {
	status = strings.ToUpper(status)
	res, err := db.Exec("UPDATE rentals SET status = ? WHERE id = ? AND status <> ?", status, id, status)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func RemoveRental(db *sql.DB, id string) (bool, error) {
	res, err := db.Exec("DELETE FROM rentals WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func ListRentals(db *sql.DB, filter RentalFilter) ([]RentalRecord, error) {
	base := `
SELECT id, tool_id, tool_name, start_date, end_date, days, total_price, status, paypal_order_id, created_at, source
FROM rentals`

	conds := []string{}
	args := []any{}

	if filter.From != "" {
		conds = append(conds, "end_date >= ?")
		args = append(args, filter.From)
	}
	if filter.To != "" {
		conds = append(conds, "start_date <= ?")
		args = append(args, filter.To)
	}
	if filter.From == "" && filter.To == "" {
		if filter.Past {
			conds = append(conds, "end_date < ?")
			args = append(args, filter.NowDate)
		}
		if filter.Upcoming {
			conds = append(conds, "end_date >= ?")
			args = append(args, filter.NowDate)
		}
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, strings.ToUpper(filter.Status))
	}

	query := base
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY start_date, id"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rentals := []RentalRecord{}
	for rows.Next() {
		var rental RentalRecord
		var toolName sql.NullString
		var price sql.NullFloat64
		var orderID sql.NullString
		if err := rows.Scan(
			&rental.ID,
			&rental.ToolID,
			&toolName,
			&rental.StartDate,
			&rental.EndDate,
			&rental.Days,
			&price,
			&rental.Status,
			&orderID,
			&rental.CreatedAt,
			&rental.Source,
		); err != nil {
			return nil, err
		}
		rental.ToolName = toolName.String
		rental.TotalPrice = price.Float64
		rental.PayPalOrderID = orderID.String
		rentals = append(rentals, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rentals, nil
}
