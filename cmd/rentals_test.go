package cmd

import (
	"encoding/json"
	"net/http"
	"testing"

	"toolrent-cli/api"
	"toolrent-cli/availability"
	"toolrent-cli/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRentalStats(t *testing.T) {
	rentals := []storage.RentalRecord{
		{ID: "1", ToolID: 5, ToolName: "Drill", StartDate: "2026-01-10", EndDate: "2026-01-12", Days: 3, TotalPrice: 37.5, Status: "APPROVED"},
		{ID: "2", ToolID: 5, ToolName: "Drill", StartDate: "2026-02-20", EndDate: "2026-02-20", Days: 1, TotalPrice: 12.5, Status: "COMPLETED"},
		{ID: "3", ToolID: 9, ToolName: "Serra", StartDate: "2026-02-25", EndDate: "2026-02-26", Days: 2, TotalPrice: 40, Status: "PENDING"},
		{ID: "4", ToolID: 9, ToolName: "Serra", StartDate: "2026-02-27", EndDate: "2026-02-28", Days: 2, TotalPrice: 40, Status: "CANCELLED"},
		{ID: "5", ToolID: 2, ToolName: "Ladder", StartDate: "2026-04-01", EndDate: "2026-04-02", Days: 2, TotalPrice: 10, Status: "PENDING"},
	}

	stats := computeRentalStats(rentals, fixedNow)
	assert.Equal(t, 5, stats.TotalRentals)
	assert.InDelta(t, 100.0, stats.TotalSpent, 0.001)
	assert.Equal(t, 8, stats.TotalDays)
	assert.Equal(t, "Drill", stats.FavouriteTool)
	assert.Equal(t, 2, stats.FavouriteToolUses)
	assert.Equal(t, "2026-02-25", stats.LastRental)
}

func TestComputeRentalStatsEmptyLastRental(t *testing.T) {
	stats := computeRentalStats([]storage.RentalRecord{
		{ID: "1", ToolID: 2, StartDate: "2026-05-01", EndDate: "2026-05-02", Days: 2, Status: "PENDING"},
	}, fixedNow)
	assert.Equal(t, "N/A", stats.LastRental)
	assert.Equal(t, "#2", stats.FavouriteTool)
}

func TestOwnRentals(t *testing.T) {
	rents := []api.Rental{
		{ID: 1, UserID: 7},
		{ID: 2, User: &api.RentalUser{ID: 8}},
		{ID: 3},
		{ID: 4, User: &api.RentalUser{ID: 7}},
	}

	mine := ownRentals(rents, 7)
	ids := []int64{}
	for _, r := range mine {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{1, 3, 4}, ids)
	assert.Len(t, ownRentals(rents, 0), 4)
}

func TestRecordFromRental(t *testing.T) {
	withNow(t, fixedNow)

	record, ok := recordFromRental(api.Rental{
		ID:         11,
		Tool:       &api.RentalTool{ID: 5},
		Status:     "approved",
		StartDate:  "2026-03-10T00:00:00",
		EndDate:    "2026-03-12",
		TotalPrice: 37.5,
	}, map[int64]string{5: "Drill"})
	require.True(t, ok)
	assert.Equal(t, "11", record.ID)
	assert.Equal(t, int64(5), record.ToolID)
	assert.Equal(t, "Drill", record.ToolName)
	assert.Equal(t, "2026-03-10", record.StartDate)
	assert.Equal(t, 3, record.Days)
	assert.Equal(t, "APPROVED", record.Status)
	assert.Equal(t, storage.SourceSync, record.Source)
	assert.NotEmpty(t, record.CreatedAt)

	_, ok = recordFromRental(api.Rental{ID: 12, StartDate: "soon", EndDate: "2026-03-12"}, nil)
	assert.False(t, ok)
}

func TestRentalsSync(t *testing.T) {
	fake := newTestEnv(t)
	loginAs(t, "token-ana", api.User{ID: 7})
	fake.reply(http.MethodGet, "/api/tools", http.StatusOK, []api.Tool{drill})
	fake.reply(http.MethodGet, "/api/rents", http.StatusOK, []api.Rental{
		{ID: 42, ToolID: 5, UserID: 7, Status: "APPROVED", StartDate: "2026-03-10", EndDate: "2026-03-12", TotalPrice: 37.5},
		{ID: 43, ToolID: 5, UserID: 8, Status: "PENDING", StartDate: "2026-03-20", EndDate: "2026-03-21"},
		{ID: 44, ToolID: 5, UserID: 7, Status: "PENDING", StartDate: "bad", EndDate: "2026-03-21"},
	})

	db, err := storage.OpenRentalsDB()
	require.NoError(t, err)
	require.NoError(t, storage.AddRental(db, storage.RentalRecord{
		ID: "42", ToolID: 5, ToolName: "Drill", StartDate: "2026-03-10", EndDate: "2026-03-12",
		Days: 3, TotalPrice: 37.5, Status: "PENDING", CreatedAt: "2026-02-28T10:00:00Z", Source: storage.SourceCheckout,
	}))
	require.NoError(t, db.Close())

	cache := availability.LocalCache{}.WithReservation(5, availability.DateRange{ID: "42", Start: fixedNow.AddDate(0, 0, 9), End: fixedNow.AddDate(0, 0, 11)})
	require.NoError(t, storage.SaveLocalCache(cache))

	out, err := runCLI(t, "", "rentals", "sync", "--json")
	require.NoError(t, err)

	var result syncResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, syncResult{Added: 0, Updated: 1, Skipped: 1, Total: 2}, result)

	db, err = storage.OpenRentalsDB()
	require.NoError(t, err)
	defer db.Close()
	history, err := storage.ListRentals(db, storage.RentalFilter{})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "APPROVED", history[0].Status)

	cache, err = storage.LoadLocalCache()
	require.NoError(t, err)
	assert.Empty(t, cache.For(5))
}

func TestRentalsListUpcomingAndPast(t *testing.T) {
	newTestEnv(t)
	db, err := storage.OpenRentalsDB()
	require.NoError(t, err)
	for _, r := range []storage.RentalRecord{
		{ID: "1", ToolID: 5, ToolName: "Drill", StartDate: "2026-02-01", EndDate: "2026-02-02", Days: 2, Status: "COMPLETED", CreatedAt: "x", Source: storage.SourceSync},
		{ID: "2", ToolID: 9, ToolName: "Serra", StartDate: "2026-03-05", EndDate: "2026-03-06", Days: 2, Status: "PENDING", CreatedAt: "x", Source: storage.SourceSync},
	} {
		require.NoError(t, storage.AddRental(db, r))
	}
	require.NoError(t, db.Close())

	out, err := runCLI(t, "", "rentals", "list", "--json")
	require.NoError(t, err)
	var upcoming []storage.RentalRecord
	require.NoError(t, json.Unmarshal([]byte(out), &upcoming))
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Serra", upcoming[0].ToolName)

	out, err = runCLI(t, "", "rentals", "list", "--past", "--json")
	require.NoError(t, err)
	var past []storage.RentalRecord
	require.NoError(t, json.Unmarshal([]byte(out), &past))
	require.Len(t, past, 1)
	assert.Equal(t, "Drill", past[0].ToolName)

	_, err = runCLI(t, "", "rentals", "remove", "1")
	require.NoError(t, err)
	_, err = runCLI(t, "", "rentals", "remove", "1")
	assert.ErrorContains(t, err, "not found")
}
