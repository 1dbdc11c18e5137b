package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/model"
)

func TestBuildSeatMap_DefaultLayout(t *testing.T) {
	seats := BuildSeatMap(7, model.DefaultLayout())

	require.Len(t, seats, 162)
	assert.Equal(t, "1A", seats[0].SeatNumber)
	assert.Equal(t, "1C", seats[1].SeatNumber)
	assert.Equal(t, model.SeatBusiness, seats[0].SeatClass)
	assert.Equal(t, "2000.00", seats[0].PriceDelta.String())
	// business has three rows of four, economy starts at row 4
	assert.Equal(t, "4A", seats[12].SeatNumber)
	assert.Equal(t, model.SeatEconomy, seats[12].SeatClass)
	assert.Equal(t, "28F", seats[161].SeatNumber)
	for _, s := range seats {
		assert.Equal(t, uint64(7), s.FlightID)
		assert.True(t, s.IsAvailable)
	}
}

func TestSeatLess(t *testing.T) {
	nums := []string{"10A", "2B", "1C", "2A", "1A", "28F", "9F"}
	sort.Slice(nums, func(i, j int) bool { return SeatLess(nums[i], nums[j]) })
	assert.Equal(t, []string{"1A", "1C", "2A", "2B", "9F", "10A", "28F"}, nums)
}

func TestValidateLayout(t *testing.T) {
	ok := []model.SeatBlock{{Rows: 2, SeatClass: model.SeatFirst, Columns: []string{"a", "F"}}}
	assert.NoError(t, ValidateLayout(ok))

	tests := []struct {
		name   string
		layout []model.SeatBlock
		field  string
	}{
		{"empty", nil, "layout"},
		{"no rows", []model.SeatBlock{{Rows: 0, SeatClass: model.SeatEconomy, Columns: []string{"A"}}}, "layout[0].rows"},
		{"no columns", []model.SeatBlock{{Rows: 1, SeatClass: model.SeatEconomy}}, "layout[0].columns"},
		{"bad class", []model.SeatBlock{{Rows: 1, SeatClass: "cargo", Columns: []string{"A"}}}, "layout[0].seat_class"},
		{"duplicate column", []model.SeatBlock{{Rows: 1, SeatClass: model.SeatEconomy, Columns: []string{"A", "a"}}}, "layout[0].columns"},
		{"negative delta", []model.SeatBlock{{Rows: 1, SeatClass: model.SeatEconomy, Columns: []string{"A"}, PriceDelta: model.MustMoney("-1")}}, "layout[0].price_delta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLayout(tt.layout)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestInventory_ListSeats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)

	seats, err := env.inventory.ListSeats(ctx, fid)
	require.NoError(t, err)
	require.Len(t, seats, 162)
	for i := 1; i < len(seats); i++ {
		assert.True(t, SeatLess(seats[i-1].SeatNumber, seats[i].SeatNumber))
	}

	_, err = env.inventory.ListSeats(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.inventory.GetSeat(ctx, fid, "30A")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventory_ReserveAndRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)

	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.inventory.Reserve(ctx, tx, fid, "3F"))
	assert.ErrorIs(t, env.inventory.Reserve(ctx, tx, fid, "3F"), ErrSeatUnavailable)
	assert.ErrorIs(t, env.inventory.Reserve(ctx, tx, fid, "3B"), ErrNotFound)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 161, env.flight(t, fid).AvailableSeats)

	tx, err = env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.inventory.Release(ctx, tx, fid, "3F"))
	assert.ErrorIs(t, env.inventory.Release(ctx, tx, fid, "3F"), ErrConflict)
	require.NoError(t, tx.Commit())
	assert.Equal(t, 162, env.flight(t, fid).AvailableSeats)
}

func TestInventory_SetAvailabilityAndReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)

	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, env.inventory.SetAvailability(ctx, tx, fid, "1a", false))
	require.NoError(t, env.inventory.SetAvailability(ctx, tx, fid, "1C", false))
	assert.ErrorIs(t, env.inventory.SetAvailability(ctx, tx, fid, "77A", false), ErrNotFound)
	require.NoError(t, tx.Commit())

	// the aggregate is untouched until reconciled
	assert.Equal(t, 162, env.flight(t, fid).AvailableSeats)
	f, err := env.inventory.Reconcile(ctx, fid)
	require.NoError(t, err)
	assert.Equal(t, 160, f.AvailableSeats)

	_, err = env.inventory.Reconcile(ctx, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInventory_CreateSeatMapOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	layout := []model.SeatBlock{{Rows: 2, SeatClass: model.SeatEconomy, Columns: []string{"A", "B"}}}
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	_, err := env.db.Exec("DELETE FROM seats WHERE flight_id = ?", fid)
	require.NoError(t, err)

	tx, err := env.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	n, err := env.inventory.CreateSeatMap(ctx, tx, fid, layout)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	_, err = env.inventory.CreateSeatMap(ctx, tx, fid, layout)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, tx.Rollback())
}
