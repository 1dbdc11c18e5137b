package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/database/dbtest"
	"github.com/iliyamo/flight-booking/internal/model"
)

func withTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	fn(tx)
	require.NoError(t, tx.Commit())
}

func TestSeatRepo_ReserveIsCompareAndSwap(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	seats := NewSeatRepo(db)
	fid := dbtest.InsertFlight(t, db, dbtest.FlightFixture{Departure: time.Now().Add(48 * time.Hour)})

	withTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, seats.ReserveTx(ctx, tx, fid, "12A"))
		assert.ErrorIs(t, seats.ReserveTx(ctx, tx, fid, "12A"), ErrSeatTaken)
		assert.ErrorIs(t, seats.ReserveTx(ctx, tx, fid, "99Z"), ErrSeatNotFound)
	})
	st, err := seats.Get(ctx, fid, "12A")
	require.NoError(t, err)
	assert.False(t, st.IsAvailable)

	withTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, seats.ReleaseTx(ctx, tx, fid, "12A"))
		assert.ErrorIs(t, seats.ReleaseTx(ctx, tx, fid, "12A"), ErrStaleState)
	})
}

func TestSeatRepo_CountAndBulkCreate(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	seats := NewSeatRepo(db)
	layout := []model.SeatBlock{{Rows: 1, SeatClass: model.SeatEconomy, Columns: []string{"A", "B"}}}
	fid := dbtest.InsertFlight(t, db, dbtest.FlightFixture{Departure: time.Now().Add(time.Hour), Layout: layout})

	withTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, seats.SetAvailabilityTx(ctx, tx, fid, "1B", false))
		// unchanged value still resolves the seat
		require.NoError(t, seats.SetAvailabilityTx(ctx, tx, fid, "1B", false))
		assert.ErrorIs(t, seats.SetAvailabilityTx(ctx, tx, fid, "7C", false), ErrSeatNotFound)
		n, err := seats.CountAvailableTx(ctx, tx, fid)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		err = seats.CreateBulkTx(ctx, tx, []model.Seat{{FlightID: fid, SeatNumber: "1A", SeatClass: model.SeatEconomy}})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	all, err := seats.ListByFlight(ctx, fid)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1A", all[0].SeatNumber)
	assert.Equal(t, "0.00", all[0].PriceDelta.String())
}
