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

func insertTicket(t *testing.T, db *sql.DB) (model.Ticket, *TicketRepo) {
	t.Helper()
	ctx := context.Background()
	uid := dbtest.InsertUser(t, db, "priya@example.com", model.RoleCustomer)
	fid := dbtest.InsertFlight(t, db, dbtest.FlightFixture{Departure: time.Now().Add(48 * time.Hour)})
	tickets := NewTicketRepo(db)
	p := model.Passenger{UserID: &uid, FirstName: "Priya", LastName: "Krishnan", Email: "priya@example.com"}
	tk := model.Ticket{
		TicketNumber: "TK-1", FlightID: fid, UserID: uid, SeatNumber: "12A", SeatClass: model.SeatEconomy,
		BookingReference: "BKG-1", Price: model.MustMoney("4500"), Status: model.TicketConfirmed,
	}
	withTx(t, db, func(tx *sql.Tx) {
		require.NoError(t, NewPassengerRepo(db).CreateTx(ctx, tx, &p))
		tk.PassengerID = p.ID
		require.NoError(t, tickets.CreateTx(ctx, tx, &tk))
	})
	return tk, tickets
}

func TestTicketRepo_GuardedTransitions(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tk, tickets := insertTicket(t, db)

	require.NoError(t, tickets.CheckIn(ctx, tk.ID))
	assert.ErrorIs(t, tickets.CheckIn(ctx, tk.ID), ErrStaleState)

	withTx(t, db, func(tx *sql.Tx) {
		assert.ErrorIs(t, tickets.MoveSeatTx(ctx, tx, tk.ID, "1A", "2A", model.SeatBusiness), ErrStaleState)
		require.NoError(t, tickets.MoveSeatTx(ctx, tx, tk.ID, "12A", "14C", model.SeatEconomy))
		require.NoError(t, tickets.CancelTx(ctx, tx, tk.ID))
		assert.ErrorIs(t, tickets.CancelTx(ctx, tx, tk.ID), ErrStaleState)
	})

	got, err := tickets.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, got.Status)
	assert.True(t, got.CheckedIn)
	assert.Equal(t, "14C", got.SeatNumber)
	assert.Equal(t, "4500.00", got.Price.String())
}

func TestTicketRepo_CheckInTxRollsBack(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tk, tickets := insertTicket(t, db)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, tickets.CheckInTx(ctx, tx, tk.ID))
	assert.ErrorIs(t, tickets.CheckInTx(ctx, tx, tk.ID), ErrStaleState)
	require.NoError(t, tx.Rollback())

	got, err := tickets.GetByID(ctx, tk.ID)
	require.NoError(t, err)
	assert.False(t, got.CheckedIn)
	assert.Equal(t, model.TicketConfirmed, got.Status)
}

func TestTicketRepo_Detail(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	tk, tickets := insertTicket(t, db)

	d, err := tickets.GetDetail(ctx, tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "AI101", d.Flight.FlightNumber)
	assert.Equal(t, "Krishnan", d.Passenger.LastName)

	list, err := tickets.ListDetailByUser(ctx, tk.UserID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = tickets.ListDetailByUser(ctx, tk.UserID+100)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = tickets.GetDetail(ctx, 9999)
	assert.ErrorIs(t, err, ErrTicketNotFound)

	withTx(t, db, func(tx *sql.Tx) {
		n, err := tickets.CountByFlightTx(ctx, tx, tk.FlightID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}
