package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/database/dbtest"
	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
)

func TestCheckIn_Window(t *testing.T) {
	tests := []struct {
		name      string
		departure time.Duration
		want      error
	}{
		{"too early", 25 * time.Hour, ErrCheckInWindowClosed},
		{"already departed", -time.Minute, ErrFlightDeparted},
		{"inside window", 2 * time.Hour, nil},
		{"window boundary", 24 * time.Hour, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.allowEvents()
			// book while the flight is still in the future, then move it
			fid := env.flightIn(t, "AI101", 72*time.Hour)
			res := env.book(t, env.customer, fid, "10B")
			_, err := env.db.Exec("UPDATE flights SET departure_time = ? WHERE id = ?", env.now.Add(tt.departure), fid)
			require.NoError(t, err)

			tk, err := env.lifecycle.CheckIn(context.Background(), env.customer, res.Ticket.ID)

			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.True(t, tk.CheckedIn)
			assert.Equal(t, model.TicketCheckedIn, tk.Status)
		})
	}
}

func TestCheckIn_Rules(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 3*time.Hour)
	res := env.book(t, env.customer, fid, "10B")

	_, err := env.lifecycle.CheckIn(ctx, env.other, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.lifecycle.CheckIn(ctx, env.employee, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.lifecycle.CheckIn(ctx, env.customer, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.lifecycle.CheckIn(ctx, env.customer, res.Ticket.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.CheckIn(ctx, env.customer, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	env.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(queue.EventTicketCheckedIn))
}

func TestCheckIn_CancelledTicket(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 3*time.Hour)
	res := env.book(t, env.customer, fid, "10B")
	_, err := env.lifecycle.Cancel(ctx, env.customer, res.Ticket.ID)
	require.NoError(t, err)

	_, err = env.lifecycle.CheckIn(ctx, env.customer, res.Ticket.ID)

	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestCheckIn_CustomWindow(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	env.lifecycle.CheckInWindow = 48 * time.Hour
	fid := env.flightIn(t, "AI101", 30*time.Hour)
	res := env.book(t, env.customer, fid, "10B")

	_, err := env.lifecycle.CheckIn(context.Background(), env.customer, res.Ticket.ID)

	assert.NoError(t, err)
}

func TestCancel_FreesSeatAndRefunds(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "5E")
	require.Equal(t, 161, env.flight(t, fid).AvailableSeats)

	tk, err := env.lifecycle.Cancel(ctx, env.customer, res.Ticket.ID)

	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, tk.Status)
	assert.True(t, env.seat(t, fid, "5E").IsAvailable)
	assert.Equal(t, 162, env.flight(t, fid).AvailableSeats)
	var status string
	require.NoError(t, env.db.QueryRow("SELECT status FROM transactions WHERE id = ?", res.Transaction.ID).Scan(&status))
	assert.Equal(t, model.TxRefunded, status)

	_, err = env.lifecycle.Cancel(ctx, env.customer, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)

	// the freed seat can be booked again
	again := env.book(t, env.other, fid, "5E")
	assert.Equal(t, "5E", again.Ticket.SeatNumber)
	env.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(queue.EventTicketCancelled))
}

func TestCancel_Authorization(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "5E")

	_, err := env.lifecycle.Cancel(ctx, env.other, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	tk, err := env.lifecycle.Cancel(ctx, env.employee, res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, tk.Status)
}

func TestCancel_DepartedFlight(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "5E")
	env.now = env.now.Add(49 * time.Hour)

	_, err := env.lifecycle.Cancel(context.Background(), env.customer, res.Ticket.ID)

	assert.ErrorIs(t, err, ErrFlightDeparted)
	assert.False(t, env.seat(t, fid, "5E").IsAvailable)
}

func TestChangeSeat(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")

	tk, err := env.lifecycle.ChangeSeat(ctx, env.customer, res.Ticket.ID, "2d")

	require.NoError(t, err)
	assert.Equal(t, "2D", tk.SeatNumber)
	assert.Equal(t, model.SeatBusiness, tk.SeatClass)
	// fare is kept from booking time
	assert.Equal(t, "4500.00", tk.Price.String())
	assert.True(t, env.seat(t, fid, "20A").IsAvailable)
	assert.False(t, env.seat(t, fid, "2D").IsAvailable)
	assert.Equal(t, 161, env.flight(t, fid).AvailableSeats)
	env.events.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(ev queue.TicketEvent) bool {
		return ev.Type == queue.EventTicketSeatChanged && ev.PreviousSeat == "20A" && ev.SeatNumber == "2D"
	}))
}

func TestChangeSeat_TakenSeatKeepsOriginal(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	mine := env.book(t, env.customer, fid, "20A")
	env.book(t, env.other, fid, "20B")

	// no availability pre-check: the conditional seat update refuses 20B
	_, err := env.lifecycle.ChangeSeat(ctx, env.customer, mine.Ticket.ID, "20B")

	assert.ErrorIs(t, err, ErrSeatUnavailable)
	tk, err := env.tickets.GetByID(ctx, mine.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "20A", tk.SeatNumber)
	assert.False(t, env.seat(t, fid, "20A").IsAvailable)
	assert.Equal(t, 160, env.flight(t, fid).AvailableSeats)
}

func TestChangeSeat_ConcurrentMovesToOneSeat(t *testing.T) {
	env := newTestEnvOn(t, dbtest.OpenConcurrent(t, 4))
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	a := env.book(t, env.customer, fid, "20A")
	b := env.book(t, env.other, fid, "20B")

	moves := []struct {
		caller Caller
		ticket model.Ticket
	}{
		{env.customer, a.Ticket},
		{env.other, b.Ticket},
	}
	errs := make([]error, len(moves))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, m := range moves {
		wg.Add(1)
		go func(i int, caller Caller, ticketID uint64) {
			defer wg.Done()
			<-start
			_, errs[i] = env.lifecycle.ChangeSeat(ctx, caller, ticketID, "2D")
		}(i, m.caller, m.ticket.ID)
	}
	close(start)
	wg.Wait()

	winners := 0
	for i, err := range errs {
		tk, gerr := env.tickets.GetByID(ctx, moves[i].ticket.ID)
		require.NoError(t, gerr)
		if err == nil {
			winners++
			assert.Equal(t, "2D", tk.SeatNumber)
			assert.True(t, env.seat(t, fid, moves[i].ticket.SeatNumber).IsAvailable)
			continue
		}
		assert.ErrorIs(t, err, ErrSeatUnavailable)
		// the loser keeps and still holds its original seat
		assert.Equal(t, moves[i].ticket.SeatNumber, tk.SeatNumber)
		assert.False(t, env.seat(t, fid, moves[i].ticket.SeatNumber).IsAvailable)
	}
	assert.Equal(t, 1, winners)
	assert.False(t, env.seat(t, fid, "2D").IsAvailable)
	assert.Equal(t, 160, env.flight(t, fid).AvailableSeats)
}

func TestChangeSeat_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")

	_, err := env.lifecycle.ChangeSeat(ctx, env.other, res.Ticket.ID, "20C")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.lifecycle.ChangeSeat(ctx, env.customer, res.Ticket.ID, "99Z")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.lifecycle.ChangeSeat(ctx, env.customer, res.Ticket.ID, "20a")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = env.lifecycle.Cancel(ctx, env.customer, res.Ticket.ID)
	require.NoError(t, err)
	_, err = env.lifecycle.ChangeSeat(ctx, env.customer, res.Ticket.ID, "20C")
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
}

func TestTicketReads(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")
	env.book(t, env.other, fid, "20B")

	d, err := env.lifecycle.Get(ctx, env.customer, res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketConfirmed, d.Status)
	assert.Equal(t, fid, d.Flight.ID)

	_, err = env.lifecycle.Get(ctx, env.other, res.Ticket.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.lifecycle.Get(ctx, env.employee, res.Ticket.ID)
	assert.NoError(t, err)

	all, err := env.lifecycle.ListAll(ctx, env.employee)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	_, err = env.lifecycle.ListAll(ctx, env.customer)
	assert.ErrorIs(t, err, ErrForbidden)

	// after departure active tickets read as completed
	env.now = env.now.Add(50 * time.Hour)
	mine, err := env.lifecycle.ListMine(ctx, env.customer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, model.TicketCompleted, mine[0].Status)
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestUpdateAsEmployee_MoveAndCheckIn(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	// outside the customer check-in window
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")

	tk, err := env.lifecycle.UpdateAsEmployee(ctx, env.employee, res.Ticket.ID,
		TicketUpdate{SeatNumber: strPtr("3c"), CheckedIn: boolPtr(true)})

	require.NoError(t, err)
	assert.Equal(t, "3C", tk.SeatNumber)
	assert.Equal(t, model.SeatBusiness, tk.SeatClass)
	assert.True(t, tk.CheckedIn)
	assert.Equal(t, model.TicketCheckedIn, tk.Status)
	assert.Equal(t, "4500.00", tk.Price.String())
	assert.True(t, env.seat(t, fid, "20A").IsAvailable)
	assert.False(t, env.seat(t, fid, "3C").IsAvailable)
	assert.Equal(t, 161, env.flight(t, fid).AvailableSeats)
	env.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(queue.EventTicketSeatChanged))
	env.events.AssertCalled(t, "Publish", mock.Anything, eventOfType(queue.EventTicketCheckedIn))

	_, err = env.lifecycle.UpdateAsEmployee(ctx, env.employee, res.Ticket.ID, TicketUpdate{Status: strPtr(model.TicketCheckedIn)})
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestUpdateAsEmployee_TakenSeatRollsBackCheckIn(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")
	env.book(t, env.other, fid, "20B")

	_, err := env.lifecycle.UpdateAsEmployee(ctx, env.employee, res.Ticket.ID,
		TicketUpdate{SeatNumber: strPtr("20B"), CheckedIn: boolPtr(true)})

	assert.ErrorIs(t, err, ErrSeatUnavailable)
	tk, err := env.tickets.GetByID(ctx, res.Ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "20A", tk.SeatNumber)
	assert.False(t, tk.CheckedIn)
	assert.Equal(t, model.TicketConfirmed, tk.Status)
	assert.False(t, env.seat(t, fid, "20A").IsAvailable)
	assert.Equal(t, 160, env.flight(t, fid).AvailableSeats)
}

func TestUpdateAsEmployee_Cancel(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")

	tk, err := env.lifecycle.UpdateAsEmployee(ctx, env.employee, res.Ticket.ID, TicketUpdate{Status: strPtr(model.TicketCancelled)})

	require.NoError(t, err)
	assert.Equal(t, model.TicketCancelled, tk.Status)
	assert.True(t, env.seat(t, fid, "20A").IsAvailable)
	assert.Equal(t, 162, env.flight(t, fid).AvailableSeats)
}

func TestUpdateAsEmployee_Rejects(t *testing.T) {
	env := newTestEnv(t)
	env.allowEvents()
	ctx := context.Background()
	fid := env.flightIn(t, "AI101", 48*time.Hour)
	res := env.book(t, env.customer, fid, "20A")
	id := res.Ticket.ID

	_, err := env.lifecycle.UpdateAsEmployee(ctx, env.customer, id, TicketUpdate{CheckedIn: boolPtr(true)})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.lifecycle.UpdateAsEmployee(ctx, env.employee, 9999, TicketUpdate{CheckedIn: boolPtr(true)})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = env.lifecycle.UpdateAsEmployee(ctx, env.employee, id, TicketUpdate{SeatNumber: strPtr("99Z")})
	assert.ErrorIs(t, err, ErrNotFound)

	tests := []struct {
		name  string
		upd   TicketUpdate
		field string
	}{
		{"empty", TicketUpdate{}, "ticket"},
		{"undo check-in", TicketUpdate{CheckedIn: boolPtr(false)}, "checked_in"},
		{"confirmed status", TicketUpdate{Status: strPtr(model.TicketConfirmed)}, "status"},
		{"cancel with move", TicketUpdate{Status: strPtr(model.TicketCancelled), SeatNumber: strPtr("3C")}, "status"},
		{"same seat", TicketUpdate{SeatNumber: strPtr("20a")}, "seat_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.lifecycle.UpdateAsEmployee(ctx, env.employee, id, tt.upd)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}

	env.now = env.now.Add(49 * time.Hour)
	_, err = env.lifecycle.UpdateAsEmployee(ctx, env.employee, id, TicketUpdate{CheckedIn: boolPtr(true)})
	assert.ErrorIs(t, err, ErrFlightDeparted)
}
