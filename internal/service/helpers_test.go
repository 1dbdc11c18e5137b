package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/flight-booking/internal/database/dbtest"
	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/queue"
	"github.com/iliyamo/flight-booking/internal/repository"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev queue.TicketEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func eventOfType(kind string) interface{} {
	return mock.MatchedBy(func(ev queue.TicketEvent) bool { return ev.Type == kind })
}

// testEnv wires every service against one throwaway database with a frozen
// clock.
type testEnv struct {
	db  *sql.DB
	now time.Time

	flights      *repository.FlightRepo
	seats        *repository.SeatRepo
	passengers   *repository.PassengerRepo
	tickets      *repository.TicketRepo
	transactions *repository.TransactionRepo

	inventory *Inventory
	bookings  *BookingService
	lifecycle *TicketService
	flightSvc *FlightService
	passSvc   *PassengerService
	events    *mockPublisher
	customer  Caller
	other     Caller
	employee  Caller
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, dbtest.Open(t))
}

// newTestEnvOn is newTestEnv on an already opened database.
func newTestEnvOn(t *testing.T, db *sql.DB) *testEnv {
	t.Helper()
	env := &testEnv{
		db:           db,
		now:          time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
		flights:      repository.NewFlightRepo(db),
		seats:        repository.NewSeatRepo(db),
		passengers:   repository.NewPassengerRepo(db),
		tickets:      repository.NewTicketRepo(db),
		transactions: repository.NewTransactionRepo(db),
		events:       &mockPublisher{},
	}
	clock := func() time.Time { return env.now }
	env.inventory = NewInventory(env.flights, env.seats)
	env.bookings = &BookingService{
		Flights:      env.flights,
		Inventory:    env.inventory,
		Passengers:   env.passengers,
		Tickets:      env.tickets,
		Transactions: env.transactions,
		Refs:         &References{Now: clock},
		Events:       env.events,
		Now:          clock,
	}
	env.lifecycle = &TicketService{
		Tickets:      env.tickets,
		Flights:      env.flights,
		Seats:        env.seats,
		Inventory:    env.inventory,
		Transactions: env.transactions,
		Events:       env.events,
		Now:          clock,
	}
	env.flightSvc = &FlightService{Flights: env.flights, Tickets: env.tickets, Inventory: env.inventory, Now: clock}
	env.passSvc = &PassengerService{Passengers: env.passengers, Tickets: env.tickets}

	env.customer = Caller{UserID: dbtest.InsertUser(t, db, "priya@example.com", model.RoleCustomer), Role: model.RoleCustomer}
	env.other = Caller{UserID: dbtest.InsertUser(t, db, "arjun@example.com", model.RoleCustomer), Role: model.RoleCustomer}
	env.employee = Caller{UserID: dbtest.InsertUser(t, db, "lakshmi@example.com", model.RoleEmployee), Role: model.RoleEmployee}
	return env
}

// flightIn inserts a default-layout flight departing d after the frozen
// clock.
func (env *testEnv) flightIn(t *testing.T, number string, d time.Duration) uint64 {
	t.Helper()
	return dbtest.InsertFlight(t, env.db, dbtest.FlightFixture{Number: number, Departure: env.now.Add(d)})
}

func (env *testEnv) allowEvents() {
	env.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
}

func bookingReq(flightID uint64, seat string) BookingRequest {
	return BookingRequest{
		FlightID: flightID,
		Passenger: PassengerInput{
			FirstName: "Priya",
			LastName:  "Krishnan",
			Email:     "priya@example.com",
		},
		SeatNumber:    seat,
		PaymentMethod: "card",
	}
}

// book creates a ticket for caller and fails the test on error.
func (env *testEnv) book(t *testing.T, caller Caller, flightID uint64, seat string) BookingResult {
	t.Helper()
	res, err := env.bookings.Book(context.Background(), caller, bookingReq(flightID, seat))
	require.NoError(t, err)
	return res
}

func (env *testEnv) seat(t *testing.T, flightID uint64, number string) model.Seat {
	t.Helper()
	s, err := env.seats.Get(context.Background(), flightID, number)
	require.NoError(t, err)
	return s
}

func (env *testEnv) flight(t *testing.T, id uint64) model.Flight {
	t.Helper()
	f, err := env.flights.GetByID(context.Background(), id)
	require.NoError(t, err)
	return f
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
