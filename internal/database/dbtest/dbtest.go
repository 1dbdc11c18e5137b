// Package dbtest opens throwaway SQLite databases with the application
// schema for repository, service and handler tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/flight-booking/internal/database"
	"github.com/iliyamo/flight-booking/internal/model"
)

// Open returns a migrated database backed by a file in t.TempDir().  A
// single connection serialises writers the way row locks would in MySQL.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	return open(t, "", 1)
}

// OpenConcurrent is Open with conns connections, for tests that race
// requests against each other.  Transactions begin IMMEDIATE so writers
// queue on the database lock instead of failing to upgrade a read lock.
func OpenConcurrent(t *testing.T, conns int) *sql.DB {
	t.Helper()
	return open(t, "&_txlock=immediate", conns)
}

func open(t *testing.T, params string, conns int) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "booking.db")
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_time_format=sqlite%s", path, params)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(context.Background(), db, database.DialectSQLite))
	return db
}

// InsertUser creates an account and returns its id.
func InsertUser(t *testing.T, db *sql.DB, email, role string) uint64 {
	t.Helper()
	res, err := db.Exec(
		"INSERT INTO users (email, password_hash, first_name, last_name, role) VALUES (?,?,?,?,?)",
		email, "x", "Test", "User", role)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return uint64(id)
}

// FlightFixture describes a flight inserted by InsertFlight.
type FlightFixture struct {
	Number    string
	Departure time.Time
	BasePrice string
	Layout    []model.SeatBlock
}

// InsertFlight writes a flight and its seat map directly, bypassing the
// service layer, and returns the flight id.
func InsertFlight(t *testing.T, db *sql.DB, f FlightFixture) uint64 {
	t.Helper()
	if f.Number == "" {
		f.Number = "AI101"
	}
	if f.BasePrice == "" {
		f.BasePrice = "4500.00"
	}
	if f.Layout == nil {
		f.Layout = model.DefaultLayout()
	}
	dep := f.Departure.UTC().Truncate(time.Second)
	total := model.LayoutCapacity(f.Layout)
	res, err := db.Exec(`INSERT INTO flights
		(flight_number, airline, aircraft, origin, destination, departure_time, arrival_time,
		 duration_minutes, base_price, total_seats, available_seats, status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		f.Number, "Air India", "A320", "Delhi", "Mumbai", dep, dep.Add(2*time.Hour),
		120, model.MustMoney(f.BasePrice), total, total, model.FlightScheduled)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	row := 1
	for _, b := range f.Layout {
		for i := 0; i < b.Rows; i++ {
			for _, col := range b.Columns {
				_, err := db.Exec(
					"INSERT INTO seats (flight_id, seat_number, seat_class, price_delta, is_available) VALUES (?,?,?,?,1)",
					id, fmt.Sprintf("%d%s", row, col), b.SeatClass, b.PriceDelta)
				require.NoError(t, err)
			}
			row++
		}
	}
	return uint64(id)
}
