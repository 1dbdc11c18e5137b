// Command seed inserts demo accounts and a week of flights with the default
// cabin layout.  It can be re-run: existing accounts and flight numbers are
// skipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/flight-booking/internal/config"
	"github.com/iliyamo/flight-booking/internal/database"
	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/service"
)

type seedFlight struct {
	number, airline, aircraft, origin, destination string
	day, hour, minute, duration                   int
	basePrice, gate                               string
}

var demoUsers = []repository.NewUser{
	{Email: "priya.krishnan@example.com", Password: "password123", FirstName: "Priya", LastName: "Krishnan", Role: model.RoleCustomer},
	{Email: "arjun.raman@example.com", Password: "password123", FirstName: "Arjun", LastName: "Raman", Role: model.RoleCustomer},
	{Email: "lakshmi.employee@example.com", Password: "admin12345", FirstName: "Lakshmi", LastName: "Sharma", Role: model.RoleEmployee},
}

var demoFlights = []seedFlight{
	{"AI342", "Air India", "Boeing 737-800", "Chennai (MAA)", "Mumbai (BOM)", 1, 6, 30, 135, "5500.00", "A12"},
	{"6E723", "IndiGo", "Airbus A320neo", "Chennai (MAA)", "Delhi (DEL)", 1, 9, 15, 165, "6200.00", "B3"},
	{"SG134", "SpiceJet", "Boeing 737 MAX", "Chennai (MAA)", "Bangalore (BLR)", 2, 14, 20, 75, "3200.00", "C5"},
	{"AI445", "Air India", "Airbus A321", "Mumbai (BOM)", "Chennai (MAA)", 3, 16, 45, 150, "5800.00", "D7"},
	{"UK821", "Vistara", "Airbus A320", "Delhi (DEL)", "Mumbai (BOM)", 4, 11, 0, 130, "4500.00", "E2"},
	{"6E512", "IndiGo", "ATR 72-600", "Coimbatore (CJB)", "Chennai (MAA)", 6, 7, 40, 65, "2900.00", "F1"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(context.Background(), cfg.Database())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db, database.DialectMySQL); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	var employee service.Caller
	for _, u := range demoUsers {
		id, err := users.Create(ctx, u, cfg.BcryptCost)
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			existing, err := users.GetByEmail(ctx, u.Email)
			if err != nil {
				log.Fatalf("load %s: %v", u.Email, err)
			}
			id = existing.ID
			log.Infof("user %s exists", u.Email)
		case err != nil:
			log.Fatalf("create %s: %v", u.Email, err)
		default:
			log.Infof("user %s / %s (%s)", u.Email, u.Password, u.Role)
		}
		if u.Role == model.RoleEmployee && employee.UserID == 0 {
			employee = service.Caller{UserID: id, Role: model.RoleEmployee}
		}
	}

	flights := repository.NewFlightRepo(db)
	svc := &service.FlightService{
		Flights:   flights,
		Tickets:   repository.NewTicketRepo(db),
		Inventory: service.NewInventory(flights, repository.NewSeatRepo(db)),
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, sf := range demoFlights {
		dep := today.AddDate(0, 0, sf.day).Add(time.Duration(sf.hour)*time.Hour + time.Duration(sf.minute)*time.Minute)
		gate := sf.gate
		f, err := svc.Create(ctx, employee, service.FlightInput{
			FlightNumber:  sf.number,
			Airline:       sf.airline,
			Aircraft:      sf.aircraft,
			Origin:        sf.origin,
			Destination:   sf.destination,
			DepartureTime: dep,
			ArrivalTime:   dep.Add(time.Duration(sf.duration) * time.Minute),
			BasePrice:     model.MustMoney(sf.basePrice),
			Gate:          &gate,
		})
		var verr *service.ValidationError
		if errors.As(err, &verr) && verr.Fields["flight_number"] == "unique" {
			log.Infof("flight %s exists", sf.number)
			continue
		}
		if err != nil {
			log.Fatalf("create flight %s: %v", sf.number, err)
		}
		fmt.Printf("flight %-6s %s -> %s at %s, %d seats\n",
			f.FlightNumber, f.Origin, f.Destination, f.DepartureTime.Format(time.RFC3339), f.TotalSeats)
	}
}
