package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/utils"
)

// SearchDateLayout is the format of the optional search date.
const SearchDateLayout = "2006-01-02"

// FlightInput is the payload an employee submits to create a flight.  An
// empty Layout creates the default cabin.
type FlightInput struct {
	FlightNumber  string            `json:"flight_number" validate:"required,max=16"`
	Airline       string            `json:"airline" validate:"required,max=100"`
	Aircraft      string            `json:"aircraft" validate:"required,max=100"`
	Origin        string            `json:"origin" validate:"required,max=100"`
	Destination   string            `json:"destination" validate:"required,max=100,nefield=Origin"`
	DepartureTime time.Time         `json:"departure_time" validate:"required"`
	ArrivalTime   time.Time         `json:"arrival_time" validate:"required"`
	BasePrice     model.Money       `json:"base_price"`
	Status        string            `json:"status" validate:"omitempty,flight_status"`
	Gate          *string           `json:"gate" validate:"omitempty,max=16"`
	Layout        []model.SeatBlock `json:"layout" validate:"omitempty,dive"`
}

// FlightPatch carries the fields an employee may change on an existing
// flight.  Nil fields are left untouched; seat counters are never patched.
type FlightPatch struct {
	FlightNumber  *string      `json:"flight_number" validate:"omitempty,min=1,max=16"`
	Airline       *string      `json:"airline" validate:"omitempty,min=1,max=100"`
	Aircraft      *string      `json:"aircraft" validate:"omitempty,min=1,max=100"`
	Origin        *string      `json:"origin" validate:"omitempty,min=1,max=100"`
	Destination   *string      `json:"destination" validate:"omitempty,min=1,max=100"`
	DepartureTime *time.Time   `json:"departure_time"`
	ArrivalTime   *time.Time   `json:"arrival_time"`
	BasePrice     *model.Money `json:"base_price"`
	Status        *string      `json:"status" validate:"omitempty,flight_status"`
	Gate          *string      `json:"gate" validate:"omitempty,max=16"`
}

// FlightService serves the public flight reads and the employee flight
// administration.
type FlightService struct {
	Flights   *repository.FlightRepo
	Tickets   *repository.TicketRepo
	Inventory *Inventory
	Now       func() time.Time
}

func (s *FlightService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ListUpcoming returns flights that have not departed yet, soonest first.
func (s *FlightService) ListUpcoming(ctx context.Context) ([]model.Flight, error) {
	return s.Flights.ListUpcoming(ctx, s.now())
}

// Search finds flights by origin and destination, optionally restricted
// to one departure day given as YYYY-MM-DD.
func (s *FlightService) Search(ctx context.Context, from, to, date string) ([]model.Flight, error) {
	fields := map[string]string{}
	if strings.TrimSpace(from) == "" {
		fields["from"] = "required"
	}
	if strings.TrimSpace(to) == "" {
		fields["to"] = "required"
	}
	q := repository.FlightSearchQuery{Origin: from, Destination: to}
	if date = strings.TrimSpace(date); date != "" {
		d, err := time.ParseInLocation(SearchDateLayout, date, time.UTC)
		if err != nil {
			fields["date"] = "date"
		} else {
			q.Date = &d
		}
	}
	if err := validationFrom(fields); err != nil {
		return nil, err
	}
	return s.Flights.Search(ctx, q)
}

// Get returns one flight.
func (s *FlightService) Get(ctx context.Context, id uint64) (model.Flight, error) {
	f, err := s.Flights.GetByID(ctx, id)
	if err != nil {
		return model.Flight{}, mapRepoErr(err)
	}
	return f, nil
}

// Create inserts a flight together with its seat map in one transaction.
func (s *FlightService) Create(ctx context.Context, caller Caller, in FlightInput) (model.Flight, error) {
	if !caller.IsEmployee() {
		return model.Flight{}, ErrForbidden
	}
	if fields := utils.ValidateStruct(in); fields != nil {
		return model.Flight{}, validationFrom(fields)
	}
	if !in.ArrivalTime.After(in.DepartureTime) {
		return model.Flight{}, invalid("arrival_time", "gtfield")
	}
	if in.BasePrice.IsNegative() {
		return model.Flight{}, invalid("base_price", "min")
	}
	layout := in.Layout
	if len(layout) == 0 {
		layout = model.DefaultLayout()
	}
	if err := ValidateLayout(layout); err != nil {
		return model.Flight{}, err
	}
	status := in.Status
	if status == "" {
		status = model.FlightScheduled
	}
	capacity := model.LayoutCapacity(layout)
	f := model.Flight{
		FlightNumber:    strings.ToUpper(strings.TrimSpace(in.FlightNumber)),
		Airline:         strings.TrimSpace(in.Airline),
		Aircraft:        strings.TrimSpace(in.Aircraft),
		Origin:          strings.TrimSpace(in.Origin),
		Destination:     strings.TrimSpace(in.Destination),
		DepartureTime:   in.DepartureTime.UTC(),
		ArrivalTime:     in.ArrivalTime.UTC(),
		DurationMinutes: int(in.ArrivalTime.Sub(in.DepartureTime) / time.Minute),
		BasePrice:       in.BasePrice,
		TotalSeats:      capacity,
		AvailableSeats:  capacity,
		Status:          status,
		Gate:            in.Gate,
	}

	tx, err := s.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return model.Flight{}, fmt.Errorf("begin create flight: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := s.Flights.CreateTx(ctx, tx, &f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Flight{}, invalid("flight_number", "unique")
		}
		return model.Flight{}, err
	}
	if _, err := s.Inventory.CreateSeatMap(ctx, tx, f.ID, layout); err != nil {
		return model.Flight{}, err
	}
	created, err := s.Flights.GetByIDTx(ctx, tx, f.ID)
	if err != nil {
		return model.Flight{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Flight{}, fmt.Errorf("commit create flight: %w", err)
	}
	committed = true
	return created, nil
}

// Update applies patch to a flight.  Prices of existing tickets are not
// affected by a base price change.
func (s *FlightService) Update(ctx context.Context, caller Caller, id uint64, patch FlightPatch) (model.Flight, error) {
	if !caller.IsEmployee() {
		return model.Flight{}, ErrForbidden
	}
	if fields := utils.ValidateStruct(patch); fields != nil {
		return model.Flight{}, validationFrom(fields)
	}
	f, err := s.Flights.GetByID(ctx, id)
	if err != nil {
		return model.Flight{}, mapRepoErr(err)
	}
	if patch.FlightNumber != nil {
		f.FlightNumber = strings.ToUpper(strings.TrimSpace(*patch.FlightNumber))
	}
	if patch.Airline != nil {
		f.Airline = strings.TrimSpace(*patch.Airline)
	}
	if patch.Aircraft != nil {
		f.Aircraft = strings.TrimSpace(*patch.Aircraft)
	}
	if patch.Origin != nil {
		f.Origin = strings.TrimSpace(*patch.Origin)
	}
	if patch.Destination != nil {
		f.Destination = strings.TrimSpace(*patch.Destination)
	}
	if patch.DepartureTime != nil {
		f.DepartureTime = patch.DepartureTime.UTC()
	}
	if patch.ArrivalTime != nil {
		f.ArrivalTime = patch.ArrivalTime.UTC()
	}
	if patch.BasePrice != nil {
		if patch.BasePrice.IsNegative() {
			return model.Flight{}, invalid("base_price", "min")
		}
		f.BasePrice = *patch.BasePrice
	}
	if patch.Status != nil {
		f.Status = *patch.Status
	}
	if patch.Gate != nil {
		f.Gate = patch.Gate
		if strings.TrimSpace(*patch.Gate) == "" {
			f.Gate = nil
		}
	}
	if strings.EqualFold(f.Origin, f.Destination) {
		return model.Flight{}, invalid("destination", "nefield")
	}
	if !f.ArrivalTime.After(f.DepartureTime) {
		return model.Flight{}, invalid("arrival_time", "gtfield")
	}
	f.DurationMinutes = int(f.ArrivalTime.Sub(f.DepartureTime) / time.Minute)

	if err := s.Flights.Update(ctx, f); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Flight{}, invalid("flight_number", "unique")
		}
		return model.Flight{}, mapRepoErr(err)
	}
	return s.Get(ctx, id)
}

// Delete removes a flight and its seat map.  Flights referenced by any
// ticket, cancelled ones included, cannot be deleted.
func (s *FlightService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if !caller.IsEmployee() {
		return ErrForbidden
	}
	tx, err := s.Flights.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete flight: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.Flights.GetByIDTx(ctx, tx, id); err != nil {
		return mapRepoErr(err)
	}
	n, err := s.Tickets.CountByFlightTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("flight has %d tickets: %w", n, ErrConflict)
	}
	if err := s.Flights.DeleteTx(ctx, tx, id); err != nil {
		return mapRepoErr(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete flight: %w", err)
	}
	committed = true
	return nil
}

// Reconcile recomputes a flight's available seat counter.  Employees only.
func (s *FlightService) Reconcile(ctx context.Context, caller Caller, id uint64) (model.Flight, error) {
	if !caller.IsEmployee() {
		return model.Flight{}, ErrForbidden
	}
	return s.Inventory.Reconcile(ctx, id)
}
