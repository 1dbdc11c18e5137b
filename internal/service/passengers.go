package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/flight-booking/internal/model"
	"github.com/iliyamo/flight-booking/internal/repository"
	"github.com/iliyamo/flight-booking/internal/utils"
)

// PassengerService is the employee passenger administration.
type PassengerService struct {
	Passengers *repository.PassengerRepo
	Tickets    *repository.TicketRepo
}

// List returns passengers whose first or last name contains search, or all
// passengers when search is empty.
func (s *PassengerService) List(ctx context.Context, caller Caller, search string) ([]model.Passenger, error) {
	if !caller.IsEmployee() {
		return nil, ErrForbidden
	}
	return s.Passengers.List(ctx, search)
}

// Create records a passenger without linking it to an account.
func (s *PassengerService) Create(ctx context.Context, caller Caller, in PassengerInput) (model.Passenger, error) {
	if !caller.IsEmployee() {
		return model.Passenger{}, ErrForbidden
	}
	if fields := utils.ValidateStruct(in); fields != nil {
		return model.Passenger{}, validationFrom(fields)
	}
	p := in.toModel(nil)
	if err := s.Passengers.Create(ctx, &p); err != nil {
		return model.Passenger{}, err
	}
	return s.get(ctx, p.ID)
}

// Update overwrites a passenger's details.  The account link is kept.
func (s *PassengerService) Update(ctx context.Context, caller Caller, id uint64, in PassengerInput) (model.Passenger, error) {
	if !caller.IsEmployee() {
		return model.Passenger{}, ErrForbidden
	}
	if fields := utils.ValidateStruct(in); fields != nil {
		return model.Passenger{}, validationFrom(fields)
	}
	cur, err := s.get(ctx, id)
	if err != nil {
		return model.Passenger{}, err
	}
	p := in.toModel(cur.UserID)
	p.ID = id
	if err := s.Passengers.Update(ctx, p); err != nil {
		return model.Passenger{}, mapRepoErr(err)
	}
	return s.get(ctx, id)
}

// Delete removes a passenger no ticket refers to.
func (s *PassengerService) Delete(ctx context.Context, caller Caller, id uint64) error {
	if !caller.IsEmployee() {
		return ErrForbidden
	}
	tx, err := s.Passengers.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete passenger: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := s.Passengers.GetByIDTx(ctx, tx, id); err != nil {
		return mapRepoErr(err)
	}
	n, err := s.Tickets.CountByPassengerTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("passenger has %d tickets: %w", n, ErrConflict)
	}
	if err := s.Passengers.DeleteTx(ctx, tx, id); err != nil {
		return mapRepoErr(err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete passenger: %w", err)
	}
	committed = true
	return nil
}

func (s *PassengerService) get(ctx context.Context, id uint64) (model.Passenger, error) {
	p, err := s.Passengers.GetByID(ctx, id)
	if err != nil {
		return model.Passenger{}, mapRepoErr(err)
	}
	return p, nil
}
