package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrPassengerNotFound is returned when a passenger cannot be located.
var ErrPassengerNotFound = errors.New("passenger not found")

const passengerColumns = `id, user_id, first_name, last_name, email, phone,
	date_of_birth, nationality, passport_number, created_at, updated_at`

// PassengerRepo provides CRUD operations on passengers.
type PassengerRepo struct {
	db *sql.DB
}

func NewPassengerRepo(db *sql.DB) *PassengerRepo { return &PassengerRepo{db: db} }

// DB exposes the underlying handle so services can open transactions.
func (r *PassengerRepo) DB() *sql.DB { return r.db }

// passengerRow holds the scan destinations of one passengers row.
type passengerRow struct {
	p                            model.Passenger
	userID                       sql.NullInt64
	phone, nationality, passport sql.NullString
	dob                          sql.NullTime
}

func (pr *passengerRow) dest() []any {
	p := &pr.p
	return []any{&p.ID, &pr.userID, &p.FirstName, &p.LastName, &p.Email, &pr.phone,
		&pr.dob, &pr.nationality, &pr.passport, &p.CreatedAt, &p.UpdatedAt}
}

func (pr *passengerRow) passenger() model.Passenger {
	if pr.userID.Valid {
		uid := uint64(pr.userID.Int64)
		pr.p.UserID = &uid
	}
	if pr.dob.Valid {
		d := pr.dob.Time
		pr.p.DateOfBirth = &d
	}
	pr.p.Phone = stringPtr(pr.phone)
	pr.p.Nationality = stringPtr(pr.nationality)
	pr.p.PassportNumber = stringPtr(pr.passport)
	return pr.p
}

func scanPassenger(s rowScanner) (model.Passenger, error) {
	var pr passengerRow
	if err := s.Scan(pr.dest()...); err != nil {
		return model.Passenger{}, err
	}
	return pr.passenger(), nil
}

func passengerArgs(p *model.Passenger) []any {
	var (
		userID sql.NullInt64
		dob    sql.NullTime
	)
	if p.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*p.UserID), Valid: true}
	}
	if p.DateOfBirth != nil {
		dob = sql.NullTime{Time: p.DateOfBirth.UTC(), Valid: true}
	}
	return []any{userID, p.FirstName, p.LastName, p.Email, nullString(p.Phone),
		dob, nullString(p.Nationality), nullString(p.PassportNumber)}
}

func (r *PassengerRepo) create(ctx context.Context, q querier, p *model.Passenger) error {
	res, err := q.ExecContext(ctx, `INSERT INTO passengers
		(user_id, first_name, last_name, email, phone, date_of_birth, nationality, passport_number)
		VALUES (?,?,?,?,?,?,?,?)`, passengerArgs(p)...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Create inserts p and sets p.ID.
func (r *PassengerRepo) Create(ctx context.Context, p *model.Passenger) error {
	return r.create(ctx, r.db, p)
}

// CreateTx is Create inside tx.
func (r *PassengerRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error {
	return r.create(ctx, tx, p)
}

func (r *PassengerRepo) getByID(ctx context.Context, q querier, id uint64) (model.Passenger, error) {
	p, err := scanPassenger(q.QueryRowContext(ctx, "SELECT "+passengerColumns+" FROM passengers WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Passenger{}, ErrPassengerNotFound
	}
	return p, err
}

// GetByID returns a passenger by primary key.
func (r *PassengerRepo) GetByID(ctx context.Context, id uint64) (model.Passenger, error) {
	return r.getByID(ctx, r.db, id)
}

// GetByIDTx is GetByID inside tx.
func (r *PassengerRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Passenger, error) {
	return r.getByID(ctx, tx, id)
}

// List returns passengers ordered by first name.  A non-empty search term
// must appear in the first or the last name.
func (r *PassengerRepo) List(ctx context.Context, search string) ([]model.Passenger, error) {
	query := "SELECT " + passengerColumns + " FROM passengers"
	var args []any
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		query += " WHERE LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?"
		args = append(args, "%"+s+"%", "%"+s+"%")
	}
	query += " ORDER BY first_name ASC, id ASC"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Passenger{}
	for rows.Next() {
		p, err := scanPassenger(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update overwrites the editable fields of p.
func (r *PassengerRepo) Update(ctx context.Context, p model.Passenger) error {
	args := append(passengerArgs(&p), p.ID)
	res, err := r.db.ExecContext(ctx, `UPDATE passengers SET
		user_id = ?, first_name = ?, last_name = ?, email = ?, phone = ?,
		date_of_birth = ?, nationality = ?, passport_number = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes a passenger.  Callers must have checked that no ticket
// references it.
func (r *PassengerRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM passengers WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPassengerNotFound
	}
	return nil
}
