package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/flight-booking/internal/model"
)

// ErrTransactionNotFound is returned when a transaction cannot be located.
var ErrTransactionNotFound = errors.New("transaction not found")

// TransactionRepo persists payment records.
type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

const transactionColumns = `id, transaction_number, user_id, ticket_id, booking_reference,
	amount, payment_method, status, created_at, updated_at`

// CreateTx inserts tr inside tx and sets tr.ID.
func (r *TransactionRepo) CreateTx(ctx context.Context, tx *sql.Tx, tr *model.Transaction) error {
	var ticketID sql.NullInt64
	if tr.TicketID != nil {
		ticketID = sql.NullInt64{Int64: int64(*tr.TicketID), Valid: true}
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO transactions
		(transaction_number, user_id, ticket_id, booking_reference, amount, payment_method, status)
		VALUES (?,?,?,?,?,?,?)`,
		tr.TransactionNumber, tr.UserID, ticketID, tr.BookingReference, tr.Amount, tr.PaymentMethod, tr.Status)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tr.ID = uint64(id)
	return nil
}

func scanTransaction(s rowScanner) (model.Transaction, error) {
	var (
		tr       model.Transaction
		ticketID sql.NullInt64
	)
	if err := s.Scan(&tr.ID, &tr.TransactionNumber, &tr.UserID, &ticketID, &tr.BookingReference,
		&tr.Amount, &tr.PaymentMethod, &tr.Status, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		return model.Transaction{}, err
	}
	if ticketID.Valid {
		id := uint64(ticketID.Int64)
		tr.TicketID = &id
	}
	return tr, nil
}

// GetByIDTx returns a transaction by primary key inside tx.
func (r *TransactionRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Transaction, error) {
	tr, err := scanTransaction(tx.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Transaction{}, ErrTransactionNotFound
	}
	return tr, err
}

// ListByUser returns a user's transactions, newest first.
func (r *TransactionRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Transaction{}
	for rows.Next() {
		tr, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// RefundTx marks the completed transactions of a ticket as refunded and
// returns how many rows changed.
func (r *TransactionRepo) RefundTx(ctx context.Context, tx *sql.Tx, ticketID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"UPDATE transactions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE ticket_id = ? AND status = ?",
		model.TxRefunded, ticketID, model.TxCompleted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
