package repository

import (
	"context"
	"database/sql"
	"fmt"

	"piggybank/internal/database"
	"piggybank/internal/models"
)

// TransactionRepository handles database operations for ledger entries.
// Rows are insert-only; there is no update or delete path.
type TransactionRepository struct {
	db database.DBTX
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db database.DBTX) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *TransactionRepository) WithTx(tx database.DBTX) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

const transactionColumns = "t.id, t.user_id, t.kid_id, t.kind, t.amount_cents, t.description, t.category, t.metadata, t.status, t.created_at"

func scanTransaction(row interface{ Scan(...interface{}) error }, extra ...interface{}) (*models.Transaction, error) {
	var (
		tx       models.Transaction
		amount   int64
		category sql.NullString
	)
	dest := []interface{}{
		&tx.ID,
		&tx.UserID,
		&tx.KidID,
		&tx.Kind,
		&amount,
		&tx.Description,
		&category,
		&tx.Metadata,
		&tx.Status,
		&tx.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	tx.Amount = models.CentsToDecimal(amount)
	if category.Valid {
		tx.Category = &category.String
	}
	return &tx, nil
}

// CreateTransaction inserts a ledger entry. All fields must be set by the caller.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, kid_id, kind, amount_cents, description, category, metadata, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		tx.ID,
		tx.UserID,
		tx.KidID,
		string(tx.Kind),
		models.DecimalToCents(tx.Amount),
		tx.Description,
		tx.Category,
		tx.Metadata,
		string(tx.Status),
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListForUser returns up to limit transactions of a parent, newest first, each with its kid's name.
// When kidID is not empty only that kid's transactions are returned.
func (r *TransactionRepository) ListForUser(ctx context.Context, userID, kidID string, limit int) ([]models.TransactionWithKid, error) {
	query := "SELECT " + transactionColumns + ", k.name FROM transactions t JOIN kids k ON k.id = t.kid_id WHERE t.user_id = ?"
	args := []interface{}{userID}
	if kidID != "" {
		query += " AND t.kid_id = ?"
		args = append(args, kidID)
	}
	query += " ORDER BY t.created_at DESC, t.id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	result := []models.TransactionWithKid{}
	for rows.Next() {
		var kidName string
		tx, err := scanTransaction(rows, &kidName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, models.TransactionWithKid{Transaction: *tx, KidName: kidName})
	}
	return result, rows.Err()
}

// ListRecentForKid returns the kid's most recent transactions, newest first
func (r *TransactionRepository) ListRecentForKid(ctx context.Context, kidID string, limit int) ([]models.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions t WHERE t.kid_id = ? ORDER BY t.created_at DESC, t.id DESC LIMIT ?"
	return r.query(ctx, query, kidID, limit)
}

// ListAll returns every transaction in creation order
func (r *TransactionRepository) ListAll(ctx context.Context) ([]models.Transaction, error) {
	return r.query(ctx, "SELECT "+transactionColumns+" FROM transactions t ORDER BY t.created_at ASC, t.id ASC")
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	result := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

// SumForKid returns the sum of a kid's transaction amounts in cents
func (r *TransactionRepository) SumForKid(ctx context.Context, kidID string) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx, "SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE kid_id = ?", kidID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum transactions: %w", err)
	}
	return sum, nil
}
