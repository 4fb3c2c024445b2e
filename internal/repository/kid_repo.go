package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"piggybank/internal/database"
	"piggybank/internal/models"
)

// KidRepository handles database operations for kids
type KidRepository struct {
	db database.DBTX
}

// NewKidRepository creates a new kid repository
func NewKidRepository(db database.DBTX) *KidRepository {
	return &KidRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *KidRepository) WithTx(tx database.DBTX) *KidRepository {
	return &KidRepository{db: tx}
}

const kidColumns = "id, user_id, name, age, avatar_url, pin_hash, balance_cents, created_at, updated_at"

func scanKid(row interface{ Scan(...interface{}) error }) (*models.Kid, error) {
	var (
		kid       models.Kid
		age       sql.NullInt64
		avatarURL sql.NullString
		pinHash   sql.NullString
		balance   int64
	)
	err := row.Scan(
		&kid.ID,
		&kid.UserID,
		&kid.Name,
		&age,
		&avatarURL,
		&pinHash,
		&balance,
		&kid.CreatedAt,
		&kid.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if age.Valid {
		a := int(age.Int64)
		kid.Age = &a
	}
	if avatarURL.Valid {
		kid.AvatarURL = &avatarURL.String
	}
	kid.PINHash = pinHash.String
	kid.Balance = models.CentsToDecimal(balance)
	return &kid, nil
}

// CreateKid inserts a kid with a zero balance. ID and timestamps must be set by the caller.
func (r *KidRepository) CreateKid(ctx context.Context, kid *models.Kid) error {
	query := `
		INSERT INTO kids (id, user_id, name, age, avatar_url, pin_hash, balance_cents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	var pinHash interface{}
	if kid.PINHash != "" {
		pinHash = kid.PINHash
	}
	_, err := r.db.ExecContext(ctx, query,
		kid.ID, kid.UserID, kid.Name, kid.Age, kid.AvatarURL, pinHash, kid.CreatedAt, kid.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create kid: %w", err)
	}
	return nil
}

// GetKidByID retrieves a kid by ID regardless of owner
func (r *KidRepository) GetKidByID(ctx context.Context, kidID string) (*models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE id = ?"
	kid, err := scanKid(r.db.QueryRowContext(ctx, query, kidID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	return kid, nil
}

// GetKidForUser retrieves a kid only if it belongs to userID
func (r *KidRepository) GetKidForUser(ctx context.Context, kidID, userID string) (*models.Kid, error) {
	return r.getKidForUser(ctx, kidID, userID, "")
}

// LockKidForUser is GetKidForUser with a row lock held until the enclosing transaction ends
func (r *KidRepository) LockKidForUser(ctx context.Context, kidID, userID string) (*models.Kid, error) {
	return r.getKidForUser(ctx, kidID, userID, r.db.GetDialect().LockRowsClause())
}

func (r *KidRepository) getKidForUser(ctx context.Context, kidID, userID, suffix string) (*models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE id = ? AND user_id = ?" + suffix
	kid, err := scanKid(r.db.QueryRowContext(ctx, query, kidID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kid: %w", err)
	}
	return kid, nil
}

// ListKidsByUser retrieves all kids of a parent ordered by creation
func (r *KidRepository) ListKidsByUser(ctx context.Context, userID string) ([]models.Kid, error) {
	query := "SELECT " + kidColumns + " FROM kids WHERE user_id = ? ORDER BY created_at ASC"
	return r.queryKids(ctx, query, userID)
}

// ListAllKids retrieves every kid
func (r *KidRepository) ListAllKids(ctx context.Context) ([]models.Kid, error) {
	return r.queryKids(ctx, "SELECT "+kidColumns+" FROM kids ORDER BY created_at ASC")
}

func (r *KidRepository) queryKids(ctx context.Context, query string, args ...interface{}) ([]models.Kid, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query kids: %w", err)
	}
	defer rows.Close()

	kids := []models.Kid{}
	for rows.Next() {
		kid, err := scanKid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan kid: %w", err)
		}
		kids = append(kids, *kid)
	}
	return kids, rows.Err()
}

// UpdatePINHash replaces a kid's PIN hash. It reports false when the kid is not owned by userID.
func (r *KidRepository) UpdatePINHash(ctx context.Context, kidID, userID, pinHash string) (bool, error) {
	query := "UPDATE kids SET pin_hash = ?, updated_at = ? WHERE id = ? AND user_id = ?"
	return r.execOwned(ctx, "update kid PIN", query, pinHash, time.Now().UTC(), kidID, userID)
}

// UpdateAvatarURL sets a kid's avatar URL. It reports false when the kid is not owned by userID.
func (r *KidRepository) UpdateAvatarURL(ctx context.Context, kidID, userID, avatarURL string) (bool, error) {
	query := "UPDATE kids SET avatar_url = ?, updated_at = ? WHERE id = ? AND user_id = ?"
	return r.execOwned(ctx, "update kid avatar", query, avatarURL, time.Now().UTC(), kidID, userID)
}

// DeleteKid removes a kid and, by cascade, its transactions and claims
func (r *KidRepository) DeleteKid(ctx context.Context, kidID, userID string) (bool, error) {
	return r.execOwned(ctx, "delete kid", "DELETE FROM kids WHERE id = ? AND user_id = ?", kidID, userID)
}

// AddToBalance applies a signed cent delta to a kid's balance.
// It is only called by the ledger within the transaction that inserts the matching row.
func (r *KidRepository) AddToBalance(ctx context.Context, kidID string, deltaCents int64) error {
	query := "UPDATE kids SET balance_cents = balance_cents + ?, updated_at = ? WHERE id = ?"
	ok, err := r.execOwned(ctx, "update balance", query, deltaCents, time.Now().UTC(), kidID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("failed to update balance: kid %s not found", kidID)
	}
	return nil
}

func (r *KidRepository) execOwned(ctx context.Context, action, query string, args ...interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", action, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to %s: %w", action, err)
	}
	return affected > 0, nil
}
