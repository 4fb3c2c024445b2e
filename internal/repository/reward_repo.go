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

// RewardRepository handles database operations for rewards and reward claims
type RewardRepository struct {
	db database.DBTX
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.DBTX) *RewardRepository {
	return &RewardRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *RewardRepository) WithTx(tx database.DBTX) *RewardRepository {
	return &RewardRepository{db: tx}
}

const rewardColumns = "id, user_id, title, description, cost_cents, image_url, available, created_at"

func scanReward(row interface{ Scan(...interface{}) error }) (*models.Reward, error) {
	var (
		reward   models.Reward
		cost     int64
		imageURL sql.NullString
	)
	err := row.Scan(
		&reward.ID,
		&reward.UserID,
		&reward.Title,
		&reward.Description,
		&cost,
		&imageURL,
		&reward.Available,
		&reward.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	reward.Cost = models.CentsToDecimal(cost)
	if imageURL.Valid {
		reward.ImageURL = &imageURL.String
	}
	return &reward, nil
}

// CreateReward inserts a reward. ID and CreatedAt must be set by the caller.
func (r *RewardRepository) CreateReward(ctx context.Context, reward *models.Reward) error {
	query := `
		INSERT INTO rewards (id, user_id, title, description, cost_cents, image_url, available, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		reward.ID,
		reward.UserID,
		reward.Title,
		reward.Description,
		models.DecimalToCents(reward.Cost),
		reward.ImageURL,
		reward.Available,
		reward.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

// GetRewardForUser retrieves a reward only if it belongs to userID
func (r *RewardRepository) GetRewardForUser(ctx context.Context, rewardID, userID string) (*models.Reward, error) {
	query := "SELECT " + rewardColumns + " FROM rewards WHERE id = ? AND user_id = ?"
	reward, err := scanReward(r.db.QueryRowContext(ctx, query, rewardID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reward: %w", err)
	}
	return reward, nil
}

// ListRewardsByUser retrieves a parent's rewards, newest first.
// When availableOnly is set, hidden rewards are skipped.
func (r *RewardRepository) ListRewardsByUser(ctx context.Context, userID string, availableOnly bool) ([]models.Reward, error) {
	query := "SELECT " + rewardColumns + " FROM rewards WHERE user_id = ?"
	args := []interface{}{userID}
	if availableOnly {
		query += " AND available = ?"
		args = append(args, true)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, *reward)
	}
	return rewards, rows.Err()
}

// CreateClaim inserts a pending claim. ID and ClaimedAt must be set by the caller.
func (r *RewardRepository) CreateClaim(ctx context.Context, claim *models.RewardClaim) error {
	query := `
		INSERT INTO reward_claims (id, reward_id, kid_id, status, claimed_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, claim.ID, claim.RewardID, claim.KidID, string(claim.Status), claim.ClaimedAt)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	return nil
}

const claimDetailQuery = `
	SELECT c.id, c.reward_id, c.kid_id, c.status, c.transaction_id, c.claimed_at, c.resolved_at,
		rw.title, rw.cost_cents, k.name
	FROM reward_claims c
	JOIN rewards rw ON rw.id = c.reward_id
	JOIN kids k ON k.id = c.kid_id
`

func scanClaimDetail(row interface{ Scan(...interface{}) error }) (*models.RewardClaimDetail, error) {
	var (
		detail        models.RewardClaimDetail
		transactionID sql.NullString
		resolvedAt    sql.NullTime
		cost          int64
	)
	err := row.Scan(
		&detail.ID,
		&detail.RewardID,
		&detail.KidID,
		&detail.Status,
		&transactionID,
		&detail.ClaimedAt,
		&resolvedAt,
		&detail.RewardTitle,
		&cost,
		&detail.KidName,
	)
	if err != nil {
		return nil, err
	}
	if transactionID.Valid {
		detail.TransactionID = &transactionID.String
	}
	if resolvedAt.Valid {
		detail.ResolvedAt = &resolvedAt.Time
	}
	detail.Cost = models.CentsToDecimal(cost)
	return &detail, nil
}

// GetClaimForUser retrieves a claim only if its reward belongs to userID
func (r *RewardRepository) GetClaimForUser(ctx context.Context, claimID, userID string) (*models.RewardClaimDetail, error) {
	query := claimDetailQuery + " WHERE c.id = ? AND rw.user_id = ?"
	detail, err := scanClaimDetail(r.db.QueryRowContext(ctx, query, claimID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return detail, nil
}

// ListClaimsForUser retrieves all claims on a parent's rewards, newest first
func (r *RewardRepository) ListClaimsForUser(ctx context.Context, userID string) ([]models.RewardClaimDetail, error) {
	return r.queryClaims(ctx, claimDetailQuery+" WHERE rw.user_id = ? ORDER BY c.claimed_at DESC", userID)
}

// ListClaimsForKid retrieves a kid's claims, newest first
func (r *RewardRepository) ListClaimsForKid(ctx context.Context, kidID string) ([]models.RewardClaimDetail, error) {
	return r.queryClaims(ctx, claimDetailQuery+" WHERE c.kid_id = ? ORDER BY c.claimed_at DESC", kidID)
}

func (r *RewardRepository) queryClaims(ctx context.Context, query string, args ...interface{}) ([]models.RewardClaimDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query claims: %w", err)
	}
	defer rows.Close()

	claims := []models.RewardClaimDetail{}
	for rows.Next() {
		detail, err := scanClaimDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, *detail)
	}
	return claims, rows.Err()
}

// ResolveClaim moves a pending claim to status. It reports false when the claim was no longer pending.
func (r *RewardRepository) ResolveClaim(ctx context.Context, claimID string, status models.ClaimStatus, transactionID *string, resolvedAt time.Time) (bool, error) {
	query := `
		UPDATE reward_claims SET status = ?, transaction_id = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`
	result, err := r.db.ExecContext(ctx, query, string(status), transactionID, resolvedAt, claimID, string(models.ClaimPending))
	if err != nil {
		return false, fmt.Errorf("failed to resolve claim: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to resolve claim: %w", err)
	}
	return affected > 0, nil
}
