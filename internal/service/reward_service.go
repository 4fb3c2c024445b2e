package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/database"
	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/validation"
)

// CreateRewardInput holds the fields for a new reward
type CreateRewardInput struct {
	Title       string
	Description string
	Cost        decimal.Decimal
	ImageURL    *string
}

// RewardService manages rewards and the claims kids make on them
type RewardService struct {
	db         *database.DB
	rewardRepo *repository.RewardRepository
	ledger     *LedgerService
	now        func() time.Time
	log        zerolog.Logger
}

// NewRewardService creates a new reward service
func NewRewardService(db *database.DB, rewardRepo *repository.RewardRepository, ledger *LedgerService, log zerolog.Logger) *RewardService {
	return &RewardService{
		db:         db,
		rewardRepo: rewardRepo,
		ledger:     ledger,
		now:        time.Now,
		log:        log,
	}
}

// CreateReward adds a reward to the parent's catalogue
func (s *RewardService) CreateReward(ctx context.Context, userID string, in CreateRewardInput) (*models.Reward, error) {
	in.Title = strings.TrimSpace(in.Title)

	v := validation.New()
	v.StringLength("title", in.Title, 1, 100)
	v.MaxLength("description", in.Description, 500)
	v.PositiveAmount("cost", in.Cost)
	if err := v.Err(); err != nil {
		return nil, err
	}

	reward := &models.Reward{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Cost:        in.Cost,
		ImageURL:    in.ImageURL,
		Available:   true,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.rewardRepo.CreateReward(ctx, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// ListRewards returns the parent's rewards, each with its claims
func (s *RewardService) ListRewards(ctx context.Context, userID string) ([]models.RewardWithClaims, error) {
	rewards, err := s.rewardRepo.ListRewardsByUser(ctx, userID, false)
	if err != nil {
		return nil, err
	}
	claims, err := s.rewardRepo.ListClaimsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byReward := make(map[string][]models.RewardClaimDetail)
	for _, claim := range claims {
		byReward[claim.RewardID] = append(byReward[claim.RewardID], claim)
	}

	result := make([]models.RewardWithClaims, 0, len(rewards))
	for _, reward := range rewards {
		rc := byReward[reward.ID]
		if rc == nil {
			rc = []models.RewardClaimDetail{}
		}
		result = append(result, models.RewardWithClaims{Reward: reward, Claims: rc})
	}
	return result, nil
}

// ListForKid returns the rewards a kid can claim
func (s *RewardService) ListForKid(ctx context.Context, kid *models.Kid) ([]models.Reward, error) {
	return s.rewardRepo.ListRewardsByUser(ctx, kid.UserID, true)
}

// ClaimReward records a pending claim. The kid must currently afford the reward.
func (s *RewardService) ClaimReward(ctx context.Context, kid *models.Kid, rewardID string) (*models.RewardClaim, error) {
	reward, err := s.rewardRepo.GetRewardForUser(ctx, rewardID, kid.UserID)
	if err != nil {
		return nil, err
	}
	if reward == nil || !reward.Available {
		return nil, ErrRewardNotFound
	}
	if kid.Balance.LessThan(reward.Cost) {
		return nil, ErrInsufficientBalance
	}

	claim := &models.RewardClaim{
		ID:        uuid.New().String(),
		RewardID:  reward.ID,
		KidID:     kid.ID,
		Status:    models.ClaimPending,
		ClaimedAt: s.now().UTC(),
	}
	if err := s.rewardRepo.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	s.log.Info().Str("kid_id", kid.ID).Str("reward_id", reward.ID).Str("claim_id", claim.ID).Msg("Reward claimed")
	return claim, nil
}

// ApproveClaim debits the reward cost as a PURCHASE and marks the claim approved, in one database transaction
func (s *RewardService) ApproveClaim(ctx context.Context, userID, claimID string) (*models.RewardClaimDetail, error) {
	var (
		detail *models.RewardClaimDetail
		kid    *models.Kid
		tx     *models.Transaction
	)
	err := s.db.WithTx(ctx, func(dbtx *database.Tx) error {
		rewards := s.rewardRepo.WithTx(dbtx)

		var err error
		detail, err = s.pendingClaim(ctx, rewards, userID, claimID)
		if err != nil {
			return err
		}

		current, err := s.ledger.kidRepo.WithTx(dbtx).LockKidForUser(ctx, detail.KidID, userID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrKidNotFound
		}
		if current.Balance.LessThan(detail.Cost) {
			return ErrInsufficientBalance
		}

		kid, tx, err = s.ledger.recordTx(ctx, dbtx, userID, RecordInput{
			KidID:       detail.KidID,
			Kind:        models.KindPurchase,
			Amount:      detail.Cost.Neg(),
			Description: "Reward: " + detail.RewardTitle,
			Metadata:    models.Metadata{"rewardId": detail.RewardID, "claimId": detail.ID},
		})
		if err != nil {
			return err
		}

		return s.resolve(ctx, rewards, detail, models.ClaimApproved, &tx.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("claim_id", claimID).Str("transaction_id", tx.ID).Msg("Reward claim approved")
	s.ledger.notify(ctx, userID, kid, tx)
	return detail, nil
}

// RejectClaim marks a pending claim rejected without touching the balance
func (s *RewardService) RejectClaim(ctx context.Context, userID, claimID string) (*models.RewardClaimDetail, error) {
	var detail *models.RewardClaimDetail
	err := s.db.WithTx(ctx, func(dbtx *database.Tx) error {
		rewards := s.rewardRepo.WithTx(dbtx)

		var err error
		detail, err = s.pendingClaim(ctx, rewards, userID, claimID)
		if err != nil {
			return err
		}
		return s.resolve(ctx, rewards, detail, models.ClaimRejected, nil)
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *RewardService) pendingClaim(ctx context.Context, rewards *repository.RewardRepository, userID, claimID string) (*models.RewardClaimDetail, error) {
	detail, err := rewards.GetClaimForUser(ctx, claimID, userID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrClaimNotFound
	}
	if detail.Status != models.ClaimPending {
		return nil, ErrClaimResolved
	}
	return detail, nil
}

func (s *RewardService) resolve(ctx context.Context, rewards *repository.RewardRepository, detail *models.RewardClaimDetail, status models.ClaimStatus, transactionID *string) error {
	resolvedAt := s.now().UTC()
	ok, err := rewards.ResolveClaim(ctx, detail.ID, status, transactionID, resolvedAt)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("claim %s: %w", detail.ID, ErrClaimResolved)
	}

	detail.Status = status
	detail.TransactionID = transactionID
	detail.ResolvedAt = &resolvedAt
	return nil
}
