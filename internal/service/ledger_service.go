package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/database"
	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/validation"
)

const (
	// TransactionListLimit caps the parent transaction listing
	TransactionListLimit = 50
	// KidRecentTransactions is how many transactions kid mode shows
	KidRecentTransactions = 10
)

// RecordInput describes a ledger entry to record
type RecordInput struct {
	KidID       string
	Kind        models.TransactionKind
	Amount      decimal.Decimal
	Description string
	Category    *string
	Metadata    models.Metadata
}

// TransactionNotifier is told about every committed transaction
type TransactionNotifier interface {
	NotifyTransaction(ctx context.Context, userID string, kid *models.Kid, tx *models.Transaction) error
}

// LedgerService records transactions and keeps kid balances in step with them.
// A kid's balance always equals the sum of its transaction amounts because
// both are written in the same database transaction.
type LedgerService struct {
	db       *database.DB
	kidRepo  *repository.KidRepository
	txRepo   *repository.TransactionRepository
	notifier TransactionNotifier
	pending  sync.WaitGroup
	now      func() time.Time
	log      zerolog.Logger
}

// NewLedgerService creates a new ledger service. notifier may be nil.
func NewLedgerService(db *database.DB, kidRepo *repository.KidRepository, txRepo *repository.TransactionRepository, notifier TransactionNotifier, log zerolog.Logger) *LedgerService {
	return &LedgerService{
		db:       db,
		kidRepo:  kidRepo,
		txRepo:   txRepo,
		notifier: notifier,
		now:      time.Now,
		log:      log,
	}
}

// ValidateRecordInput trims and checks a record request, reporting every invalid field
func ValidateRecordInput(in *RecordInput) error {
	in.Description = strings.TrimSpace(in.Description)

	v := validation.New()
	v.Check(strings.TrimSpace(in.KidID) != "", "kidId", "kidId is required")
	v.Check(in.Kind.IsValid(), "type", "type must be one of CHORE, ALLOWANCE, PURCHASE, BONUS, PENALTY")
	v.Amount("amount", in.Amount)
	v.StringLength("description", in.Description, 1, 500)
	if in.Category != nil {
		v.MaxLength("category", *in.Category, 100)
	}
	return v.Err()
}

// Record validates and records a transaction for a kid owned by userID,
// applying its amount to the kid's balance atomically.
func (s *LedgerService) Record(ctx context.Context, userID string, in RecordInput) (*models.Transaction, error) {
	if err := ValidateRecordInput(&in); err != nil {
		return nil, err
	}

	var (
		kid *models.Kid
		tx  *models.Transaction
	)
	err := s.db.WithTx(ctx, func(dbtx *database.Tx) error {
		var err error
		kid, tx, err = s.recordTx(ctx, dbtx, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("kid_id", kid.ID).
		Str("transaction_id", tx.ID).
		Str("type", string(tx.Kind)).
		Str("amount", tx.Amount.StringFixed(2)).
		Msg("Recorded transaction")

	s.notify(ctx, userID, kid, tx)
	return tx, nil
}

// recordTx writes the transaction row and the balance delta on q, which must be a database transaction
func (s *LedgerService) recordTx(ctx context.Context, q database.DBTX, userID string, in RecordInput) (*models.Kid, *models.Transaction, error) {
	kids := s.kidRepo.WithTx(q)

	kid, err := kids.GetKidForUser(ctx, in.KidID, userID)
	if err != nil {
		return nil, nil, err
	}
	if kid == nil {
		return nil, nil, ErrKidNotFound
	}

	tx := &models.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		KidID:       kid.ID,
		Kind:        in.Kind,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		Metadata:    in.Metadata,
		Status:      models.StatusApproved,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.txRepo.WithTx(q).CreateTransaction(ctx, tx); err != nil {
		return nil, nil, err
	}
	if err := kids.AddToBalance(ctx, kid.ID, models.DecimalToCents(in.Amount)); err != nil {
		return nil, nil, err
	}

	kid.Balance = kid.Balance.Add(in.Amount)
	return kid, tx, nil
}

func (s *LedgerService) notify(ctx context.Context, userID string, kid *models.Kid, tx *models.Transaction) {
	if s.notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if err := s.notifier.NotifyTransaction(ctx, userID, kid, tx); err != nil {
			s.log.Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to send transaction notification")
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done
func (s *LedgerService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns up to 50 of the parent's transactions, newest first, optionally for one kid
func (s *LedgerService) List(ctx context.Context, userID, kidID string) ([]models.TransactionWithKid, error) {
	txs, err := s.txRepo.ListForUser(ctx, userID, kidID, TransactionListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Recent returns a kid's n most recent transactions
func (s *LedgerService) Recent(ctx context.Context, kidID string, n int) ([]models.Transaction, error) {
	txs, err := s.txRepo.ListRecentForKid(ctx, kidID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}
	return txs, nil
}
