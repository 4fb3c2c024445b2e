package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/models"
	"piggybank/internal/repository"
)

// BackupData is the JSON document written by Export
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exportedAt"`
	Users        []models.User        `json:"users"`
	Kids         []KidBackup          `json:"kids"`
	Transactions []models.Transaction `json:"transactions"`
}

// KidBackup is a kid record without credential material
type KidBackup struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Age       *int            `json:"age"`
	AvatarURL *string         `json:"avatarUrl"`
	HasPIN    bool            `json:"hasPin"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// LedgerMismatch is a kid whose stored balance differs from its transaction total
type LedgerMismatch struct {
	KidID           string          `json:"kidId"`
	KidName         string          `json:"kidName"`
	Balance         decimal.Decimal `json:"balance"`
	TransactionsSum decimal.Decimal `json:"transactionsSum"`
}

// BackupService exports data and audits the ledger
type BackupService struct {
	userRepo *repository.UserRepository
	kidRepo  *repository.KidRepository
	txRepo   *repository.TransactionRepository
	log      zerolog.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(userRepo *repository.UserRepository, kidRepo *repository.KidRepository, txRepo *repository.TransactionRepository, log zerolog.Logger) *BackupService {
	return &BackupService{
		userRepo: userRepo,
		kidRepo:  kidRepo,
		txRepo:   txRepo,
		log:      log,
	}
}

// Export writes users, kids, and transactions to w as indented JSON
func (s *BackupService) Export(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now().UTC(),
	}

	users, err := s.userRepo.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	backup.Users = users

	kids, err := s.kidRepo.ListAllKids(ctx)
	if err != nil {
		return fmt.Errorf("failed to export kids: %w", err)
	}
	backup.Kids = make([]KidBackup, 0, len(kids))
	for _, kid := range kids {
		backup.Kids = append(backup.Kids, KidBackup{
			ID:        kid.ID,
			UserID:    kid.UserID,
			Name:      kid.Name,
			Age:       kid.Age,
			AvatarURL: kid.AvatarURL,
			HasPIN:    kid.HasPIN(),
			Balance:   kid.Balance,
			CreatedAt: kid.CreatedAt,
		})
	}

	txs, err := s.txRepo.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to export transactions: %w", err)
	}
	backup.Transactions = txs

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.Info().
		Int("users", len(backup.Users)).
		Int("kids", len(backup.Kids)).
		Int("transactions", len(backup.Transactions)).
		Msg("Database exported")
	return nil
}

// VerifyLedger returns every kid whose balance is not the sum of its transactions
func (s *BackupService) VerifyLedger(ctx context.Context) ([]LedgerMismatch, error) {
	kids, err := s.kidRepo.ListAllKids(ctx)
	if err != nil {
		return nil, err
	}

	mismatches := []LedgerMismatch{}
	for _, kid := range kids {
		sum, err := s.txRepo.SumForKid(ctx, kid.ID)
		if err != nil {
			return nil, err
		}
		total := models.CentsToDecimal(sum)
		if !total.Equal(kid.Balance) {
			mismatches = append(mismatches, LedgerMismatch{
				KidID:           kid.ID,
				KidName:         kid.Name,
				Balance:         kid.Balance,
				TransactionsSum: total,
			})
		}
	}

	s.log.Info().Int("kids", len(kids)).Int("mismatches", len(mismatches)).Msg("Ledger verified")
	return mismatches, nil
}
