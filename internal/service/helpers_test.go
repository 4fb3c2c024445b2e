package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"piggybank/internal/ai"
	"piggybank/internal/database"
	"piggybank/internal/models"
	"piggybank/internal/repository"
	"piggybank/internal/testutil"
)

type fixture struct {
	db      *database.DB
	users   *repository.UserRepository
	kids    *repository.KidRepository
	txs     *repository.TransactionRepository
	chats   *repository.ChatRepository
	rewards *repository.RewardRepository
	ledger  *LedgerService
	kidSvc  *KidService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:      db,
		users:   repository.NewUserRepository(db),
		kids:    repository.NewKidRepository(db),
		txs:     repository.NewTransactionRepository(db),
		chats:   repository.NewChatRepository(db),
		rewards: repository.NewRewardRepository(db),
	}
	f.ledger = NewLedgerService(db, f.kids, f.txs, nil, zerolog.Nop())
	f.kidSvc = NewKidService(f.kids, nil, zerolog.Nop())
	return f
}

func (f *fixture) parent(t *testing.T, subject string) *models.User {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), "google", subject, subject+"@example.com", "Parent "+subject)
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (f *fixture) kid(t *testing.T, userID string, in CreateKidInput) *models.Kid {
	t.Helper()
	kid, err := f.kidSvc.CreateKid(context.Background(), userID, in)
	if err != nil {
		t.Fatalf("CreateKid() error = %v", err)
	}
	return kid
}

func (f *fixture) record(t *testing.T, userID, kidID string, kind models.TransactionKind, amount string) *models.Transaction {
	t.Helper()
	tx, err := f.ledger.Record(context.Background(), userID, RecordInput{
		KidID:       kidID,
		Kind:        kind,
		Amount:      decimal.RequireFromString(amount),
		Description: string(kind) + " " + amount,
	})
	if err != nil {
		t.Fatalf("Record(%s) error = %v", amount, err)
	}
	return tx
}

func (f *fixture) balance(t *testing.T, kidID string) decimal.Decimal {
	t.Helper()
	kid, err := f.kids.GetKidByID(context.Background(), kidID)
	if err != nil || kid == nil {
		t.Fatalf("GetKidByID() = %v, %v", kid, err)
	}
	return kid.Balance
}

// fakeLLM records requests and replies with a fixed response
type fakeLLM struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []ai.Request
}

func (f *fakeLLM) Generate(ctx context.Context, req ai.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

func (f *fakeLLM) last() ai.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func intPtr(n int) *int {
	return &n
}
