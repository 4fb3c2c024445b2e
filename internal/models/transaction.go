package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry
type TransactionKind string

const (
	KindChore     TransactionKind = "CHORE"
	KindAllowance TransactionKind = "ALLOWANCE"
	KindPurchase  TransactionKind = "PURCHASE"
	KindBonus     TransactionKind = "BONUS"
	KindPenalty   TransactionKind = "PENALTY"
)

// TransactionKinds lists every accepted kind
var TransactionKinds = []TransactionKind{KindChore, KindAllowance, KindPurchase, KindBonus, KindPenalty}

// IsValid reports whether k is a known kind
func (k TransactionKind) IsValid() bool {
	for _, kind := range TransactionKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// TransactionStatus is the approval state of a transaction
type TransactionStatus string

// StatusApproved is the only status a recorded transaction can have
const StatusApproved TransactionStatus = "APPROVED"

// Transaction is an immutable ledger entry. The amount is signed.
type Transaction struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	KidID       string            `json:"kidId"`
	Kind        TransactionKind   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Category    *string           `json:"category"`
	Metadata    Metadata          `json:"metadata"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// TransactionWithKid is a transaction joined with its kid's name
type TransactionWithKid struct {
	Transaction
	KidName string `json:"kidName"`
}
