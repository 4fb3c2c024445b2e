package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reward is something a parent offers that kids can spend their balance on
type Reward struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Cost        decimal.Decimal `json:"cost"`
	ImageURL    *string         `json:"imageUrl"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ClaimStatus is the state of a reward claim
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
)

// RewardClaim records a kid asking to redeem a reward
type RewardClaim struct {
	ID            string      `json:"id"`
	RewardID      string      `json:"rewardId"`
	KidID         string      `json:"kidId"`
	Status        ClaimStatus `json:"status"`
	TransactionID *string     `json:"transactionId"`
	ClaimedAt     time.Time   `json:"claimedAt"`
	ResolvedAt    *time.Time  `json:"resolvedAt"`
}

// RewardClaimDetail is a claim joined with its reward and kid
type RewardClaimDetail struct {
	RewardClaim
	RewardTitle string          `json:"rewardTitle"`
	Cost        decimal.Decimal `json:"cost"`
	KidName     string          `json:"kidName"`
}

// RewardWithClaims is a reward together with its claims, newest first
type RewardWithClaims struct {
	Reward
	Claims []RewardClaimDetail `json:"claims"`
}
