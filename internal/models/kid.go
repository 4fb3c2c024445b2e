package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kid represents a child profile owned by a parent.
// Balance only changes as a side effect of recording a transaction.
type Kid struct {
	ID        string
	UserID    string
	Name      string
	Age       *int
	AvatarURL *string
	PINHash   string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPIN reports whether the kid can sign in to kid mode
func (k *Kid) HasPIN() bool {
	return k.PINHash != ""
}

// PublicKid is the view of a kid that is safe to show in kid mode
type PublicKid struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Age       *int            `json:"age"`
	AvatarURL *string         `json:"avatarUrl"`
	Balance   decimal.Decimal `json:"balance"`
}

// Public returns the kid without any credential material
func (k *Kid) Public() PublicKid {
	return PublicKid{
		ID:        k.ID,
		Name:      k.Name,
		Age:       k.Age,
		AvatarURL: k.AvatarURL,
		Balance:   k.Balance,
	}
}
