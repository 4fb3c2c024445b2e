package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"piggybank/internal/models"
)

// KidView is a kid as shown to its parent
type KidView struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Age       *int            `json:"age"`
	AvatarURL *string         `json:"avatarUrl"`
	HasPIN    bool            `json:"hasPin"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

func newKidView(kid *models.Kid) KidView {
	return KidView{
		ID:        kid.ID,
		Name:      kid.Name,
		Age:       kid.Age,
		AvatarURL: kid.AvatarURL,
		HasPIN:    kid.HasPIN(),
		Balance:   kid.Balance,
		CreatedAt: kid.CreatedAt,
	}
}

func newKidViews(kids []models.Kid) []KidView {
	views := make([]KidView, 0, len(kids))
	for i := range kids {
		views = append(views, newKidView(&kids[i]))
	}
	return views
}

// KidSessionView is the signed-in kid with its latest transactions
type KidSessionView struct {
	models.PublicKid
	Transactions []models.Transaction `json:"transactions"`
}

type kidSessionStatus struct {
	Authenticated bool            `json:"authenticated"`
	Kid           *KidSessionView `json:"kid,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}
