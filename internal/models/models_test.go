package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSessionIsExpired(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{
			name:      "future expiration",
			expiresAt: time.Now().Add(1 * time.Hour),
			want:      false,
		},
		{
			name:      "just expired",
			expiresAt: time.Now().Add(-1 * time.Second),
			want:      true,
		},
		{
			name:      "expired yesterday",
			expiresAt: time.Now().Add(-24 * time.Hour),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := Session{
				ID:        "test-session",
				UserID:    "user-1",
				ExpiresAt: tt.expiresAt,
				CreatedAt: time.Now().Add(-1 * time.Hour),
			}
			if got := session.IsExpired(); got != tt.want {
				t.Errorf("Session.IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransactionKindIsValid(t *testing.T) {
	tests := []struct {
		kind TransactionKind
		want bool
	}{
		{KindChore, true},
		{KindAllowance, true},
		{KindPurchase, true},
		{KindBonus, true},
		{KindPenalty, true},
		{"chore", false},
		{"REFUND", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("TransactionKind(%q).IsValid() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestCentsConversion(t *testing.T) {
	tests := []struct {
		amount string
		cents  int64
	}{
		{"10", 1000},
		{"-3", -300},
		{"0.05", 5},
		{"12.34", 1234},
		{"-0.01", -1},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			d := decimal.RequireFromString(tt.amount)
			if got := DecimalToCents(d); got != tt.cents {
				t.Errorf("DecimalToCents(%s) = %d, want %d", tt.amount, got, tt.cents)
			}
			if got := CentsToDecimal(tt.cents); !got.Equal(d) {
				t.Errorf("CentsToDecimal(%d) = %s, want %s", tt.cents, got, tt.amount)
			}
		})
	}
}

func TestKidPublicOmitsPIN(t *testing.T) {
	kid := Kid{ID: "kid-1", Name: "Ava", PINHash: "secret-hash", Balance: decimal.RequireFromString("12.50")}

	data, err := json.Marshal(kid.Public())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, key := range []string{"pin", "pinHash", "PINHash"} {
		if _, ok := decoded[key]; ok {
			t.Errorf("public kid exposes %q", key)
		}
	}
	if decoded["balance"] != 12.5 {
		t.Errorf("balance = %v, want numeric 12.5", decoded["balance"])
	}
}

func TestMetadataScan(t *testing.T) {
	tests := []struct {
		name    string
		src     interface{}
		wantNil bool
		wantErr bool
	}{
		{name: "null", src: nil, wantNil: true},
		{name: "string", src: `{"kidId":"kid-1"}`},
		{name: "bytes", src: []byte(`{"kidId":"kid-1"}`)},
		{name: "empty", src: "", wantNil: true},
		{name: "not an object", src: `[1,2]`, wantErr: true},
		{name: "wrong type", src: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Metadata
			err := m.Scan(tt.src)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Scan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if (m == nil) != tt.wantNil {
				t.Errorf("Scan() nil = %v, want %v", m == nil, tt.wantNil)
			}
			if !tt.wantNil && m["kidId"] != "kid-1" {
				t.Errorf("kidId = %v, want kid-1", m["kidId"])
			}
		})
	}
}
