package security

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidKidToken is returned for any token that fails to parse or verify
var ErrInvalidKidToken = errors.New("invalid kid session token")

// KidClaims is the payload of a kid session token
type KidClaims struct {
	KidID     string `json:"kidId"`
	SessionID string `json:"sessionId"`
	CreatedAt int64  `json:"createdAt"`
	jwt.RegisteredClaims
}

// CreatedTime returns the creation time carried in the token
func (c *KidClaims) CreatedTime() time.Time {
	return time.UnixMilli(c.CreatedAt)
}

// KidTokenSigner signs and verifies kid session tokens with HS256
type KidTokenSigner struct {
	secret []byte
}

// NewKidTokenSigner creates a signer. The secret must not be empty.
func NewKidTokenSigner(secret []byte) (*KidTokenSigner, error) {
	if len(secret) == 0 {
		return nil, errors.New("kid session secret is empty")
	}
	return &KidTokenSigner{secret: secret}, nil
}

// GenerateSecret returns a random hex secret for when none is configured
func GenerateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Sign encodes the claims into a signed token
func (s *KidTokenSigner) Sign(kidID, sessionID string, createdAt time.Time) (string, error) {
	claims := &KidClaims{
		KidID:     kidID,
		SessionID: sessionID,
		CreatedAt: createdAt.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(createdAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign kid token: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature and returns the claims.
// Expiry is not checked here; callers compare CreatedAt against their own clock.
func (s *KidTokenSigner) Parse(tokenString string) (*KidClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := &KidClaims{}

	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidKidToken
	}
	if claims.KidID == "" || claims.SessionID == "" || claims.CreatedAt <= 0 {
		return nil, ErrInvalidKidToken
	}
	return claims, nil
}
