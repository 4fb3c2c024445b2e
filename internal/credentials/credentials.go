package credentials

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

const pinDigits = "0123456789"

// GeneratePIN generates a random 4-digit kid PIN
func GeneratePIN() (string, error) {
	pin := make([]byte, 4)
	for i := range pin {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(pinDigits))))
		if err != nil {
			return "", err
		}
		pin[i] = pinDigits[num.Int64()]
	}
	return string(pin), nil
}

// GenerateChatSessionID generates an identifier for a new chat conversation
func GenerateChatSessionID() string {
	return "session-" + uuid.New().String()
}
