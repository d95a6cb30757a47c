package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// inviteCodeAlphabet avoids lowercase so codes survive being read aloud or
// typed from a screenshot.
const inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const inviteCodeLength = 8

// GenerateInviteCode generates a random 8-character team invite code.
// Collisions are possible in theory; callers retry against the unique index.
func GenerateInviteCode() (string, error) {
	code := make([]byte, inviteCodeLength)
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		code[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}
