package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	ticketReferenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketReferenceLength   = 8
	// 36^8 codes; ten straight collisions means something is wrong.
	maxTicketReferenceAttempts = 10
)

// TicketReferenceFunc draws one candidate ticket reference.
type TicketReferenceFunc func() (string, error)

// NewTicketReference draws a random 8-character code from A-Z and 0-9.
func NewTicketReference() (string, error) {
	alphabetLen := big.NewInt(int64(len(ticketReferenceAlphabet)))
	b := make([]byte, ticketReferenceLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("draw ticket reference: %w", err)
		}
		b[i] = ticketReferenceAlphabet[n.Int64()]
	}
	return string(b), nil
}

// ValidTicketReference reports whether ref has the generated shape.
func ValidTicketReference(ref string) bool {
	if len(ref) != ticketReferenceLength {
		return false
	}
	for i := range len(ref) {
		c := ref[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
