// Package party identifies the two sides of a negotiation.
package party

import (
	"strings"

	"github.com/example/clarence/internal/apperrors"
)

// Party is one side of a negotiation.
type Party string

const (
	Requesting Party = "requesting" // customer
	Fulfilling Party = "fulfilling" // provider
)

// Parse accepts the canonical names plus the customer/provider aliases.
func Parse(raw string) (Party, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "requesting", "customer":
		return Requesting, nil
	case "fulfilling", "provider", "supplier":
		return Fulfilling, nil
	default:
		return "", &apperrors.ValidationError{Field: "party", Value: raw, Reason: "must be requesting or fulfilling"}
	}
}

// Valid reports whether p is one of the two parties.
func (p Party) Valid() bool {
	return p == Requesting || p == Fulfilling
}

// Other returns the opposite party.
func (p Party) Other() Party {
	if p == Requesting {
		return Fulfilling
	}
	return Requesting
}
