package utils

import "github.com/google/uuid"

// UUIDGenerator produces time-ordered identifiers for flush passes and
// HTTP requests.
type UUIDGenerator struct{}

// NewUUIDGenerator returns a generator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a UUIDv7 string, falling back to a random UUIDv4 when the
// v7 generator fails.
func (g *UUIDGenerator) Generate() string {
	return NewID()
}

// NewID is [UUIDGenerator.Generate] without a generator value.
func NewID() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
