package utils

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// ErrNotAJWT is returned by [ParseTokenUnverified] for opaque tokens.
var ErrNotAJWT = errors.New("token is not a JWT")

// ParseTokenUnverified decodes the registered claims of a JWT without
// checking its signature. The agent never holds the signing key; the claims
// are only used to tell whether a stored access token is still worth
// restoring.
//
// Returns [ErrNotAJWT] when tokenString is not in the compact JWS format.
//
// Example usage:
//
//	token, err := utils.ParseTokenUnverified(raw)
//	if err == nil && token.Expired(time.Now()) {
//	    // drop the access token, keep the refresh token
//	}
func ParseTokenUnverified(tokenString string) (models.Token, error) {
	claims := &jwt.RegisteredClaims{}

	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return models.Token{}, fmt.Errorf("%w: %v", ErrNotAJWT, err)
		}
		return models.Token{}, fmt.Errorf("error parsing token claims: %w", err)
	}

	return models.Token{RegisteredClaims: *claims, SignedString: tokenString}, nil
}
