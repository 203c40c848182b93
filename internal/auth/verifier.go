// Package auth validates bearer tokens minted by the external identity
// service. Token issuance and refresh live outside this codebase; only the
// verification side of the contract is implemented here.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jasselhoff/festival-planner/internal/domain"
)

// Verifier checks HS256-signed JWTs against a shared secret and extracts
// the caller's identity.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type tokenClaims struct {
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	jwt.RegisteredClaims
}

// Verify implements domain.TokenVerifier. It maps verification failures onto
// the domain's token sentinels so callers can distinguish expired from
// otherwise invalid credentials.
func (v *Verifier) Verify(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrTokenMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, domain.ErrTokenExpired
		}
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return domain.Identity{}, domain.ErrTokenInvalid
	}

	return domain.Identity{
		UserID:      userID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, nil
}
