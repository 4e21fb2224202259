package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrEmptySecret is returned when tokens would be signed or checked with an
// empty HMAC key, which anyone could forge.
var ErrEmptySecret = errors.New("tenant token secret is empty")

// TenantClaims identifies the tenant an ingress token was issued for.
type TenantClaims struct {
	CompanyID string `json:"company_id"`
	jwt.StandardClaims
}

// GenerateTenantToken creates a signed HS256 token for companyID.
func GenerateTenantToken(secret []byte, companyID string, duration time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := TenantClaims{
		CompanyID: companyID,
		StandardClaims: jwt.StandardClaims{
			Subject:   companyID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(duration).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateTenantToken parses a token string and returns its tenant claims.
func ValidateTenantToken(secret []byte, tokenString string) (*TenantClaims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	claims := &TenantClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.CompanyID == "" {
		return nil, errors.New("token does not contain a valid 'company_id' claim")
	}
	return claims, nil
}
