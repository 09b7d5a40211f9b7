// Package token issues and verifies report submission tokens: signed
// tokens binding a report id, used to authorize follow-up access to one
// report without a login session. Tokens carry no expiry.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalid is returned for malformed, tampered or unverifiable tokens.
// A missing signing secret also fails closed with this error.
var ErrInvalid = errors.New("invalid report token")

type reportClaims struct {
	ReportID string `json:"reportId"`
	jwt.RegisteredClaims
}

// Signer issues and verifies submission tokens with an HMAC secret.
type Signer struct {
	secret []byte
}

// NewSigner creates a signer. An empty secret disables issuing and makes
// every verification fail.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Enabled reports whether a signing secret is configured.
func (s *Signer) Enabled() bool {
	return len(s.secret) > 0
}

// Issue signs a token for the given report id.
func (s *Signer) Issue(reportID uuid.UUID) (string, error) {
	if !s.Enabled() {
		return "", ErrInvalid
	}

	claims := reportClaims{
		ReportID: reportID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "wildguard",
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign report token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and returns the bound report id.
func (s *Signer) Verify(tokenString string) (uuid.UUID, error) {
	if !s.Enabled() || tokenString == "" {
		return uuid.Nil, ErrInvalid
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &reportClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*reportClaims)
	if !ok {
		return uuid.Nil, ErrInvalid
	}

	reportID, err := uuid.Parse(claims.ReportID)
	if err != nil {
		return uuid.Nil, ErrInvalid
	}
	return reportID, nil
}
