// Package auth implements the credential verification collaborator using
// HMAC-signed JWTs issued by the platform's API layer.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/amelendez141/Golf-App-sub001/internal/domain"
)

// Claims carries the golfer identity inside a signed token.
type Claims struct {
	DisplayName string `json:"display_name,omitempty"`
	Industry    string `json:"industry,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates handshake tokens and resolves them to identities.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for tokens signed with the given secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify implements domain.CredentialVerifier. Any parse, signature, expiry,
// or subject failure maps to domain.ErrInvalidCredential; the concrete cause
// is wrapped for logging but callers branch on the sentinel only.
func (v *Verifier) Verify(_ context.Context, credential string) (*domain.Identity, error) {
	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidCredential
	}

	actorID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject: %w", domain.ErrInvalidCredential, err)
	}

	return &domain.Identity{
		ActorID:     actorID,
		DisplayName: claims.DisplayName,
		Industry:    claims.Industry,
	}, nil
}
