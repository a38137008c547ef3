package domain

import (
	"context"

	"github.com/google/uuid"
)

// Identity is the result of verifying a realtime handshake credential.
type Identity struct {
	ActorID     uuid.UUID
	DisplayName string
	Industry    string
}

// CredentialVerifier turns a raw handshake credential into an Identity.
// Implementations return ErrInvalidCredential on any verification failure.
type CredentialVerifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}
