package domain

import "context"

// PhoneNumber is a phone number as reported by the identity provider.
type PhoneNumber struct {
	Number   string
	Verified bool
}

// IdentityProfile is the external profile exposed by the identity provider.
type IdentityProfile struct {
	ExternalID   string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	AvatarURL    string
	PhoneNumbers []PhoneNumber
}

// VerifiedPhone returns the first verified phone number, if any.
func (p *IdentityProfile) VerifiedPhone() (string, bool) {
	for _, n := range p.PhoneNumbers {
		if n.Verified {
			return n.Number, true
		}
	}
	return "", false
}

// IdentityProvider is the external collaborator resolving caller identity
// and profile data. Authentication itself is fully delegated to it.
type IdentityProvider interface {
	// VerifySession validates an inbound session credential and yields the
	// stable external user id. Invalid credentials map to ErrUnauthorized.
	VerifySession(ctx context.Context, token string) (string, error)
	// FetchProfile loads the external profile by id.
	FetchProfile(ctx context.Context, externalID string) (*IdentityProfile, error)
}

// MediaStorage is the external collaborator persisting uploaded images.
// Synchronous per file; no batch API is assumed.
type MediaStorage interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte) (string, error)
}

// EventPublisher emits fire-and-forget integration events. Publish failures
// are never fatal to the operation that triggered them.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
