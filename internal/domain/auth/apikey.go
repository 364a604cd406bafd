// Package auth is the seam to the external identity provider: requests carry
// an API key that resolves to an authenticated user identifier. The core
// never manages credentials.
package auth

import "context"

// Identity is the authenticated principal behind a validated API key.
type Identity struct {
	ID      string
	KeyHash string
	UserID  string
	Name    string
}

// Repository provides identity lookup by HMAC-SHA256 key hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Identity, error)
}
