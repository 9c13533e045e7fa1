// Package apikey mints API keys. Only the bcrypt hash and the lookup prefix of
// a key are ever stored.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/api/middleware"
	"github.com/kiranshivaraju/acrasync/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// Prefix starts every raw key.
const Prefix = "as_"

// Scopes a key may carry.
const (
	ScopeRead  = "read"
	ScopeSync  = "sync"
	ScopeAdmin = "admin"
)

var ErrInvalidScope = errors.New("invalid scope")

var validScopes = map[string]bool{ScopeRead: true, ScopeSync: true, ScopeAdmin: true}

// ValidateScopes rejects empty or unknown scope lists.
func ValidateScopes(scopes []string) error {
	if len(scopes) == 0 {
		return fmt.Errorf("%w: at least one scope is required", ErrInvalidScope)
	}
	for _, s := range scopes {
		if !validScopes[s] {
			return fmt.Errorf("%w: %q", ErrInvalidScope, s)
		}
	}
	return nil
}

// Generate creates a key named name. The raw key is returned once and must be
// handed to the caller; the model only holds its hash.
func Generate(name string, scopes []string) (string, *models.APIKey, error) {
	if err := ValidateScopes(scopes); err != nil {
		return "", nil, err
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	raw := Prefix + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hashing key: %w", err)
	}

	now := time.Now().UTC()
	return raw, &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:middleware.KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
