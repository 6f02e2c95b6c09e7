package config

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	tokenService = "lockbox"
	tokenAccount = "api_token"
)

// Keychain abstracts platform secret storage for the API token.
type Keychain interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
}

// NewKeychain returns the platform keychain: the macOS Keychain via the
// security CLI on darwin, a credentials file elsewhere.
func NewKeychain() Keychain {
	return platformKeychain{}
}

type platformKeychain struct{}

func (platformKeychain) Get(service, account string) (string, error) {
	out, err := keychainGet(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (platformKeychain) Set(service, account, value string) error {
	return keychainSet(service, account, value)
}

// GetAPIToken returns the bearer token protecting the management API,
// generating and storing a fresh one on first use.
func GetAPIToken(kc Keychain) (string, error) {
	if tok, err := kc.Get(tokenService, tokenAccount); err == nil && tok != "" {
		return tok, nil
	}

	tok := uuid.NewString()
	if err := kc.Set(tokenService, tokenAccount, tok); err != nil {
		return "", fmt.Errorf("storing API token: %w", err)
	}
	return tok, nil
}
