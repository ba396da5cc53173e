// Package credentials stores report service API tokens in the OS keyring
package credentials

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
)

const serviceName = "lazyreport"

// ErrTokenNotFound is returned when no token is stored for a server and user
var ErrTokenNotFound = errors.New("token not found in keyring")

// TokenSaveError wraps a keyring write failure
type TokenSaveError struct {
	Err     error
	Message string
}

func (e *TokenSaveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *TokenSaveError) Unwrap() error { return e.Err }

// TokenReadError wraps a keyring read failure other than a missing key
type TokenReadError struct {
	Err error
}

func (e *TokenReadError) Error() string {
	return fmt.Sprintf("failed to read token from keyring: %v", e.Err)
}

func (e *TokenReadError) Unwrap() error { return e.Err }

// TokenStore keeps one bearer token per server URL and user
type TokenStore struct {
	ring          keyring.Keyring
	usingFallback bool
}

// NewTokenStore opens the platform keyring, falling back to an encrypted
// file under configDir/keyring
func NewTokenStore(configDir string) (*TokenStore, error) {
	backends := backendsForPlatform()

	ring, err := keyring.Open(keyring.Config{
		ServiceName:     serviceName,
		AllowedBackends: backends,
		FileDir:         filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(_ string) (string, error) {
			return deriveFilePassword()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open keyring")
	}

	return &TokenStore{
		ring:          ring,
		usingFallback: usingFallback(backends),
	}, nil
}

// NewTokenStoreWithKeyring wraps an already opened keyring
func NewTokenStoreWithKeyring(ring keyring.Keyring) *TokenStore {
	return &TokenStore{ring: ring}
}

func backendsForPlatform() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		return []keyring.BackendType{keyring.KeychainBackend, keyring.FileBackend}
	case "linux":
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.FileBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend, keyring.FileBackend}
	default:
		return []keyring.BackendType{keyring.FileBackend}
	}
}

func usingFallback(requested []keyring.BackendType) bool {
	if len(requested) == 1 && requested[0] == keyring.FileBackend {
		return true
	}
	for _, b := range keyring.AvailableBackends() {
		if b != keyring.FileBackend {
			return false
		}
	}
	return true
}

// IsUsingFallback reports whether tokens go to the file backend
func (s *TokenStore) IsUsingFallback() bool {
	return s.usingFallback
}

// Save stores the token for serverURL and user. Empty tokens are ignored.
func (s *TokenStore) Save(serverURL, user, token string) error {
	if token == "" {
		return nil
	}

	err := s.ring.Set(keyring.Item{
		Key:         makeKey(serverURL, user),
		Data:        []byte(token),
		Label:       fmt.Sprintf("lazyreport: %s@%s", user, normalizeURL(serverURL)),
		Description: "Report service API token for lazyreport",
	})
	if err != nil {
		return &TokenSaveError{Err: err, Message: "failed to save token to keyring"}
	}
	return nil
}

// Get returns the token for serverURL and user
func (s *TokenStore) Get(serverURL, user string) (string, error) {
	item, err := s.ring.Get(makeKey(serverURL, user))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrTokenNotFound
		}
		return "", &TokenReadError{Err: err}
	}
	return string(item.Data), nil
}

// Delete removes the token; a missing token is not an error
func (s *TokenStore) Delete(serverURL, user string) error {
	err := s.ring.Remove(makeKey(serverURL, user))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return errors.Wrap(err, "delete token from keyring")
	}
	return nil
}

func makeKey(serverURL, user string) string {
	return normalizeURL(serverURL) + "|" + user
}

func normalizeURL(serverURL string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(serverURL)), "/")
}
