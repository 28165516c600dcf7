// Package device keeps the anonymous identity of this installation in a
// small on-disk key/value directory.
package device

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// IdentityKey is the storage key holding the device token.
const IdentityKey = "mindflow_neural_identity_v4"

const tokenPrefix = "neural_"

var tokenPattern = regexp.MustCompile(`^neural_[0-9a-z]{12}$`)

// ErrInvalidToken indicates a stored token that does not look like one.
var ErrInvalidToken = errors.New("invalid device token")

// Identity reads and creates the device token.
type Identity struct {
	d    *diskv.Diskv
	rand io.Reader
}

// Option customises an Identity.
type Option func(*Identity)

// WithRandom replaces the random source used for new tokens.
func WithRandom(r io.Reader) Option {
	return func(i *Identity) { i.rand = r }
}

// Open returns the identity store rooted at dir.
func Open(dir string, opts ...Option) (*Identity, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("device: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating device directory: %w", err)
	}
	id := &Identity{
		d: diskv.New(diskv.Options{
			BasePath:     dir,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024,
			FilePerm:     0o600,
			PathPerm:     0o700,
		}),
		rand: rand.Reader,
	}
	for _, opt := range opts {
		opt(id)
	}
	return id, nil
}

// Token returns the stored token. ok is false when none exists.
func (i *Identity) Token() (token string, ok bool, err error) {
	if !i.d.Has(IdentityKey) {
		return "", false, nil
	}
	raw, err := i.d.Read(IdentityKey)
	if err != nil {
		return "", false, fmt.Errorf("reading device token: %w", err)
	}
	token = strings.TrimSpace(string(raw))
	if !Valid(token) {
		return "", false, fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return token, true, nil
}

// LoadOrCreate returns the stored token, generating and storing a new one
// only when none exists.
func (i *Identity) LoadOrCreate() (string, error) {
	token, ok, err := i.Token()
	if err != nil {
		return "", err
	}
	if ok {
		return token, nil
	}
	token, err = NewToken(i.rand)
	if err != nil {
		return "", err
	}
	if err := i.d.Write(IdentityKey, []byte(token)); err != nil {
		return "", fmt.Errorf("storing device token: %w", err)
	}
	return token, nil
}

// Reset forgets the stored token. The next LoadOrCreate makes a new one.
func (i *Identity) Reset() error {
	if !i.d.Has(IdentityKey) {
		return nil
	}
	if err := i.d.Erase(IdentityKey); err != nil {
		return fmt.Errorf("erasing device token: %w", err)
	}
	return nil
}

// NewToken generates "neural_" followed by twelve lowercase hex characters.
func NewToken(r io.Reader) (string, error) {
	buf := make([]byte, 6)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("generating device token: %w", err)
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}

// Valid reports whether token has the device token shape.
func Valid(token string) bool {
	return tokenPattern.MatchString(token)
}
