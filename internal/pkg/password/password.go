// Package password hashes user passwords with bcrypt or argon2id.
//
// The configured algorithm is only used for new hashes. Compare recognises
// both encodings, so switching PASSWORD_HASHER keeps existing accounts able
// to log in.
package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/streamhub/account-service/internal/core/domain"
)

const (
	Bcrypt   = "bcrypt"
	Argon2id = "argon2id"
)

const argon2Prefix = "$argon2id$"

type Hasher struct {
	algorithm  string
	bcryptCost int
	params     *argon2id.Params
}

// New returns a Hasher for algorithm. Unknown names fall back to bcrypt.
func New(algorithm string) *Hasher {
	algo := strings.ToLower(strings.TrimSpace(algorithm))
	if algo != Argon2id {
		algo = Bcrypt
	}
	return &Hasher{
		algorithm:  algo,
		bcryptCost: bcrypt.DefaultCost,
		params:     argon2id.DefaultParams,
	}
}

// NewWithCost returns a bcrypt Hasher with an explicit cost (tests use MinCost).
func NewWithCost(cost int) *Hasher {
	h := New(Bcrypt)
	h.bcryptCost = cost
	return h
}

func (h *Hasher) Algorithm() string {
	return h.algorithm
}

func (h *Hasher) Hash(plain string) (string, error) {
	if h.algorithm == Argon2id {
		hash, err := argon2id.CreateHash(plain, h.params)
		if err != nil {
			return "", fmt.Errorf("argon2id hash: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewValidationError("password", "password must be at most 72 bytes")
		}
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether plain matches hash. A mismatch is not an error.
func (h *Hasher) Compare(hash, plain string) (bool, error) {
	if strings.HasPrefix(hash, argon2Prefix) {
		ok, err := argon2id.ComparePasswordAndHash(plain, hash)
		if err != nil {
			return false, fmt.Errorf("argon2id compare: %w", err)
		}
		return ok, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("bcrypt compare: %w", err)
	}
}
