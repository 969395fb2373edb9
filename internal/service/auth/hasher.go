package auth

import (
	"crypto/sha256"
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

// Adaptive cost. Noticeably slower than bcrypt.DefaultCost on purpose
const bcryptCost = 12

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

// Bcrypt password hasher
// Passwords are sha256-prehashed, so bcrypt's 72 byte input limit never truncates.
// Hashing is bounded by a semaphore sized to GOMAXPROCS: a login burst queues
// here instead of starving the goroutines serving other connections
type BcryptHasher struct {
	sem chan struct{}
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{
		sem: make(chan struct{}, runtime.GOMAXPROCS(0)),
	}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcryptCost)
	return string(hash), err
}

func (h *BcryptHasher) Compare(hashedPassword string, password string) error {
	h.sem <- struct{}{}
	defer func() { <-h.sem }()

	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
