package security

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords over bcrypt's 72 byte input limit.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	// DummyVerify burns the same time as a failed Verify. Login calls it for
	// unknown emails.
	DummyVerify(pw string)
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func (b BcryptHasher) DummyVerify(pw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash(b.cost()), []byte(pw))
}

// one throwaway hash per cost, generated on first use
var dummyHashes sync.Map

func dummyHash(cost int) []byte {
	if v, ok := dummyHashes.Load(cost); ok {
		return v.([]byte)
	}
	h, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	if err != nil {
		return nil
	}
	v, _ := dummyHashes.LoadOrStore(cost, h)
	return v.([]byte)
}
