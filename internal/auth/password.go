package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for stored passwords.
const defaultCost = 12

// MaxPasswordBytes is the longest password bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned by Hash for passwords over MaxPasswordBytes.
	ErrPasswordTooLong = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)

	// ErrPasswordMismatch is returned by Verify when the password is wrong.
	ErrPasswordMismatch = errors.New("auth: invalid password")
)

// PasswordService hashes and verifies passwords with bcrypt. The cost is a
// field so tests can use the minimum.
type PasswordService struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with bcrypt's minimum
// cost. Never use it outside tests.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt hash of plaintext. The salt and cost are embedded
// in the result, which is stored as-is.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A wrong password yields
// ErrPasswordMismatch; a malformed hash yields a different error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// VerifyDummy runs a full bcrypt comparison against a throwaway hash of the
// service's cost and discards the result. Login calls it when there is no
// real hash to check, so an unknown email costs as much as a wrong password.
func (p *PasswordService) VerifyDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(p.dummyHash(), []byte(plaintext))
}

func (p *PasswordService) dummyHash() []byte {
	p.dummyOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte("notekeep-no-such-account"), p.cost)
		if err != nil {
			// Only an invalid cost fails, and cost is fixed by the constructors.
			panic(fmt.Sprintf("auth: building dummy hash: %v", err))
		}
		p.dummy = h
	})
	return p.dummy
}
