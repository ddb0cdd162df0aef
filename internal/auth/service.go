package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyPassword is hashed once per hasher so that a login for an unknown
// email pays the same bcrypt cost as a wrong password.
const dummyPassword = "expense-tracker-placeholder-password"

type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	dummyHash, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare password hasher: %w", err)
	}
	return &PasswordHasher{cost: cost, dummyHash: dummyHash}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash plain password to hashed password: %w", err)
	}
	return string(hashedPassword), nil
}

// Compare reports whether plainPwd matches hashedPwd. A malformed digest is
// a mismatch, never an error.
func (h *PasswordHasher) Compare(hashedPwd string, plainPwd string) bool {
	return ComparePasswords(hashedPwd, plainPwd)
}

// CompareDummy burns one comparison against the placeholder digest and
// always reports false.
func (h *PasswordHasher) CompareDummy(plainPwd string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(plainPwd))
	return false
}

func ComparePasswords(hashedPwd string, plainPwd string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPwd), []byte(plainPwd))
	return err == nil
}
