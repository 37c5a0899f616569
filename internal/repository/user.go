package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"userauth/api/internal/ids"
	"userauth/api/internal/models"
	"userauth/api/internal/security"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// buildUser turns registration input into a storable record: the id and
// reset key are generated and the password is hashed here, so no caller
// can persist plaintext.
func buildUser(input models.NewUser, now time.Time) (models.User, error) {
	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	key, err := security.GenerateResetKey()
	if err != nil {
		return models.User{}, err
	}

	return models.User{
		ID:           ids.New(),
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		FullName:     input.FullName,
		PasswordHash: hash,
		UniqueKey:    key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
