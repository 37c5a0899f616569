package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"userauth/api/internal/models"
	"userauth/api/internal/security"
)

// MemoryUserRepository keeps users in process memory. It backs local
// development (store.driver=memory) and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]models.User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryUserRepository) Create(ctx context.Context, input models.NewUser) (string, error) {
	user, err := buildUser(input, r.now())
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return "", ErrEmailTaken
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return user.ID, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return cloneUser(user), nil
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *MemoryUserRepository) SetRefreshToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	return r.update(id, func(u *models.User) {
		u.RefreshToken = &token
		u.RefreshTokenExpiresAt = &expiresAt
	})
}

func (r *MemoryUserRepository) ClearRefreshToken(ctx context.Context, id string) error {
	return r.update(id, func(u *models.User) {
		u.RefreshToken = nil
		u.RefreshTokenExpiresAt = nil
	})
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, id string, password string) error {
	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return r.update(id, func(u *models.User) {
		u.PasswordHash = hash
	})
}

func (r *MemoryUserRepository) ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cleared int64
	for id, user := range r.byID {
		if user.RefreshTokenExpiresAt == nil || user.RefreshTokenExpiresAt.After(now) {
			continue
		}
		user.RefreshToken = nil
		user.RefreshTokenExpiresAt = nil
		user.UpdatedAt = r.now()
		r.byID[id] = user
		cleared++
	}
	return cleared, nil
}

func (r *MemoryUserRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *MemoryUserRepository) update(id string, mutate func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return ErrUserNotFound
	}
	mutate(&user)
	user.UpdatedAt = r.now()
	r.byID[id] = user
	return nil
}

func cloneUser(u models.User) models.User {
	if u.RefreshToken != nil {
		token := *u.RefreshToken
		u.RefreshToken = &token
	}
	if u.RefreshTokenExpiresAt != nil {
		at := *u.RefreshTokenExpiresAt
		u.RefreshTokenExpiresAt = &at
	}
	return u
}
