package models

import "time"

// User is the stored identity record. PasswordHash and RefreshToken never
// leave the service; use Public or Minimal for responses.
type User struct {
	ID                    string     `bson:"_id"`
	Email                 string     `bson:"email"`
	FullName              string     `bson:"fullname"`
	PasswordHash          string     `bson:"password"`
	UniqueKey             string     `bson:"uniqueKey"`
	RefreshToken          *string    `bson:"refreshToken,omitempty"`
	RefreshTokenExpiresAt *time.Time `bson:"refreshTokenExpiresAt,omitempty"`
	CreatedAt             time.Time  `bson:"createdAt"`
	UpdatedAt             time.Time  `bson:"updatedAt"`
}

type PublicUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullname"`
	UniqueKey string    `json:"uniqueKey"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MinimalUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		UniqueKey: u.UniqueKey,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u User) Minimal() MinimalUser {
	return MinimalUser{
		ID:       u.ID,
		FullName: u.FullName,
		Email:    u.Email,
	}
}

// HasRefreshToken reports whether the user holds an active server-tracked session.
func (u User) HasRefreshToken() bool {
	return u.RefreshToken != nil && *u.RefreshToken != ""
}

// NewUser carries registration input to the store. Password is plaintext;
// stores hash it before writing.
type NewUser struct {
	Email    string
	FullName string
	Password string
}
