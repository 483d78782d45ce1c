package core

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an authenticated system user scoped to a company.
type User struct {
	ID           int
	CompanyID    int
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
}

// CheckPassword compares a plaintext password against the stored bcrypt hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HashPassword produces a bcrypt hash for storage in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// UserService provides user lookup operations.
type UserService interface {
	// GetByUsername finds an active user by username. Usernames are globally
	// unique, so the lookup does not take a company code.
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID returns a user by primary key.
	GetByID(ctx context.Context, userID int) (*User, error)
}
