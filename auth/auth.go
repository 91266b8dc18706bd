// Package auth signs parish staff in with email and password and keeps their
// session in a signed cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"churchsite/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// Session is what the site knows about a signed in user.
type Session struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginResult struct {
	Success bool
	User    *Session
	Error   string
}

type Service struct {
	db   *gorm.DB
	cost int
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost}
}

// Login checks the password against the stored bcrypt hash. A wrong password
// and an unknown email produce the same failed result.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return LoginResult{Error: ErrInvalidCredentials.Error()}, nil
	}

	var user database.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return LoginResult{Error: ErrInvalidCredentials.Error()}, nil
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("error looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Printf("Failed sign in for %s", email)
		return LoginResult{Error: ErrInvalidCredentials.Error()}, nil
	}

	return LoginResult{
		Success: true,
		User:    &Session{ID: user.ID, Username: user.Username, Email: user.Email},
	}, nil
}

// CreateUser stores a new staff account with a bcrypt hash of password.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*database.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" {
		return nil, errors.New("username and email are required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &database.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("error creating user %s: %w", username, err)
	}
	return user, nil
}

// SetPassword replaces the password of the user with the given email.
func (s *Service) SetPassword(ctx context.Context, email, password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&database.User{}).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		Update("password_hash", string(hash))
	if res.Error != nil {
		return fmt.Errorf("error updating password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no user with email %s", email)
	}
	return nil
}
