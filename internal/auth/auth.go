// Package auth is the till's credential store.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	applog "bakehouse/internal/log"
	"bakehouse/models"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrDuplicateUsername  = errors.New("auth: username already exists")
	ErrInvalidRole        = errors.New("auth: unknown role")
	ErrMissingCredentials = errors.New("auth: username and password are required")
)

// Store creates and verifies user accounts.
type Store struct {
	db   *gorm.DB
	cost int
}

// NewStore returns a Store using bcrypt's default cost.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, cost: bcrypt.DefaultCost}
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CreateUser registers an account. An empty role means staff.
func (s *Store) CreateUser(ctx context.Context, username, password, role string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}
	if role == "" {
		role = models.RoleStaff
	}
	if !models.ValidRole(role) {
		return models.User{}, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Username: username, PasswordHash: string(hashed), Role: role}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateUsername
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return models.User{}, err
	}

	applog.Info(ctx, "user created", "username", username, "role", role)
	return user, nil
}

// Authenticate verifies the password and returns the account. Accounts still
// carrying the legacy unsalted SHA-256 digest are rehashed with bcrypt on
// their first successful login.
func (s *Store) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, ErrMissingCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("load user: %w", err)
	}

	if isLegacyDigest(user.PasswordHash) {
		if !legacyMatch(user.PasswordHash, password) {
			return models.User{}, ErrInvalidCredentials
		}
		s.upgrade(ctx, &user, password)
		return user, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Store) upgrade(ctx context.Context, user *models.User, password string) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		applog.Error(ctx, "failed to rehash legacy password", "username", user.Username, "error", err)
		return
	}
	if err := s.db.WithContext(ctx).Model(user).Update("password_hash", string(hashed)).Error; err != nil {
		applog.Error(ctx, "failed to store upgraded password hash", "username", user.Username, "error", err)
		return
	}
	applog.Info(ctx, "legacy password hash upgraded", "username", user.Username)
}

func isLegacyDigest(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func legacyMatch(stored, password string) bool {
	sum := sha256.Sum256([]byte(password))
	candidate := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(candidate)) == 1
}
