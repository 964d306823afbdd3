package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"agendamento-backend/models"
	"agendamento-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("credenciais_invalidas")
	ErrSessionExpired     = errors.New("sessao_expirada")
)

// sessionTTL is the fixed session lifetime; it is not refreshed per request.
const sessionTTL = 10 * time.Minute

// SessionService verifies staff credentials and manages server-side sessions.
type SessionService struct {
	DB *gorm.DB
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{DB: db}
}

// Login checks the credentials and, on success, creates a session. Both the
// unknown-user and wrong-password paths return ErrInvalidCredentials so the
// response cannot be used to enumerate usernames.
func (s *SessionService) Login(username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.StaffUser
	if err := s.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Senha), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	sess := &models.Session{
		Token:       token,
		StaffUserID: user.ID,
		ExpiresAt:   time.Now().Add(sessionTTL),
	}
	if err := s.DB.Create(sess).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

// Validate resolves a cookie token to a live session.
func (s *SessionService) Validate(token string) (*models.Session, error) {
	if token == "" {
		return nil, ErrSessionExpired
	}
	var sess models.Session
	err := s.DB.Where("token = ? AND expires_at > ?", token, time.Now()).First(&sess).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	return &sess, nil
}

// Logout removes the session; a missing or unknown token is not an error.
func (s *SessionService) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.DB.Where("token = ?", token).Delete(&models.Session{}).Error
}
