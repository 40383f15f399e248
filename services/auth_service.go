package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/hackingtorch/hackingtorch/metrics"
	"github.com/hackingtorch/hackingtorch/models"
	"github.com/hackingtorch/hackingtorch/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	resetTokenLength  = 32
	resetTokenTTL     = 1 * time.Hour
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Profile, error)
	Login(ctx context.Context, input LoginInput) (*models.Profile, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type RegisterInput struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Phone     *string `json:"phone,omitempty"`
	Organizer bool    `json:"organizer,omitempty"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Mailer interface {
	SendWelcomeEmail(email, firstName string) error
	SendPasswordResetEmail(email, resetToken string) error
}

type authService struct {
	profileRepo repositories.ProfileRepository
	mailer      Mailer
	logger      *slog.Logger
}

func NewAuthService(profileRepo repositories.ProfileRepository, mailer Mailer, logger *slog.Logger) AuthService {
	return &authService{
		profileRepo: profileRepo,
		mailer:      mailer,
		logger:      logger,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Profile, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	input.FirstName = strings.TrimSpace(input.FirstName)

	if input.FirstName == "" {
		return nil, ErrValidationFailed
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, ErrEmailInvalid
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userType := models.UserTypeParticipant
	if input.Organizer {
		userType = models.UserTypeOrganizer
	}

	// Учётные данные и профиль — одна запись, одна вставка: расхождение
	// "auth-субъект есть, профиля нет" здесь невозможно.
	profile := &models.Profile{
		FirstName:    input.FirstName,
		LastName:     strings.TrimSpace(input.LastName),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Phone:        input.Phone,
		UserType:     userType,
		Status:       models.ProfileStatusActive,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	if err := s.mailer.SendWelcomeEmail(profile.Email, profile.FirstName); err != nil {
		metrics.EmailsFailed.Inc()
		s.logger.Warn("failed to send welcome email",
			slog.String("email", profile.Email), slog.Any("error", err))
	} else {
		metrics.EmailsSent.Inc()
	}

	metrics.Registrations.Inc()
	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Profile, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	if profile.Status == models.ProfileStatusSuspended {
		return nil, ErrProfileSuspended
	}

	metrics.Logins.Inc()
	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		// Не раскрываем, зарегистрирован ли email.
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up profile for reset: %w", err)
	}

	token, err := generateSecureToken(resetTokenLength)
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	if err := s.profileRepo.SetPasswordResetToken(ctx, profile.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(profile.Email, token); err != nil {
		metrics.EmailsFailed.Inc()
		s.logger.Warn("failed to send password reset email",
			slog.String("email", profile.Email), slog.Any("error", err))
	} else {
		metrics.EmailsSent.Inc()
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrPasswordTooShort
	}

	profile, err := s.profileRepo.GetByPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if profile.PasswordResetExpiresAt == nil || profile.PasswordResetExpiresAt.Before(time.Now()) {
		return ErrResetTokenInvalid
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	profile.PasswordHash = string(hashedPassword)
	profile.PasswordResetToken = nil
	profile.PasswordResetExpiresAt = nil

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
