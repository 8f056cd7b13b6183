package services

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"phonebook/internal/avatar"
	"phonebook/internal/models"
	"phonebook/internal/repositories"
	"phonebook/pkg/mailer"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for stored passwords.
const passwordCost = 10

// AuthConfig carries the settings AuthService needs from the environment.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// BaseURL prefixes the verification links sent by mail.
	BaseURL string
}

// RegisterInput is the data accepted on sign-up.
type RegisterInput struct {
	Email        string
	Password     string
	Subscription models.Subscription
}

// AuthService handles registration, email verification, sessions and avatars.
type AuthService struct {
	userRepo  repositories.UserRepository
	mailer    mailer.Mailer
	avatars   avatar.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	baseURL   string
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, m mailer.Mailer, avatars avatar.Store, cfg AuthConfig, logger *zap.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 23 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		mailer:    m,
		avatars:   avatars,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  ttl,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		logger:    logger,
	}
}

// Register creates an unverified user and mails the verification link.
func (s *AuthService) Register(input RegisterInput) (*models.User, error) {
	if _, err := s.userRepo.GetByEmail(input.Email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	subscription := input.Subscription
	if subscription == "" {
		subscription = models.SubscriptionStarter
	}

	user := &models.User{
		Email:             input.Email,
		Password:          string(hashedPassword),
		Subscription:      subscription,
		AvatarURL:         GravatarURL(input.Email),
		VerificationToken: ksuid.New().String(),
	}
	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))

	if err := s.sendVerification(user); err != nil {
		return nil, err
	}
	return user, nil
}

// VerifyEmail marks the owner of token as verified. A token works once.
func (s *AuthService) VerifyEmail(token string) error {
	user, err := s.userRepo.GetByVerificationToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	user.Verify = true
	user.VerificationToken = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to verify user: %w", err)
	}
	s.logger.Info("email verified", zap.String("user_id", user.ID))
	return nil
}

// ResendVerifyEmail mails the stored verification link again.
func (s *AuthService) ResendVerifyEmail(email string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if user.Verify {
		return ErrAlreadyVerified
	}
	return s.sendVerification(user)
}

// Login checks credentials, issues a session token and stores it on the
// user, replacing any earlier session.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.Verify {
		return "", nil, ErrEmailNotVerified
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  user.ID,
		"jti": uuid.New().String(),
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	user.Token = &tokenString
	if err := s.userRepo.Update(user); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}
	return tokenString, user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// Authenticate resolves a session token to its user. The token must be
// valid and still be the one stored on the user.
func (s *AuthService) Authenticate(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("session token rejected", zap.Error(err))
		return nil, ErrNotAuthorized
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return nil, ErrNotAuthorized
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, err
	}
	if !user.HasSession(tokenString) {
		return nil, ErrNotAuthorized
	}
	return user, nil
}

// Logout clears the stored session token.
func (s *AuthService) Logout(user *models.User) error {
	user.Token = nil
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// UpdateAvatar stores the uploaded image at tempPath and records its URL.
func (s *AuthService) UpdateAvatar(user *models.User, originalName, tempPath string) (string, error) {
	url, err := s.avatars.Save(user.ID, originalName, tempPath)
	if err != nil {
		if errors.Is(err, avatar.ErrInvalidImage) {
			return "", ErrInvalidAvatar
		}
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	user.AvatarURL = url
	if err := s.userRepo.Update(user); err != nil {
		return "", fmt.Errorf("failed to update avatar: %w", err)
	}
	return url, nil
}

func (s *AuthService) sendVerification(user *models.User) error {
	email := mailer.Email{
		To:      user.Email,
		Subject: "Verify email",
		HTML: fmt.Sprintf(`<a target="_blank" href="%s">Click verify email</a>`,
			s.VerificationLink(user.VerificationToken)),
	}
	if err := s.mailer.Send(email); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// VerificationLink is the URL a user follows to confirm their address.
func (s *AuthService) VerificationLink(token string) string {
	return s.baseURL + "/api/auth/verify/" + token
}

// GravatarURL is the default identicon for email.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
}
