package account

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/email"
	"github.com/avion00/medicare-backend/pkg/logging"

	"golang.org/x/crypto/bcrypt"
)

// ErrMissingFields is returned when a registration lacks a required field.
var ErrMissingFields = errors.New("missing required fields")

const (
	defaultResetTTL  = time.Hour
	resetTokenBytes  = 32
	minPasswordRunes = 1
)

// UserStore is the persistence used by Service.
type UserStore interface {
	Create(ctx context.Context, u User) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	SaveResetToken(ctx context.Context, userID int64, tokenHash string, expiration time.Time) error
	ResetPassword(ctx context.Context, tokenHash, passwordHash string) (int64, error)
}

type Service struct {
	store         UserStore
	mailer        email.Mailer
	logger        logging.Logger
	jwtSecret     []byte
	tokenTTL      time.Duration
	resetTTL      time.Duration
	publicBaseURL string
	bcryptCost    int
}

type ServiceOption func(*Service)

func WithLogger(logger logging.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMailer delivers reset links by email. Without one the link is logged.
func WithMailer(m email.Mailer) ServiceOption {
	return func(s *Service) { s.mailer = m }
}

func WithTokenTTL(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.tokenTTL = d
		}
	}
}

// WithPublicBaseURL sets the origin used to build reset links.
func WithPublicBaseURL(base string) ServiceOption {
	return func(s *Service) { s.publicBaseURL = strings.TrimRight(base, "/") }
}

func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

func NewService(store UserStore, jwtSecret []byte, opts ...ServiceOption) *Service {
	s := &Service{
		store:         store,
		logger:        logging.NewDiscardLogger(),
		jwtSecret:     jwtSecret,
		tokenTTL:      auth.DefaultTokenTTL,
		resetTTL:      defaultResetTTL,
		publicBaseURL: "http://localhost:18020",
		bcryptCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries a signup form. Password is the clear-text password.
type RegisterInput struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	CountryCode   string `json:"country_code"`
	MobileNumber  string `json:"mobile_number"`
	CompanyName   string `json:"company_name"`
	City          string `json:"city"`
	State         string `json:"state"`
	Country       string `json:"country"`
	BotUsage      string `json:"medicare_bot_usage"`
	Package       string `json:"package"`
	EmailVerified bool   `json:"email_verified"`
}

func (in RegisterInput) validate() error {
	for _, v := range []string{in.FirstName, in.LastName, in.Username, in.Email} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	if len([]rune(in.Password)) < minPasswordRunes {
		return ErrMissingFields
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	if err := in.validate(); err != nil {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.store.Create(ctx, User{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Username:      strings.TrimSpace(in.Username),
		Email:         strings.TrimSpace(in.Email),
		CountryCode:   in.CountryCode,
		MobileNumber:  in.MobileNumber,
		CompanyName:   in.CompanyName,
		City:          in.City,
		State:         in.State,
		Country:       in.Country,
		BotUsage:      in.BotUsage,
		Package:       in.Package,
		EmailVerified: in.EmailVerified,
		PasswordHash:  hash,
	})
	if err != nil {
		return User{}, err
	}
	s.logger.WithFields(logging.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User registered")
	return user, nil
}

// Login checks credentials and returns a signed session token. Unknown users
// and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	user, err := s.store.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}
	if user.AccountStatus != "" && user.AccountStatus != "active" {
		return "", ErrInvalidCredentials
	}

	token, err := auth.GenerateJWT(user.ID, user.Username, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// RequestPasswordReset issues a one-hour reset token for the account behind
// emailAddr and delivers the link. Returns ErrUserNotFound for unknown emails.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(emailAddr)
	if emailAddr == "" {
		return ErrUserNotFound
	}
	user, err := s.store.GetByEmail(ctx, emailAddr)
	if err != nil {
		return err
	}

	token, err := auth.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return err
	}
	if err := s.store.SaveResetToken(ctx, user.ID, hashToken(token), time.Now().Add(s.resetTTL)); err != nil {
		return err
	}

	link := s.resetLink(token)
	log := s.logger.WithField("user_id", user.ID)
	if s.mailer == nil {
		log.WithField("reset_link", link).Info("Password reset link issued (mail delivery disabled)")
		return nil
	}
	if err := s.mailer.SendMail(ctx, emailAddr, email.PasswordResetSubject, email.PasswordResetBody(user.Username, link)); err != nil {
		// The token is stored; the user can ask again.
		log.WithError(err).Error("Failed to send password reset email")
		return nil
	}
	log.Info("Password reset email sent")
	return nil
}

// ResetPassword sets a new password for the owner of token and consumes the
// token. Returns ErrInvalidResetToken for unknown, used or expired tokens.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || len([]rune(newPassword)) < minPasswordRunes {
		return ErrMissingFields
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	userID, err := s.store.ResetPassword(ctx, hashToken(token), hash)
	if err != nil {
		return err
	}
	s.logger.WithField("user_id", userID).Info("Password reset")
	return nil
}

func (s *Service) resetLink(token string) string {
	return fmt.Sprintf("%s/reset_password?token=%s", s.publicBaseURL, url.QueryEscape(token))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
