package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/newsboard/newsboard/internal/model"
	"github.com/newsboard/newsboard/internal/repository"
	"github.com/newsboard/newsboard/internal/session"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrOTPDelivery        = errors.New("failed to deliver otp")
)

// dummyHash keeps the response time of unknown usernames close to real ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("newsboard-dummy-password"), bcrypt.DefaultCost)

type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
}

type AuthService struct {
	userRepo  repository.UserRepository
	mailer    OTPMailer
	otpExpiry time.Duration
	now       func() time.Time
	newCode   func() (string, error)
}

type AuthOption func(*AuthService)

func WithAuthClock(now func() time.Time) AuthOption {
	return func(s *AuthService) { s.now = now }
}

func WithCodeGenerator(gen func() (string, error)) AuthOption {
	return func(s *AuthService) { s.newCode = gen }
}

func NewAuthService(userRepo repository.UserRepository, mailer OTPMailer, otpExpiry time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		userRepo:  userRepo,
		mailer:    mailer,
		otpExpiry: otpExpiry,
		now:       time.Now,
		newCode:   GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) OTPExpiry() time.Duration {
	return s.otpExpiry
}

// Authenticate checks username and password. Stored hashes may be bcrypt or
// legacy lowercase hex SHA-256.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepo.ByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.ComparePassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// ComparePassword reports whether password matches hash.
func (s *AuthService) ComparePassword(password, hash string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	sum := sha256.Sum256([]byte(password))
	want := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(hash))) == 1
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// StartChallenge verifies the credentials, mails a fresh code and returns the
// provisional state to store in the session. Nothing is returned on failure,
// so the caller keeps the session Anonymous.
func (s *AuthService) StartChallenge(ctx context.Context, username, password string) (session.AwaitingOTP, error) {
	user, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return session.AwaitingOTP{}, err
	}

	code, err := s.newCode()
	if err != nil {
		return session.AwaitingOTP{}, fmt.Errorf("failed to generate otp: %w", err)
	}

	err = s.mailer.SendOTP(ctx, user.Email, code, s.otpExpiry)
	if err != nil {
		slog.Error("failed to send otp", "error", err, "user_id", user.ID)
		return session.AwaitingOTP{}, fmt.Errorf("%w: %w", ErrOTPDelivery, err)
	}

	slog.Info("otp issued", "user_id", user.ID)
	return session.Anonymous{}.Challenge(user.ID, code, s.now()), nil
}

// VerifyChallenge checks code against the pending challenge.
func (s *AuthService) VerifyChallenge(pending session.AwaitingOTP, code string) (session.State, error) {
	next, err := pending.Verify(strings.TrimSpace(code), s.now(), s.otpExpiry)
	switch {
	case errors.Is(err, session.ErrOTPExpired):
		slog.Info("otp expired", "user_id", pending.UserID)
	case errors.Is(err, session.ErrOTPMismatch):
		slog.Warn("otp mismatch", "user_id", pending.UserID)
	case err == nil:
		slog.Info("admin logged in", "user_id", pending.UserID)
	}
	return next, err
}

// CurrentUser loads the account behind an authenticated session.
func (s *AuthService) CurrentUser(ctx context.Context, auth session.Authenticated) (*model.User, error) {
	user, err := s.userRepo.ByID(ctx, auth.UserID())
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// CreateUser provisions an administrator with a bcrypt hash.
func (s *AuthService) CreateUser(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{Username: username, Email: email, PasswordHash: hash}
	err = s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GenerateOTP returns a uniformly random six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
