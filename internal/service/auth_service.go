package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/repository"
	"github.com/YashVG/techprep-sub000/pkg/config"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/sanitize"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
	UpdateEmail(ctx context.Context, id int64, email string, updatedAt time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	TokenSecret  string
	TokenExpiry  time.Duration
	Issuer       string
	EmailPattern string
	Password     config.PasswordConfig
}

// AuthService provides registration, login and session token use cases.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	security  SecurityRecorder
	config    AuthConfig
	email     *regexp.Regexp
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, security SecurityRecorder, cfg AuthConfig) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = dto.NewValidator()
	}
	if security == nil {
		security = (*SecurityService)(nil)
	}
	if cfg.TokenExpiry <= 0 {
		cfg.TokenExpiry = 24 * time.Hour
	}
	if cfg.Password.BcryptCost == 0 {
		cfg.Password.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Password.MinLength <= 0 {
		cfg.Password.MinLength = 8
	}
	email, err := regexp.Compile(cfg.EmailPattern)
	if err != nil {
		return nil, fmt.Errorf("compile email pattern: %w", err)
	}
	return &AuthService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		security:  security,
		config:    cfg,
		email:     email,
		now:       time.Now,
	}, nil
}

// Register creates an account and returns it with a fresh session token.
func (s *AuthService) Register(ctx context.Context, req dto.RegisterRequest, meta dto.RequestMeta) (*dto.AuthResponse, error) {
	req.Username = sanitize.PlainText(req.Username)
	req.Email = sanitize.PlainText(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}
	if !s.email.MatchString(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be an institutional address")
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check username")
	}
	if exists {
		s.recordDuplicate(ctx, meta, "username")
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	}
	exists, err = s.repo.ExistsByEmail(ctx, req.Email, 0)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if exists {
		s.recordDuplicate(ctx, meta, "email")
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.Password.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	user := &models.User{Username: req.Username, Email: req.Email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			s.recordDuplicate(ctx, meta, "username_or_email")
			return nil, appErrors.Clone(appErrors.ErrConflict, "username or email already exists")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))

	return s.issue(user)
}

// Login authenticates by username and password. Every failure yields the
// same error so callers cannot tell unknown users from wrong passwords.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest, meta dto.RequestMeta) (*dto.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username and password are required")
	}
	if err := s.validator.Struct(req); err != nil {
		// Oversized input is just another mismatch.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
		s.recordLoginFailure(ctx, meta, 0, req.Username)
		return nil, appErrors.ErrInvalidCredentials
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Internal(err, "failed to fetch user")
		}
		// Spend the same bcrypt work as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(req.Password))
		s.recordLoginFailure(ctx, meta, 0, req.Username)
		return nil, appErrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.recordLoginFailure(ctx, meta, user.ID, req.Username)
		return nil, appErrors.ErrInvalidCredentials
	}

	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	return s.issue(user)
}

// Logout acknowledges a client-side token discard. Tokens stay valid until expiry.
func (s *AuthService) Logout(_ context.Context, principal models.Principal) {
	s.logger.Info("user logged out", zap.Int64("user_id", principal.UserID))
}

// Profile returns the caller's own account.
func (s *AuthService) Profile(ctx context.Context, principal models.Principal) (*models.User, error) {
	if !principal.Authenticated {
		return nil, appErrors.ErrUnauthorized
	}
	user, err := s.repo.FindByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// UpdateProfile changes the caller's email address.
func (s *AuthService) UpdateProfile(ctx context.Context, principal models.Principal, req dto.UpdateProfileRequest) (*models.User, error) {
	req.Email = sanitize.PlainText(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, dto.ValidationMessage(err))
	}
	if !s.email.MatchString(req.Email) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "email must be an institutional address")
	}
	user, err := s.Profile(ctx, principal)
	if err != nil {
		return nil, err
	}
	if user.Email == req.Email {
		return user, nil
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email, user.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	now := s.now().UTC()
	if err := s.repo.UpdateEmail(ctx, user.ID, req.Email, now); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to update email")
	}
	user.Email = req.Email
	user.UpdatedAt = now
	return user, nil
}

// ChangePassword replaces the caller's password after re-verifying the current one.
func (s *AuthService) ChangePassword(ctx context.Context, principal models.Principal, req dto.ChangePasswordRequest, meta dto.RequestMeta) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, dto.ValidationMessage(err))
	}
	user, err := s.Profile(ctx, principal)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		s.security.Record(ctx, principalEvent(models.SecurityEventPasswordChangeFailed, user.ID, meta, nil))
		return appErrors.Clone(appErrors.ErrUnauthorized, "current password is incorrect")
	}
	if err := s.checkPassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.Password.BcryptCost)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), s.now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}
	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}

// ValidateToken verifies signature, algorithm and expiry, returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.TokenSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrUnauthorized.Status, "token expired")
		}
		return nil, appErrors.Wrap(err, appErrors.KindAuth, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// IsTokenExpired reports whether a ValidateToken error was caused by expiry.
func IsTokenExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

func (s *AuthService) issue(user *models.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create token")
	}
	return &dto.AuthResponse{User: *user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) generateToken(user *models.User) (string, time.Time, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.TokenExpiry)
	claims := &models.JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.TokenSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *AuthService) checkPassword(password string) error {
	policy := s.config.Password
	fail := func(msg string) error { return appErrors.Clone(appErrors.ErrValidation, msg) }

	if len([]rune(password)) < policy.MinLength {
		return fail(fmt.Sprintf("password must be at least %d characters long", policy.MinLength))
	}
	if len(password) > maxPasswordBytes {
		return fail(fmt.Sprintf("password must be at most %d bytes long", maxPasswordBytes))
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case policy.RequireUpper && !upper:
		return fail("password must contain at least one uppercase letter")
	case policy.RequireLower && !lower:
		return fail("password must contain at least one lowercase letter")
	case policy.RequireDigit && !digit:
		return fail("password must contain at least one number")
	}
	return nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.config.Password.BcryptCost)
		if err != nil {
			s.logger.Warn("failed to prepare dummy hash", zap.Error(err))
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func (s *AuthService) recordLoginFailure(ctx context.Context, meta dto.RequestMeta, userID int64, username string) {
	s.security.Record(ctx, principalEvent(models.SecurityEventLoginFailed, userID, meta, map[string]string{"username": username}))
}

func (s *AuthService) recordDuplicate(ctx context.Context, meta dto.RequestMeta, field string) {
	s.security.Record(ctx, principalEvent(models.SecurityEventRegistrationDuplicate, 0, meta, map[string]string{"field": field}))
}
