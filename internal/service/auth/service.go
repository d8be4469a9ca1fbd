package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	"github.com/jwalitptl/hairline-crm/pkg/auth"
	apperrors "github.com/jwalitptl/hairline-crm/pkg/errors"
	"github.com/jwalitptl/hairline-crm/pkg/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutDuration  = 15 * time.Minute
)

type Options struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

type Service struct {
	userRepo    repository.UserRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	attempts    *cache.Cache
	maxAttempts int
	lockout     time.Duration
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, hasher security.PasswordHasher, opts Options) *Service {
	if opts.MaxLoginAttempts <= 0 {
		opts.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if opts.LockoutDuration <= 0 {
		opts.LockoutDuration = defaultLockoutDuration
	}
	return &Service{
		userRepo:    userRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		attempts:    cache.New(opts.LockoutDuration, 2*opts.LockoutDuration),
		maxAttempts: opts.MaxLoginAttempts,
		lockout:     opts.LockoutDuration,
	}
}

// SelfRegister is the public sign-up. It only creates staff accounts; admins
// are created by an existing admin or from crmctl.
func (s *Service) SelfRegister(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if req.Role == model.RoleAdmin {
		return nil, apperrors.Forbidden("admin accounts cannot be self-registered")
	}
	return s.Register(ctx, req)
}

// Register creates a user with any role.
func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	if !req.Role.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown role %q", req.Role), nil)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest(err.Error(), err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to hash password: %w", err))
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        req.Phone,
		PasswordHash: hashed,
		Role:         req.Role,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.Conflict("email already registered", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to create user: %w", err))
	}

	log.Info().Str("user_id", user.ID.Hex()).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login checks the credentials and issues a session token. After
// MaxLoginAttempts consecutive failures the email is locked out until the
// lockout window passes.
func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, time.Time, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if s.lockedOut(email) {
		return nil, time.Time{}, apperrors.TooManyRequests("too many failed login attempts, try again later")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(email)
			return nil, time.Time{}, apperrors.Unauthorized(ErrInvalidCredentials)
		}
		return nil, time.Time{}, apperrors.Internal(fmt.Errorf("failed to load user: %w", err))
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.recordFailure(email)
		log.Warn().Str("email", email).Msg("failed login attempt")
		return nil, time.Time{}, apperrors.Unauthorized(ErrInvalidCredentials)
	}
	s.attempts.Delete(email)

	token, expiresAt, err := s.jwtSvc.GenerateToken(user)
	if err != nil {
		return nil, time.Time{}, apperrors.Internal(fmt.Errorf("failed to generate token: %w", err))
	}

	return &model.LoginResponse{User: user, Token: token}, expiresAt, nil
}

// Me loads the user a session belongs to.
func (s *Service) Me(ctx context.Context, userID string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	user, err := s.userRepo.Get(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get user: %w", err))
	}
	return user, nil
}

func (s *Service) ValidateToken(token string) (*model.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}
	return claims, nil
}

func (s *Service) lockedOut(email string) bool {
	n, ok := s.attempts.Get(email)
	return ok && n.(int) >= s.maxAttempts
}

func (s *Service) recordFailure(email string) {
	if _, err := s.attempts.IncrementInt(email, 1); err != nil {
		s.attempts.Set(email, 1, s.lockout)
	}
}
