package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/speechflow/backend/internal/client"
	"github.com/speechflow/backend/internal/errors"
	"github.com/speechflow/backend/internal/repository"
)

const (
	tokenTTL          = 72 * time.Hour
	resetTokenTTL     = 30 * time.Minute
	resetKeyPrefix    = "pwreset:"
	guestEmailPattern = "guest-%s@guest.speechflow.local"
)

// AuthService handles authentication logic.
type AuthService struct {
	userRepo  repository.UserRepository
	redis     *client.RedisClient
	jwtSecret []byte
	log       zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, redis *client.RedisClient, jwtSecret string, log zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		redis:     redis,
		jwtSecret: []byte(jwtSecret),
		log:       log,
	}
}

// RegisterReq represents a registration request.
type RegisterReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginReq represents a login request.
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned on successful register/login/guest.
type AuthResponse struct {
	User  *repository.User `json:"user"`
	Token string           `json:"token"`
}

// Register creates a new user account and returns a JWT token. When the
// caller is an authenticated guest, the guest account is converted in place
// so its practice data is kept.
func (s *AuthService) Register(ctx context.Context, current *repository.User, req RegisterReq) (*AuthResponse, error) {
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalWrap("failed to check existing user", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalWrap("failed to hash password", err)
	}

	var user *repository.User
	if current != nil && current.IsGuest {
		current.Email = req.Email
		current.PasswordHash = string(hash)
		current.IsGuest = false
		if req.Name != "" {
			current.Name = req.Name
		}
		if err := s.userRepo.Update(ctx, current); err != nil {
			return nil, errors.InternalWrap("failed to convert guest account", err)
		}
		// Outstanding guest tokens stop working once the version moves.
		if err := s.userRepo.BumpTokenVersion(ctx, current.ID); err != nil {
			return nil, errors.InternalWrap("failed to revoke guest tokens", err)
		}
		user, err = s.userRepo.GetByID(ctx, current.ID)
		if err != nil || user == nil {
			return nil, errors.InternalWrap("failed to reload user", err)
		}
	} else {
		user = &repository.User{
			Email:        req.Email,
			PasswordHash: string(hash),
			Name:         req.Name,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, errors.InternalWrap("failed to create user", err)
		}
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, errors.InternalWrap("failed to generate token", err)
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Login authenticates a user and returns a JWT token. Guest accounts cannot
// sign in with credentials.
func (s *AuthService) Login(ctx context.Context, req LoginReq) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalWrap("failed to find user", err)
	}
	if user == nil {
		return nil, errors.Unauthorized("invalid email or password")
	}

	if user.IsGuest {
		return nil, errors.Forbidden("guest accounts cannot sign in with email and password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.Unauthorized("invalid email or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, errors.InternalWrap("failed to generate token", err)
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// CreateGuest provisions a temporary guest account and returns its token.
func (s *AuthService) CreateGuest(ctx context.Context) (*AuthResponse, error) {
	user := &repository.User{
		Email:   fmt.Sprintf(guestEmailPattern, uuid.New().String()),
		IsGuest: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.InternalWrap("failed to create guest user", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, errors.InternalWrap("failed to generate token", err)
	}

	return &AuthResponse{User: user, Token: token}, nil
}

// Logout revokes all of the user's tokens.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.userRepo.BumpTokenVersion(ctx, userID); err != nil {
		return errors.InternalWrap("failed to revoke tokens", err)
	}
	return nil
}

// ForgotPassword stores a single-use reset token. The response never reveals
// whether the email exists; the token is logged in place of an outbound
// mailer integration.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return errors.InternalWrap("failed to find user", err)
	}
	if user == nil || user.IsGuest {
		return nil
	}

	if s.redis == nil {
		return errors.Internal("password reset store not configured")
	}

	token := uuid.New().String()
	if err := s.redis.Set(ctx, resetKeyPrefix+token, strconv.FormatInt(user.ID, 10), resetTokenTTL); err != nil {
		return errors.InternalWrap("failed to store reset token", err)
	}

	s.log.Info().
		Int64("user_id", user.ID).
		Str("reset_token", token).
		Msg("Password reset token issued")

	return nil
}

// ResetPasswordReq represents a password reset request.
type ResetPasswordReq struct {
	Token    string `json:"token"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetPassword consumes a reset token, replaces the password, and revokes
// all outstanding tokens.
func (s *AuthService) ResetPassword(ctx context.Context, req ResetPasswordReq) error {
	if s.redis == nil {
		return errors.Internal("password reset store not configured")
	}

	stored, err := s.redis.Get(ctx, resetKeyPrefix+req.Token)
	if err != nil {
		if err == client.ErrCacheMiss {
			return errors.Validation("invalid or expired reset token")
		}
		return errors.InternalWrap("failed to load reset token", err)
	}

	userID, err := strconv.ParseInt(stored, 10, 64)
	if err != nil {
		return errors.InternalWrap("corrupt reset token entry", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return errors.InternalWrap("failed to load user", err)
	}
	if user == nil || user.Email != req.Email {
		return errors.Validation("invalid or expired reset token")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.InternalWrap("failed to hash password", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return errors.InternalWrap("failed to update password", err)
	}
	if err := s.userRepo.BumpTokenVersion(ctx, user.ID); err != nil {
		return errors.InternalWrap("failed to revoke tokens", err)
	}

	_ = s.redis.Del(ctx, resetKeyPrefix+req.Token)
	return nil
}

// ValidateToken parses and validates a JWT token string, returning the user
// it belongs to. Tokens issued before the user's last revocation are
// rejected via the version claim.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*repository.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid subject claim")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid subject claim: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user no longer exists")
	}

	version, _ := claims["ver"].(float64)
	if int(version) != user.TokenVersion {
		return nil, fmt.Errorf("token has been revoked")
	}

	return user, nil
}

func (s *AuthService) generateToken(user *repository.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"guest": user.IsGuest,
		"ver":   user.TokenVersion,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
