package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/repository"
	"ctchen222/mini-games/internal/config"
)

const recentGamesLimit = 10

var (
	ErrUsernameTaken      = repository.ErrUsernameTaken
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are the JWT claims issued on login. The subject is the player id.
type Claims struct {
	Username string `json:"un"`
	jwt.RegisteredClaims
}

//go:generate mockgen -source=user_service.go -destination=mocks/mock_user_service.go -package=mocks

// UserService defines the interface for user-related business logic.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) error
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GuestLogin(ctx context.Context) (string, error)
	ParseToken(tokenString string) (string, error)
	Stats(ctx context.Context, playerID string) (*models.Stats, error)
}

type userService struct {
	userRepo   repository.UserRepository
	resultRepo repository.ResultRepository
	secret     []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, resultRepo repository.ResultRepository, cfg config.JWT) UserService {
	return &userService{
		userRepo:   userRepo,
		resultRepo: resultRepo,
		secret:     []byte(cfg.Secret),
		ttl:        cfg.TTL,
		now:        time.Now,
	}
}

// PlayerIDForUser is the player id a registered user plays under.
func PlayerIDForUser(userID int64) string {
	return fmt.Sprintf("user-%d", userID)
}

// Register handles user registration.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) error {
	// Check if user already exists
	existingUser, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return err
	}
	if existingUser != nil {
		return ErrUsernameTaken
	}

	user := &models.User{
		Username: req.Username,
	}

	return s.userRepo.CreateUser(ctx, user, req.Password)
}

// Login handles user login and returns a JWT on success.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	playerID := PlayerIDForUser(user.ID)
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.LoginResponse{Token: tokenString, PlayerID: playerID}, nil
}

// GuestLogin generates a UUID for a guest player.
func (s *userService) GuestLogin(ctx context.Context) (string, error) {
	return uuid.New().String(), nil
}

// ParseToken validates a login token and returns its player id.
func (s *userService) ParseToken(tokenString string) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// Stats returns the player's record and latest games.
func (s *userService) Stats(ctx context.Context, playerID string) (*models.Stats, error) {
	stats, err := s.resultRepo.StatsForPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}

	recent, err := s.resultRepo.ListRecent(ctx, playerID, recentGamesLimit)
	if err != nil {
		return nil, err
	}
	stats.Recent = recent

	return stats, nil
}
