package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"ctchen222/mini-games/internal/api/models"
	repomocks "ctchen222/mini-games/internal/api/repository/mocks"
	"ctchen222/mini-games/internal/config"
)

var testJWT = config.JWT{Secret: "0123456789abcdef", TTL: time.Hour}

func newTestUserService(t *testing.T) (*userService, *repomocks.MockUserRepository, *repomocks.MockResultRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	users := repomocks.NewMockUserRepository(ctrl)
	results := repomocks.NewMockResultRepository(ctrl)
	return NewUserService(users, results, testJWT).(*userService), users, results
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	req := &models.RegisterRequest{Username: "alice", Password: "secret123"}

	t.Run("New user", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(nil, nil)
		users.EXPECT().CreateUser(gomock.Any(), &models.User{Username: "alice"}, "secret123").Return(nil)

		require.NoError(t, svc.Register(ctx, req))
	})

	t.Run("Username taken", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").Return(&models.User{ID: 1, Username: "alice"}, nil)

		require.ErrorIs(t, svc.Register(ctx, req), ErrUsernameTaken)
	})
}

func TestUserService_LoginAndParseToken(t *testing.T) {
	ctx := context.Background()

	t.Run("Valid credentials", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").
			Return(&models.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "secret123")}, nil)

		// When: alice logs in
		resp, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret123"})
		require.NoError(t, err)

		// Then: the token resolves to her player id
		assert.Equal(t, "user-7", resp.PlayerID)
		playerID, err := svc.ParseToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, "user-7", playerID)
	})

	t.Run("Wrong password", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").
			Return(&models.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "secret123")}, nil)

		_, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "nope"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Unknown user", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "ghost").Return(nil, nil)

		_, err := svc.Login(ctx, &models.LoginRequest{Username: "ghost", Password: "whatever"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Expired token", func(t *testing.T) {
		svc, users, _ := newTestUserService(t)
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").
			Return(&models.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "secret123")}, nil)

		// Given: a token issued two hours ago with a one hour lifetime
		svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		resp, err := svc.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret123"})
		require.NoError(t, err)
		svc.now = time.Now

		_, err = svc.ParseToken(resp.Token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Token signed with another secret", func(t *testing.T) {
		other := NewUserService(nil, nil, config.JWT{Secret: "another-secret-value", TTL: time.Hour}).(*userService)
		users := repomocks.NewMockUserRepository(gomock.NewController(t))
		other.userRepo = users
		users.EXPECT().GetUserByUsername(gomock.Any(), "alice").
			Return(&models.User{ID: 7, Username: "alice", PasswordHash: hashed(t, "secret123")}, nil)
		resp, err := other.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret123"})
		require.NoError(t, err)

		svc, _, _ := newTestUserService(t)
		_, err = svc.ParseToken(resp.Token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage token", func(t *testing.T) {
		svc, _, _ := newTestUserService(t)
		_, err := svc.ParseToken("not-a-jwt")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserService_GuestLogin(t *testing.T) {
	svc, _, _ := newTestUserService(t)

	a, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)
	b, err := svc.GuestLogin(context.Background())
	require.NoError(t, err)

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestUserService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("Combines totals and recent games", func(t *testing.T) {
		svc, _, results := newTestUserService(t)
		recent := []models.GameRecord{{GameID: "g1", Result: "draw"}}
		results.EXPECT().StatsForPlayer(gomock.Any(), "p1").Return(&models.Stats{PlayerID: "p1", Wins: 3, Draws: 1}, nil)
		results.EXPECT().ListRecent(gomock.Any(), "p1", recentGamesLimit).Return(recent, nil)

		stats, err := svc.Stats(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, &models.Stats{PlayerID: "p1", Wins: 3, Draws: 1, Recent: recent}, stats)
	})

	t.Run("Repository error", func(t *testing.T) {
		svc, _, results := newTestUserService(t)
		boom := errors.New("db locked")
		results.EXPECT().StatsForPlayer(gomock.Any(), "p1").Return(nil, boom)

		_, err := svc.Stats(ctx, "p1")
		require.ErrorIs(t, err, boom)
	})
}
