package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/service/mocks"
	"ctchen222/mini-games/internal/events"
	eventmocks "ctchen222/mini-games/internal/events/mocks"
	"ctchen222/mini-games/internal/game"
	repomocks "ctchen222/mini-games/internal/repository/mocks"
)

const (
	x = game.PlayerX
	o = game.PlayerO
	e = game.Empty
)

type gameServiceFixture struct {
	svc  *gameService
	repo *repomocks.MockGameRepository
	calc *mocks.MockMoveCalculator
	pub  *eventmocks.MockPublisher
}

func newGameServiceFixture(t *testing.T) *gameServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &gameServiceFixture{
		repo: repomocks.NewMockGameRepository(ctrl),
		calc: mocks.NewMockMoveCalculator(ctrl),
		pub:  eventmocks.NewMockPublisher(ctrl),
	}

	svc, err := NewGameService(f.repo, f.calc, f.pub, "hard")
	require.NoError(t, err)
	f.svc = svc.(*gameService)
	f.svc.newID = func() string { return "game-1" }
	return f
}

func TestGameService_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("Player as X moves first", func(t *testing.T) {
		f := newGameServiceFixture(t)

		// Given: the store accepts the new game
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, s *game.StateDTO) error {
			assert.Equal(t, "game-1", s.ID)
			assert.Equal(t, x, s.CurrentTurn)
			assert.Equal(t, game.InProgress, s.Result)
			return nil
		})

		// When: the player asks for X on medium
		state, err := f.svc.Start(ctx, "p1", &models.StartGameRequest{Difficulty: "medium", Mark: "X"})

		// Then: the board is still empty and it is the player's turn
		require.NoError(t, err)
		assert.Equal(t, game.Board{}, state.Board)
		assert.Equal(t, x, state.PlayerMark)
		assert.Equal(t, "medium", state.Difficulty)
		assert.False(t, state.IsBotTurn())
	})

	t.Run("Bot opens when the player is O", func(t *testing.T) {
		f := newGameServiceFixture(t)
		f.svc.chooseMark = func() game.PlayerMark { return o }

		opened := &game.StateDTO{
			ID: "game-1", Board: game.Board{e, e, e, e, x}, CurrentTurn: o,
			Result: game.InProgress, PlayerID: "p1", PlayerMark: o, Difficulty: "hard",
		}
		gomock.InOrder(
			f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
			f.calc.EXPECT().ChooseMove(game.Board{}, x, "hard").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 4).Return(opened, nil),
		)

		// When: no mark or difficulty is requested
		state, err := f.svc.Start(ctx, "p1", &models.StartGameRequest{})

		// Then: the default difficulty is used and the bot has played
		require.NoError(t, err)
		assert.Equal(t, opened, state)
	})

	t.Run("Failed opening still returns the game", func(t *testing.T) {
		f := newGameServiceFixture(t)
		f.svc.chooseMark = func() game.PlayerMark { return o }

		gomock.InOrder(
			f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
			f.calc.EXPECT().ChooseMove(game.Board{}, x, "hard").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 4).Return(nil, errors.New("connection reset")),
		)

		state, err := f.svc.Start(ctx, "p1", &models.StartGameRequest{})

		// Then: the client gets the id and the bot still owes its opening
		require.NoError(t, err)
		assert.Equal(t, "game-1", state.ID)
		assert.True(t, state.IsBotTurn())
	})

	t.Run("Create failure", func(t *testing.T) {
		f := newGameServiceFixture(t)
		boom := errors.New("redis down")
		f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

		_, err := f.svc.Start(ctx, "p1", &models.StartGameRequest{Mark: "X"})
		require.ErrorIs(t, err, boom)
	})
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	stored := func() *game.StateDTO {
		return &game.StateDTO{
			ID: "game-1", CurrentTurn: x, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
	}

	t.Run("Bot replies", func(t *testing.T) {
		f := newGameServiceFixture(t)
		afterPlayer := &game.StateDTO{
			ID: "game-1", Board: game.Board{x}, CurrentTurn: o, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		afterBot := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, e, e, e, o}, CurrentTurn: x, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		gomock.InOrder(
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 0).Return(afterPlayer, nil),
			f.calc.EXPECT().ChooseMove(afterPlayer.Board, o, "easy").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 4).Return(afterBot, nil),
		)

		state, err := f.svc.Move(ctx, "p1", "game-1", 0)
		require.NoError(t, err)
		assert.Equal(t, afterBot, state)
	})

	t.Run("Player wins and the result is published", func(t *testing.T) {
		f := newGameServiceFixture(t)
		won := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, x, x, o, o}, Result: game.WinX,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil)
		f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 2).Return(won, nil)
		f.pub.EXPECT().Publish(gomock.Any(), events.TypeGameFinished, events.GameFinishedFromState(won)).Return(nil)

		state, err := f.svc.Move(ctx, "p1", "game-1", 2)
		require.NoError(t, err)
		assert.Equal(t, game.WinX, state.Result)
	})

	t.Run("Bot wins and a failed publish is not an error", func(t *testing.T) {
		f := newGameServiceFixture(t)
		afterPlayer := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, x, e, o, o, e, x}, CurrentTurn: o, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		lost := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, x, e, o, o, o, x}, Result: game.WinO,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil)
		f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 6).Return(afterPlayer, nil)
		f.calc.EXPECT().ChooseMove(afterPlayer.Board, o, "easy").Return(5, nil)
		f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 5).Return(lost, nil)
		f.pub.EXPECT().Publish(gomock.Any(), events.TypeGameFinished, gomock.Any()).Return(errors.New("publish failed"))

		state, err := f.svc.Move(ctx, "p1", "game-1", 6)
		require.NoError(t, err)
		assert.Equal(t, game.WinO, state.Result)
	})

	t.Run("Invalid move does not wake the bot", func(t *testing.T) {
		f := newGameServiceFixture(t)
		f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil)
		f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 9).Return(nil, game.ErrInvalidMove)

		_, err := f.svc.Move(ctx, "p1", "game-1", 9)
		require.ErrorIs(t, err, game.ErrInvalidMove)
	})

	t.Run("Someone else's game", func(t *testing.T) {
		f := newGameServiceFixture(t)
		f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil)

		_, err := f.svc.Move(ctx, "intruder", "game-1", 0)
		require.ErrorIs(t, err, ErrNotYourGame)
	})

	t.Run("Bot error", func(t *testing.T) {
		f := newGameServiceFixture(t)
		afterPlayer := &game.StateDTO{
			ID: "game-1", Board: game.Board{x}, CurrentTurn: o, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stored(), nil)
		f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 0).Return(afterPlayer, nil)
		f.calc.EXPECT().ChooseMove(gomock.Any(), o, "easy").Return(-1, game.ErrNoMovesAvailable)

		_, err := f.svc.Move(ctx, "p1", "game-1", 0)
		require.ErrorIs(t, err, game.ErrNoMovesAvailable)
	})
}

func TestGameService_PendingBotMove(t *testing.T) {
	ctx := context.Background()
	stuck := func() *game.StateDTO {
		return &game.StateDTO{
			ID: "game-1", Board: game.Board{x}, CurrentTurn: o, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
	}
	afterBot := &game.StateDTO{
		ID: "game-1", Board: game.Board{x, e, e, e, o}, CurrentTurn: x, Result: game.InProgress,
		PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
	}

	t.Run("Move recovers after the bot reply failed", func(t *testing.T) {
		f := newGameServiceFixture(t)
		afterPlayer := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, e, e, e, o, e, e, e, x}, CurrentTurn: o, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		afterSecondBot := &game.StateDTO{
			ID: "game-1", Board: game.Board{x, o, e, e, o, e, e, e, x}, CurrentTurn: x, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		first := &game.StateDTO{
			ID: "game-1", CurrentTurn: x, Result: game.InProgress,
			PlayerID: "p1", PlayerMark: x, Difficulty: "easy",
		}
		gomock.InOrder(
			// Given: the player's first move was stored but the bot's reply was lost
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(first, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 0).Return(stuck(), nil),
			f.calc.EXPECT().ChooseMove(game.Board{x}, o, "easy").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 4).Return(nil, errors.New("connection reset")),

			// When: the player moves again, the pending reply is played first
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stuck(), nil),
			f.calc.EXPECT().ChooseMove(game.Board{x}, o, "easy").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 4).Return(afterBot, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", x, 8).Return(afterPlayer, nil),
			f.calc.EXPECT().ChooseMove(afterPlayer.Board, o, "easy").Return(1, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 1).Return(afterSecondBot, nil),
		)

		_, err := f.svc.Move(ctx, "p1", "game-1", 0)
		require.Error(t, err)

		state, err := f.svc.Move(ctx, "p1", "game-1", 8)

		// Then: the game is back on the player's turn
		require.NoError(t, err)
		assert.Equal(t, afterSecondBot, state)
		assert.False(t, state.IsBotTurn())
	})

	t.Run("Get plays the pending move", func(t *testing.T) {
		f := newGameServiceFixture(t)
		gomock.InOrder(
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stuck(), nil),
			f.calc.EXPECT().ChooseMove(game.Board{x}, o, "easy").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 4).Return(afterBot, nil),
		)

		state, err := f.svc.Get(ctx, "p1", "game-1")
		require.NoError(t, err)
		assert.Equal(t, afterBot, state)
	})

	t.Run("Get rereads when another request played it", func(t *testing.T) {
		f := newGameServiceFixture(t)
		gomock.InOrder(
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(stuck(), nil),
			f.calc.EXPECT().ChooseMove(game.Board{x}, o, "easy").Return(4, nil),
			f.repo.EXPECT().ApplyMove(gomock.Any(), "game-1", o, 4).Return(nil, game.ErrNotYourTurn),
			f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(afterBot, nil),
		)

		state, err := f.svc.Get(ctx, "p1", "game-1")
		require.NoError(t, err)
		assert.Equal(t, afterBot, state)
	})
}

func TestGameService_Abandon(t *testing.T) {
	ctx := context.Background()
	f := newGameServiceFixture(t)
	owned := &game.StateDTO{ID: "game-1", PlayerID: "p1", PlayerMark: x}

	f.repo.EXPECT().FindByID(gomock.Any(), "game-1").Return(owned, nil).Times(2)
	f.repo.EXPECT().Delete(gomock.Any(), "game-1").Return(nil)

	require.NoError(t, f.svc.Abandon(ctx, "p1", "game-1"))
	require.ErrorIs(t, f.svc.Abandon(ctx, "p2", "game-1"), ErrNotYourGame)
}
