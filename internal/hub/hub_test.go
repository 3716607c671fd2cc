package hub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ctchen222/mini-games/internal/api/models"
	"ctchen222/mini-games/internal/api/repository/mocks"
	"ctchen222/mini-games/internal/events"
	"ctchen222/mini-games/internal/game"
	"ctchen222/mini-games/internal/testsuite"
)

func TestHub_HandleEvent(t *testing.T) {
	ctx := context.Background()
	finished := time.Date(2025, 5, 6, 7, 8, 9, 0, time.UTC)

	t.Run("game_finished is recorded", func(t *testing.T) {
		results := mocks.NewMockResultRepository(gomock.NewController(t))
		results.EXPECT().Save(gomock.Any(), &models.GameRecord{
			GameID: "g1", PlayerID: "p1", PlayerMark: "O", Difficulty: "hard",
			Result: "draw", Moves: 9, FinishedAt: finished,
		}).Return(nil)

		raw := []byte(`{"event":"game_finished","payload":{"game_id":"g1","player_id":"p1","player_mark":"O","difficulty":"hard","result":"draw","moves":9,"finished_at":"2025-05-06T07:08:09Z"}}`)

		require.NoError(t, NewHub(nil, results).HandleEvent(ctx, raw))
	})

	t.Run("Save failure is reported", func(t *testing.T) {
		results := mocks.NewMockResultRepository(gomock.NewController(t))
		boom := errors.New("disk full")
		results.EXPECT().Save(gomock.Any(), gomock.Any()).Return(boom)

		raw := []byte(`{"event":"game_finished","payload":{"game_id":"g1"}}`)

		require.ErrorIs(t, NewHub(nil, results).HandleEvent(ctx, raw), boom)
	})

	t.Run("Malformed envelope", func(t *testing.T) {
		results := mocks.NewMockResultRepository(gomock.NewController(t))
		require.Error(t, NewHub(nil, results).HandleEvent(ctx, []byte(`{`)))
	})

	t.Run("Malformed payload", func(t *testing.T) {
		results := mocks.NewMockResultRepository(gomock.NewController(t))
		require.Error(t, NewHub(nil, results).HandleEvent(ctx, []byte(`{"event":"game_finished","payload":"oops"}`)))
	})

	t.Run("Unknown event is ignored", func(t *testing.T) {
		results := mocks.NewMockResultRepository(gomock.NewController(t))
		require.NoError(t, NewHub(nil, results).HandleEvent(ctx, []byte(`{"event":"something_else","payload":{}}`)))
	})
}

func TestHub_Run(t *testing.T) {
	rdb := testsuite.NewRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	saved := make(chan *models.GameRecord, 1)
	results := mocks.NewMockResultRepository(gomock.NewController(t))
	results.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.GameRecord) error {
		saved <- r
		return nil
	})

	stopped := make(chan struct{})
	go func() {
		NewHub(rdb, results).Run(ctx)
		close(stopped)
	}()

	// Given: the subscriber is attached
	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, events.EventsChannel).Result()
		return err == nil && n[events.EventsChannel] > 0
	}, 5*time.Second, 20*time.Millisecond)

	// When: a game_finished event is published
	payload := events.GameFinishedPayload{GameID: "g9", PlayerID: "p1", PlayerMark: game.PlayerX, Result: game.WinX, Moves: 5}
	require.NoError(t, events.NewPublisher(rdb).Publish(ctx, events.TypeGameFinished, payload))

	// Then: it reaches the results repository
	select {
	case r := <-saved:
		assert.Equal(t, "g9", r.GameID)
		assert.Equal(t, "win_x", r.Result)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not recorded")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not stop")
	}
}
