package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

type mockGameUseCase struct {
	mock.Mock
}

func (that *mockGameUseCase) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

func (that *mockGameUseCase) GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameUseCase) GetGame(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameUseCase) MakeTurn(ctx context.Context, playerID string, row, col int) (*entity.Game, error) {
	args := that.Called(ctx, playerID, row, col)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameUseCase) LeaveGame(ctx context.Context, playerID string) error {
	args := that.Called(ctx, playerID)

	return args.Error(0)
}

func newTestRouter(t *testing.T) (http.Handler, *mockGameUseCase) {
	t.Helper()

	uGame := &mockGameUseCase{}
	uGame.Test(t)
	t.Cleanup(func() { uGame.AssertExpectations(t) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(logger, uGame), uGame
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, reader))

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) response {
	t.Helper()

	var resp response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	return resp
}

func TestPing(t *testing.T) {
	router, _ := newTestRouter(t)

	// When: /ping is requested
	rec := serve(router, http.MethodGet, "/ping", "")

	// Then: pong is returned
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestHandlers_CreatePlayer(t *testing.T) {
	t.Run("Returns the new player", func(t *testing.T) {
		// Given: a use case that creates players
		router, uGame := newTestRouter(t)
		uGame.On("GetOrCreatePlayer", mock.Anything, "").Return(&entity.Player{ID: "p1"}, nil).Once()

		// When: POST /players
		rec := serve(router, http.MethodPost, "/players", "")

		// Then: 201 with the player
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "p1", decode(t, rec).Player.ID)
	})

	t.Run("Hides internal errors", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("GetOrCreatePlayer", mock.Anything, "").Return(nil, errors.New("redis down")).Once()

		rec := serve(router, http.MethodPost, "/players", "")

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), decode(t, rec).Error)
	})
}

func TestHandlers_GetOrCreateGame(t *testing.T) {
	t.Run("Returns the game with its board", func(t *testing.T) {
		// Given: the computer has opened a game
		router, uGame := newTestRouter(t)

		game := entity.NewGame("g1", "p1", tictactoe.PlayerX)
		_, err := game.ComputerTurn()
		require.NoError(t, err)

		uGame.On("GetOrCreateGame", mock.Anything, "p1").Return(game, nil).Once()

		// When: POST /players/p1/game
		rec := serve(router, http.MethodPost, "/players/p1/game", "")

		// Then: the board is encoded with marks
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"board":[["X","",""],["","",""],["","",""]]`)
		assert.Equal(t, game, decode(t, rec).Game)
	})

	t.Run("Unknown player is not found", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("GetOrCreateGame", mock.Anything, "ghost").
			Return(nil, fmt.Errorf("failed to get player: %w", repository.ErrPlayerNotFound)).
			Once()

		rec := serve(router, http.MethodPost, "/players/ghost/game", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandlers_GetGame(t *testing.T) {
	t.Run("Reads the live game without creating one", func(t *testing.T) {
		// Given: a player with a live game
		router, uGame := newTestRouter(t)
		uGame.On("GetGame", mock.Anything, "p1").Return(entity.NewGame("g1", "p1", tictactoe.PlayerO), nil).Once()

		// When: GET /players/p1/game
		rec := serve(router, http.MethodGet, "/players/p1/game", "")

		// Then: the game is returned and GetOrCreateGame is never called
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "g1", decode(t, rec).Game.ID)
		uGame.AssertNotCalled(t, "GetOrCreateGame", mock.Anything, mock.Anything)
	})

	t.Run("No live game is not found", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("GetGame", mock.Anything, "p1").Return(nil, apperror.ErrNoActiveGame).Once()

		rec := serve(router, http.MethodGet, "/players/p1/game", "")

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperror.ErrNoActiveGame.Error(), decode(t, rec).Error)
	})
}

func TestHandlers_MakeTurn(t *testing.T) {
	t.Run("Passes coordinates to the use case", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		game := entity.NewGame("g1", "p1", tictactoe.PlayerX)
		uGame.On("MakeTurn", mock.Anything, "p1", 1, 2).Return(game, nil).Once()

		rec := serve(router, http.MethodPost, "/players/p1/turn", `{"row":1,"col":2}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "g1", decode(t, rec).Game.ID)
	})

	t.Run("Row zero is a valid coordinate", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("MakeTurn", mock.Anything, "p1", 0, 0).Return(entity.NewGame("g1", "p1", tictactoe.PlayerO), nil).Once()

		rec := serve(router, http.MethodPost, "/players/p1/turn", `{"row":0,"col":0}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing coordinates are rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/players/p1/turn", `{"row":1}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Fractional coordinates are rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/players/p1/turn", `{"row":1.9,"col":0}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Malformed body is rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		rec := serve(router, http.MethodPost, "/players/p1/turn", `{row`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	testCases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "occupied cell", err: apperror.ErrCellOccupied, status: http.StatusConflict},
		{name: "out of bounds", err: apperror.ErrOutOfBounds, status: http.StatusBadRequest},
		{name: "not your turn", err: apperror.ErrNotYourTurn, status: http.StatusConflict},
		{name: "no active game", err: apperror.ErrNoActiveGame, status: http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run("Maps "+tc.name, func(t *testing.T) {
			router, uGame := newTestRouter(t)
			uGame.On("MakeTurn", mock.Anything, "p1", 4, 4).
				Return(nil, fmt.Errorf("failed make turn: %w", tc.err)).
				Once()

			rec := serve(router, http.MethodPost, "/players/p1/turn", `{"row":4,"col":4}`)

			require.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decode(t, rec).Error, tc.err.Error())
		})
	}
}

func TestHandlers_LeaveGame(t *testing.T) {
	t.Run("Leaves the game", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("LeaveGame", mock.Anything, "p1").Return(nil).Once()

		rec := serve(router, http.MethodDelete, "/players/p1/game", "")

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("Fails without a game", func(t *testing.T) {
		router, uGame := newTestRouter(t)
		uGame.On("LeaveGame", mock.Anything, "p1").Return(apperror.ErrNoActiveGame).Once()

		rec := serve(router, http.MethodDelete, "/players/p1/game", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
