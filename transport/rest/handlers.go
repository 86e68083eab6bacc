package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
)

type handlers struct {
	logger *slog.Logger
	uGame  gameUseCase
}

type turnRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type response struct {
	Player *entity.Player `json:"player,omitempty"`
	Game   *entity.Game   `json:"game,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (that *handlers) createPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := that.uGame.GetOrCreatePlayer(r.Context(), "")
	if err != nil {
		that.writeError(w, "createPlayer", err)
		return
	}

	that.writeJSON(w, http.StatusCreated, response{Player: player})
}

func (that *handlers) getGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetGame(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		that.writeError(w, "getGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: game})
}

// getOrCreateGame answers 200 for the player's live game, or a new one.
func (that *handlers) getOrCreateGame(w http.ResponseWriter, r *http.Request) {
	game, err := that.uGame.GetOrCreateGame(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		that.writeError(w, "getOrCreateGame", err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: game})
}

func (that *handlers) makeTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "invalid request body"})
		return
	}

	if req.Row == nil || req.Col == nil {
		that.writeJSON(w, http.StatusBadRequest, response{Error: "row and col are required"})
		return
	}

	game, err := that.uGame.MakeTurn(r.Context(), chi.URLParam(r, "playerID"), *req.Row, *req.Col)
	if err != nil {
		that.writeError(w, "makeTurn", err)
		return
	}

	that.writeJSON(w, http.StatusOK, response{Game: game})
}

func (that *handlers) leaveGame(w http.ResponseWriter, r *http.Request) {
	if err := that.uGame.LeaveGame(r.Context(), chi.URLParam(r, "playerID")); err != nil {
		that.writeError(w, "leaveGame", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		that.writeJSON(w, status, response{Error: http.StatusText(status)})

		return
	}

	that.writeJSON(w, status, response{Error: err.Error()})
}

func (that *handlers) writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		that.logger.Error("failed to write response", "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrGameFinished):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrNoActiveGame),
		errors.Is(err, repository.ErrPlayerNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
