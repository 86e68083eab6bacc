package websocket

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
)

// handleConnect returns the player, creating one for an empty ID, and the
// player's live game if there is one.
func (that *Server) handleConnect(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		log.Warn("invalid payload", "error", err)
		return that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	var playerID string
	if payloadReq.Player != nil {
		playerID = payloadReq.Player.ID
	}

	player, err := that.uGame.GetOrCreatePlayer(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		return that.sendErrorResponse(conn, msg.Action, "player not found")
	}

	if err != nil {
		log.Error("failed to create or get", "player", playerID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, "failed to create a new player")
	}

	payloadResp := ResponsePayload{
		Player: player,
	}

	if player.InGame() {
		game, err := that.uGame.GetGame(ctx, player.ID)
		if err != nil && !errors.Is(err, apperror.ErrNoActiveGame) {
			log.Error("failed to get game", "gameID", player.GameID, "error", err)
			return that.sendErrorResponse(conn, msg.Action, "failed to get the game")
		}

		payloadResp.Game = game
	}

	log.Info("successfully connected player", "playerID", player.ID)

	return that.sendMessage(conn, msg.Action, payloadResp)
}

func (that *Server) handleNewGame(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleNewGame")

	payloadReq, ok, err := that.requirePlayer(conn, msg)
	if !ok {
		return err
	}

	game, err := that.uGame.GetOrCreateGame(ctx, payloadReq.Player.ID)
	if err != nil {
		log.Error("failed to create or get game", "playerID", payloadReq.Player.ID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, clientError(err, "failed to create a new game"))
	}

	log.Info("player is in game", "playerID", payloadReq.Player.ID, "gameID", game.ID)

	return that.sendMessage(conn, msg.Action, ResponsePayload{Game: game})
}

func (that *Server) handleGameTurn(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleGameTurn")

	payloadReq, ok, err := that.requirePlayer(conn, msg)
	if !ok {
		return err
	}

	if payloadReq.Row == nil || payloadReq.Col == nil {
		return that.sendErrorResponse(conn, msg.Action, "row and col are required")
	}

	log = log.With("playerID", payloadReq.Player.ID)

	game, err := that.uGame.MakeTurn(ctx, payloadReq.Player.ID, *payloadReq.Row, *payloadReq.Col)
	if err != nil {
		log.Warn("turn rejected", "error", err)
		return that.sendErrorResponse(conn, msg.Action, clientError(err, "failed to make turn"))
	}

	if game.IsFinished() {
		log.Info("game finished", "gameID", game.ID, "winner", game.Winner)
	}

	return that.sendMessage(conn, msg.Action, ResponsePayload{Game: game})
}

func (that *Server) handleGameLeave(ctx context.Context, msg *Message, conn *websocket.Conn) error {
	log := that.logger.With("method", "handleGameLeave")

	payloadReq, ok, err := that.requirePlayer(conn, msg)
	if !ok {
		return err
	}

	if err = that.uGame.LeaveGame(ctx, payloadReq.Player.ID); err != nil {
		log.Warn("failed to leave game", "playerID", payloadReq.Player.ID, "error", err)
		return that.sendErrorResponse(conn, msg.Action, clientError(err, "failed to leave game"))
	}

	log.Info("player left", "playerID", payloadReq.Player.ID)

	return that.sendMessage(conn, msg.Action, ResponsePayload{})
}

// requirePlayer decodes the payload and answers with an error response when it
// carries no player. ok is false when the caller should stop; err is then the
// result of writing that response.
func (that *Server) requirePlayer(conn *websocket.Conn, msg *Message) (*requestPayload, bool, error) {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return nil, false, that.sendErrorResponse(conn, msg.Action, "invalid payload")
	}

	if payloadReq.Player == nil || payloadReq.Player.ID == "" {
		return nil, false, that.sendErrorResponse(conn, msg.Action, "Player is required")
	}

	return payloadReq, true, nil
}

// clientError exposes domain errors to the client and hides the rest.
func clientError(err error, fallback string) string {
	for _, known := range []error{
		apperror.ErrOutOfBounds,
		apperror.ErrCellOccupied,
		apperror.ErrNotYourTurn,
		apperror.ErrGameFinished,
		apperror.ErrNoActiveGame,
		repository.ErrPlayerNotFound,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}

	return fallback
}
