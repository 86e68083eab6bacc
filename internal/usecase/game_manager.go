package usecase

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/repository"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

const lockStripes = 64

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager runs human-versus-computer games on top of the stored sessions.
type GameManager struct {
	logger     *slog.Logger
	playerRepo playerRepo
	gameRepo   gameRepo

	computerMark tictactoe.Player

	// requests of one player are handled one at a time
	locks [lockStripes]sync.Mutex
}

func NewGameManager(logger *slog.Logger, playerRepo playerRepo, gameRepo gameRepo, computerMark tictactoe.Player) *GameManager {
	return &GameManager{
		logger: logger.With("component", "game_manager"),

		playerRepo: playerRepo,
		gameRepo:   gameRepo,

		computerMark: computerMark,
	}
}

func (that *GameManager) GetOrCreatePlayer(ctx context.Context, id string) (*entity.Player, error) {
	if id == "" {
		player, err := that.createPlayer(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create new player: %w", err)
		}

		return player, nil
	}

	player, err := that.getPlayerByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return player, nil
}

// GetOrCreateGame returns the player's live game, or starts a new one. The
// computer opens right away when it plays X.
func (that *GameManager) GetOrCreateGame(ctx context.Context, playerID string) (*entity.Game, error) {
	unlock := that.lock(playerID)
	defer unlock()

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if player.InGame() {
		game, err := that.getGameByID(ctx, player.GameID)
		if err == nil {
			return game, nil
		}

		if !errors.Is(err, repository.ErrGameNotFound) {
			return nil, err
		}

		that.logger.Warn("player's game has expired, starting a new one", "playerID", player.ID, "gameID", player.GameID)
	}

	game, err := that.createGame(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("failed create game: %w", err)
	}

	return game, nil
}

// GetGame returns the player's live game.
func (that *GameManager) GetGame(ctx context.Context, playerID string) (*entity.Game, error) {
	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if !player.InGame() {
		return nil, apperror.ErrNoActiveGame
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, apperror.ErrNoActiveGame
	}

	if err != nil {
		return nil, err
	}

	return game, nil
}

// MakeTurn plays the human's move and, unless it ended the game, the
// computer's answer. A finished game is removed from storage and returned.
func (that *GameManager) MakeTurn(ctx context.Context, playerID string, row, col int) (*entity.Game, error) {
	log := that.logger.With("method", "MakeTurn", "playerID", playerID)

	unlock := that.lock(playerID)
	defer unlock()

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}

	if !player.InGame() {
		return nil, apperror.ErrNoActiveGame
	}

	game, err := that.getGameByID(ctx, player.GameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, apperror.ErrNoActiveGame
	}

	if err != nil {
		return nil, err
	}

	mark, err := tictactoe.ParsePlayer(player.Mark)
	if err != nil {
		return nil, fmt.Errorf("player %s has a broken mark: %w", player.ID, err)
	}

	if err = game.MakeTurn(mark, row, col); err != nil {
		return nil, fmt.Errorf("failed make turn: %w", err)
	}

	if game.IsComputerTurn() {
		pos, err := game.ComputerTurn()
		if err != nil {
			return nil, fmt.Errorf("computer failed to make turn: %w", err)
		}

		log.Debug("computer made a turn", "gameID", game.ID, "row", pos.Row, "col", pos.Col)
	}

	if game.IsFinished() {
		that.deleteGame(ctx, game, player)

		return game, nil
	}

	if err = that.updateGame(ctx, game); err != nil {
		return nil, err
	}

	// the player session expires together with its game
	if err = that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	return game, nil
}

// LeaveGame abandons the player's live game.
func (that *GameManager) LeaveGame(ctx context.Context, playerID string) error {
	unlock := that.lock(playerID)
	defer unlock()

	player, err := that.getPlayerByID(ctx, playerID)
	if err != nil {
		return err
	}

	if !player.InGame() {
		return apperror.ErrNoActiveGame
	}

	that.deleteGame(ctx, &entity.Game{ID: player.GameID}, player)

	return nil
}

func (that *GameManager) createGame(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	log := that.logger.With("method", "createGame", "playerID", player.ID)

	game := entity.NewGame(pkg.GenerateGameID(), player.ID, that.computerMark)

	if game.IsComputerTurn() {
		pos, err := game.ComputerTurn()
		if err != nil {
			return nil, fmt.Errorf("computer failed to open: %w", err)
		}

		log.Debug("computer opened", "gameID", game.ID, "row", pos.Row, "col", pos.Col)
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	player.GameID = game.ID
	player.Mark = game.HumanMark.String()

	if err := that.updatePlayer(ctx, player); err != nil {
		return nil, err
	}

	log.Info("game created", "gameID", game.ID, "mark", player.Mark)

	return game, nil
}

func (that *GameManager) getGameByID(ctx context.Context, id string) (*entity.Game, error) {
	existingGame, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return existingGame, nil
}

func (that *GameManager) updateGame(ctx context.Context, game *entity.Game) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}

	return nil
}

// deleteGame removes the game and frees the player. Failures are logged only:
// an orphaned game expires with its ttl.
func (that *GameManager) deleteGame(ctx context.Context, game *entity.Game, player *entity.Player) {
	log := that.logger.With("method", "deleteGame", "gameID", game.ID)

	if err := that.gameRepo.DeleteByID(ctx, game.ID); err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		log.Error("failed to delete game", "error", err)
	}

	player.Mark = ""
	player.GameID = ""

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		log.Error("failed to update player", "playerID", player.ID, "error", err)
	}

	log.Info("game deleted", "status", game.Status, "winner", game.Winner)
}

func (that *GameManager) createPlayer(ctx context.Context) (*entity.Player, error) {
	player := &entity.Player{
		ID: pkg.GenerateNewSessionID(),
	}

	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *GameManager) getPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *GameManager) updatePlayer(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("failed to update player: %w", err)
	}

	return nil
}

func (that *GameManager) lock(playerID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(playerID))

	mu := &that.locks[h.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}
