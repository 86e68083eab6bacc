package entity

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-minimax/internal/tictactoe"
)

const (
	StatusFinished = "finished"
	StatusOngoing  = "ongoing"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Move is a mark placed on the board.
type Move struct {
	Mark tictactoe.Player `json:"mark"`
	tictactoe.Position
}

// Game is a human-versus-computer match.
type Game struct {
	ID           string           `json:"id"`
	PlayerID     string           `json:"player_id"`
	Board        tictactoe.Board  `json:"board"`
	Winner       string           `json:"winner"`
	Status       string           `json:"status"`
	Turn         string           `json:"player_turn"`
	HumanMark    tictactoe.Player `json:"human_mark"`
	ComputerMark tictactoe.Player `json:"computer_mark"`
	LastMove     *Move            `json:"last_move,omitempty"`
}

// NewGame starts an empty match. X always opens, so the computer moves first
// when computerMark is X.
func NewGame(id, playerID string, computerMark tictactoe.Player) *Game {
	return &Game{
		ID:           id,
		PlayerID:     playerID,
		Board:        tictactoe.EmptyBoard(),
		Status:       StatusOngoing,
		Turn:         PlayerX,
		HumanMark:    computerMark.Opponent(),
		ComputerMark: computerMark,
	}
}

// DetermineGameResult returns the winning mark, PlayerTie for a draw, or ""
// while the game goes on.
func (that *Game) DetermineGameResult() string {
	result := tictactoe.Evaluate(that.Board)

	switch result.Status {
	case tictactoe.Win:
		return result.Winner.String()
	case tictactoe.Draw:
		return PlayerTie
	default:
		return ""
	}
}

func (that *Game) UpdateGameState() {
	switch winner := that.DetermineGameResult(); winner {
	// one player wins
	case PlayerX, PlayerO:
		that.Winner = winner
		that.Status = StatusFinished
		that.Turn = ""
	// tie
	case PlayerTie:
		that.Winner = PlayerTie
		that.Status = StatusFinished
		that.Turn = ""
	// game continue
	default:
		that.Status = StatusOngoing
	}
}

// MakeTurn places mark at row, col for whichever side is to move.
func (that *Game) MakeTurn(mark tictactoe.Player, row, col int) error {
	if err := that.ConfirmOngoingState(); err != nil {
		return err
	}

	if that.Turn != mark.String() {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.ApplyMove(row, col, mark); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	that.finishTurn(mark, tictactoe.Position{Row: row, Col: col})

	return nil
}

// ComputerTurn lets the engine choose and play the computer's move.
func (that *Game) ComputerTurn() (tictactoe.Position, error) {
	if err := that.ConfirmOngoingState(); err != nil {
		return tictactoe.Position{}, err
	}

	if !that.IsComputerTurn() {
		return tictactoe.Position{}, apperror.ErrNotYourTurn
	}

	pos, err := tictactoe.SelectMove(&that.Board, that.ComputerMark)
	if err != nil {
		return tictactoe.Position{}, fmt.Errorf("failed to select move: %w", err)
	}

	that.finishTurn(that.ComputerMark, pos)

	return pos, nil
}

func (that *Game) finishTurn(mark tictactoe.Player, pos tictactoe.Position) {
	that.LastMove = &Move{Mark: mark, Position: pos}
	that.Turn = mark.Opponent().String()

	that.UpdateGameState()
}

func (that *Game) IsComputerTurn() bool {
	return that.IsOngoing() && that.Turn == that.ComputerMark.String()
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *Game) ConfirmOngoingState() error {
	switch {
	case that.IsFinished():
		return apperror.ErrGameFinished
	case that.IsOngoing():
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}
