package tictactoe

import (
	"fmt"
	"math"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

// X is the minimising side and O the maximising side, whichever of them the
// computer plays.
const (
	scoreWinX = -1
	scoreDraw = 0
	scoreWinO = 1
)

// Minimax returns the value of board under optimal play with toMove to play
// next: -1 when X forces a win, +1 when O does, 0 for a draw. The search is
// exhaustive and leaves board exactly as it found it.
func Minimax(board *Board, toMove Player) int {
	if result := Evaluate(*board); result.IsTerminal() {
		return result.Score()
	}

	best := initialScore(toMove)
	for _, pos := range board.EmptyCells() {
		score := board.speculate(pos, toMove, func() int {
			return Minimax(board, toMove.Opponent())
		})

		if toMove == PlayerX {
			best = min(best, score)
		} else {
			best = max(best, score)
		}
	}

	return best
}

// SelectMove picks the minimax-optimal cell for player, applies it to board
// and returns it. Equal scores keep the earliest cell in row-major order, so
// the choice is deterministic for every board.
func SelectMove(board *Board, player Player) (Position, error) {
	if !player.Valid() {
		return Position{}, fmt.Errorf("%w: %d", ErrUnknownMark, player)
	}

	candidates := board.EmptyCells()
	if len(candidates) == 0 {
		return Position{}, apperror.ErrIllegalState
	}

	var bestMove Position
	bestScore := initialScore(player)
	for _, pos := range candidates {
		score := board.speculate(pos, player, func() int {
			return Minimax(board, player.Opponent())
		})

		if improves(player, score, bestScore) {
			bestScore = score
			bestMove = pos
		}
	}

	if err := board.ApplyMove(bestMove.Row, bestMove.Col, player); err != nil {
		return Position{}, fmt.Errorf("failed to apply selected move: %w", err)
	}

	return bestMove, nil
}

func initialScore(player Player) int {
	if player == PlayerX {
		return math.MaxInt
	}
	return math.MinInt
}

// improves is strict on purpose: ties never replace the earlier candidate.
func improves(player Player, score, best int) bool {
	if player == PlayerX {
		return score < best
	}
	return score > best
}
