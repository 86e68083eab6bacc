package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	t.Run("Empty board is in progress", func(t *testing.T) {
		result := Evaluate(EmptyBoard())

		assert.Equal(t, Result{Status: InProgress}, result)
		assert.False(t, result.IsTerminal())
	})

	t.Run("Every line wins for both players", func(t *testing.T) {
		for _, player := range []Player{PlayerX, PlayerO} {
			for _, line := range lines {
				// Given: a board with only this line filled by player
				board := EmptyBoard()
				for _, pos := range line {
					board[pos.Row][pos.Col] = player.Cell()
				}

				// When: evaluating the board
				result := Evaluate(board)

				// Then: player wins
				assert.Equal(t, Result{Status: Win, Winner: player}, result, "line %v", line)
			}
		}
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		board := Board{
			{CellX, CellO, CellX},
			{CellO, CellX, CellO},
			{CellO, CellX, CellO},
		}

		result := Evaluate(board)

		assert.Equal(t, Result{Status: Draw}, result)
		assert.True(t, result.IsTerminal())
	})

	t.Run("Win on the last empty cell is a win, not a draw", func(t *testing.T) {
		board := Board{
			{CellX, CellO, CellX},
			{CellO, CellX, CellO},
			{CellO, CellO, CellX},
		}

		assert.Equal(t, Result{Status: Win, Winner: PlayerX}, Evaluate(board))
	})

	t.Run("Partially filled board is in progress", func(t *testing.T) {
		board := Board{
			{CellX, CellO, CellEmpty},
			{CellEmpty, CellX, CellEmpty},
			{CellEmpty, CellEmpty, CellO},
		}

		assert.Equal(t, Result{Status: InProgress}, Evaluate(board))
	})

	t.Run("Simultaneous lines report the first in scan order", func(t *testing.T) {
		// Given: illegal boards where both players own a line
		topX := Board{
			{CellX, CellX, CellX},
			{CellEmpty, CellEmpty, CellEmpty},
			{CellO, CellO, CellO},
		}
		middleX := Board{
			{CellO, CellO, CellO},
			{CellX, CellX, CellX},
			{CellEmpty, CellEmpty, CellEmpty},
		}

		// Then: the upper row is reported
		assert.Equal(t, Result{Status: Win, Winner: PlayerX}, Evaluate(topX))
		assert.Equal(t, Result{Status: Win, Winner: PlayerO}, Evaluate(middleX))
	})
}

func TestResult_Score(t *testing.T) {
	assert.Equal(t, -1, Result{Status: Win, Winner: PlayerX}.Score())
	assert.Equal(t, 1, Result{Status: Win, Winner: PlayerO}.Score())
	assert.Equal(t, 0, Result{Status: Draw}.Score())
}
