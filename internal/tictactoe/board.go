package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/apperror"
)

// Size is the length of a board side.
const Size = 3

var ErrUnknownMark = errors.New("unknown mark")

// Cell is the state of a single board square.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellX
	CellO
)

func (c Cell) String() string {
	switch c {
	case CellX:
		return "X"
	case CellO:
		return "O"
	default:
		return ""
	}
}

func (c Cell) MarshalText() ([]byte, error) {
	if c > CellO {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMark, c)
	}

	return []byte(c.String()), nil
}

func (c *Cell) UnmarshalText(text []byte) error {
	switch string(text) {
	case "":
		*c = CellEmpty
	case "X":
		*c = CellX
	case "O":
		*c = CellO
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMark, text)
	}

	return nil
}

// Player is one of the two sides. X always moves first.
type Player uint8

const (
	PlayerX = Player(CellX)
	PlayerO = Player(CellO)
)

// ParsePlayer converts "X" or "O" into a Player.
func ParsePlayer(mark string) (Player, error) {
	switch mark {
	case "X":
		return PlayerX, nil
	case "O":
		return PlayerO, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMark, mark)
	}
}

func (p Player) Valid() bool {
	return p == PlayerX || p == PlayerO
}

func (p Player) Cell() Cell {
	return Cell(p)
}

func (p Player) Opponent() Player {
	if p == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (p Player) String() string {
	return p.Cell().String()
}

func (p Player) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMark, p)
	}

	return []byte(p.String()), nil
}

func (p *Player) UnmarshalText(text []byte) error {
	player, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}

	*p = player
	return nil
}

// Position addresses a cell by row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d)", p.Row, p.Col)
}

// Board is the 3x3 grid, indexed [row][col]. The zero value is an empty board.
type Board [Size][Size]Cell

// EmptyBoard returns a board with all nine cells empty.
func EmptyBoard() Board {
	return Board{}
}

// At returns the cell at row, col.
func (that *Board) At(row, col int) (Cell, error) {
	if !inBounds(row, col) {
		return CellEmpty, outOfBounds(row, col)
	}

	return that[row][col], nil
}

// ApplyMove places player at row, col. The board is left untouched on error.
func (that *Board) ApplyMove(row, col int, player Player) error {
	if !inBounds(row, col) {
		return outOfBounds(row, col)
	}

	if !player.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMark, player)
	}

	if that[row][col] != CellEmpty {
		return fmt.Errorf("%w: row %d, col %d", apperror.ErrCellOccupied, row, col)
	}

	that[row][col] = player.Cell()

	return nil
}

// UndoMove empties row, col regardless of its contents. It exists for search
// backtracking and must not be used to take back a real game move.
func (that *Board) UndoMove(row, col int) error {
	if !inBounds(row, col) {
		return outOfBounds(row, col)
	}

	that.clear(Position{Row: row, Col: col})

	return nil
}

// EmptyCells lists the empty cells in row-major order.
func (that *Board) EmptyCells() []Position {
	cells := make([]Position, 0, Size*Size)
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that[row][col] == CellEmpty {
				cells = append(cells, Position{Row: row, Col: col})
			}
		}
	}

	return cells
}

// IsFull reports whether no empty cell is left.
func (that *Board) IsFull() bool {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if that[row][col] == CellEmpty {
				return false
			}
		}
	}

	return true
}

// speculate places player at pos, runs fn and empties pos again on every exit
// path, panics included. pos must come from EmptyCells.
func (that *Board) speculate(pos Position, player Player, fn func() int) int {
	that[pos.Row][pos.Col] = player.Cell()
	defer that.clear(pos)

	return fn()
}

func (that *Board) clear(pos Position) {
	that[pos.Row][pos.Col] = CellEmpty
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

func outOfBounds(row, col int) error {
	return fmt.Errorf("%w: row %d, col %d", apperror.ErrOutOfBounds, row, col)
}
