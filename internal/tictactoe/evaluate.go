package tictactoe

// Status is the outcome label of a board.
type Status uint8

const (
	InProgress Status = iota
	Win
	Draw
)

func (s Status) String() string {
	switch s {
	case Win:
		return "win"
	case Draw:
		return "draw"
	default:
		return "in_progress"
	}
}

// Result is the evaluation of a board. Winner is set only when Status is Win.
type Result struct {
	Status Status
	Winner Player
}

func (r Result) IsTerminal() bool {
	return r.Status != InProgress
}

// Score maps a terminal result onto the minimax scale: X wins -1, O wins +1,
// draws and unfinished boards 0.
func (r Result) Score() int {
	if r.Status != Win {
		return scoreDraw
	}

	if r.Winner == PlayerX {
		return scoreWinX
	}
	return scoreWinO
}

// lines are scanned in this order: rows, columns, main diagonal, anti-diagonal.
// The order only decides which of two simultaneous lines is reported, which
// legal play never produces.
var lines = [8][3]Position{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Evaluate reports whether board is won, drawn or still in progress.
func Evaluate(board Board) Result {
	for _, line := range lines {
		a := board[line[0].Row][line[0].Col]
		b := board[line[1].Row][line[1].Col]
		c := board[line[2].Row][line[2].Col]
		if a != CellEmpty && a == b && b == c {
			return Result{Status: Win, Winner: Player(a)}
		}
	}

	// the game continues until all the squares are full
	if !board.IsFull() {
		return Result{Status: InProgress}
	}

	return Result{Status: Draw}
}
