package game

import (
	"errors"
	"slices"
	"strings"
)

const (
	Rows      = 6
	Cols      = 7
	Cells     = Rows * Cols
	WinLength = 4
	// InputSize is the length of a neural encoding: three one-hot channels per cell
	InputSize = Cells * 3
)

var ErrIllegalMove = errors.New("illegal move")

type Player int8

const (
	None Player = iota
	Player1
	Player2
)

func (p Player) Opponent() Player {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return None
	}
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "X"
	case Player2:
		return "O"
	default:
		return "."
	}
}

// Board is a 6x7 Connect Four grid. Row 0 is the bottom row and cell (row, col)
// is stored at index row*Cols+col. Board is a value type: assigning it clones it.
type Board struct {
	cells   [Cells]Player
	heights [Cols]int
}

func NewBoard() Board {
	return Board{}
}

// MirrorColumn maps a column to its left-right reflection.
func MirrorColumn(col int) int {
	return Cols - 1 - col
}

func (b *Board) Cell(row, col int) Player {
	return b.cells[row*Cols+col]
}

// Height returns the number of pieces in a column, i.e. the next free row.
func (b *Board) Height(col int) int {
	return b.heights[col]
}

// MoveCount returns the number of pieces on the board.
func (b *Board) MoveCount() int {
	count := 0
	for _, h := range b.heights {
		count += h
	}
	return count
}

func (b *Board) IsValidMove(col int) bool {
	return col >= 0 && col < Cols && b.heights[col] < Rows
}

// ValidMoves returns the playable columns in ascending order.
func (b *Board) ValidMoves() []int {
	moves := make([]int, 0, Cols)
	for col := 0; col < Cols; col++ {
		if b.heights[col] < Rows {
			moves = append(moves, col)
		}
	}
	return moves
}

// MakeMove drops a piece for player into col. It returns false and leaves the
// board untouched if the column is full or out of range.
func (b *Board) MakeMove(col int, player Player) bool {
	if !b.IsValidMove(col) {
		return false
	}
	b.cells[b.heights[col]*Cols+col] = player
	b.heights[col]++
	return true
}

// UndoMove removes the top piece of col. Empty or out of range columns are ignored.
func (b *Board) UndoMove(col int) {
	if col < 0 || col >= Cols || b.heights[col] == 0 {
		return
	}
	b.heights[col]--
	b.cells[b.heights[col]*Cols+col] = None
}

// Play returns a copy of the board with the move applied.
func (b Board) Play(col int, player Player) (Board, error) {
	if !b.MakeMove(col, player) {
		return b, ErrIllegalMove
	}
	return b, nil
}

// CheckWinner scans horizontal, vertical, rising diagonal and falling diagonal
// lines in that order and returns the owner of the first four-in-a-row found.
func (b *Board) CheckWinner() Player {
	for row := 0; row < Rows; row++ {
		for col := 0; col <= Cols-WinLength; col++ {
			if b.checkLine(row, col, 0, 1) {
				return b.Cell(row, col)
			}
		}
	}
	for row := 0; row <= Rows-WinLength; row++ {
		for col := 0; col < Cols; col++ {
			if b.checkLine(row, col, 1, 0) {
				return b.Cell(row, col)
			}
		}
	}
	for row := 0; row <= Rows-WinLength; row++ {
		for col := 0; col <= Cols-WinLength; col++ {
			if b.checkLine(row, col, 1, 1) {
				return b.Cell(row, col)
			}
		}
	}
	for row := 0; row <= Rows-WinLength; row++ {
		for col := WinLength - 1; col < Cols; col++ {
			if b.checkLine(row, col, 1, -1) {
				return b.Cell(row, col)
			}
		}
	}
	return None
}

func (b *Board) checkLine(row, col, dRow, dCol int) bool {
	first := b.Cell(row, col)
	if first == None {
		return false
	}
	for i := 1; i < WinLength; i++ {
		if b.Cell(row+i*dRow, col+i*dCol) != first {
			return false
		}
	}
	return true
}

func (b *Board) IsFull() bool {
	for _, h := range b.heights {
		if h < Rows {
			return false
		}
	}
	return true
}

func (b *Board) IsGameOver() bool {
	return b.CheckWinner() != None || b.IsFull()
}

// ToNeuralInput one-hot encodes every cell as [mine, opponent's, empty] from
// the perspective of the given player.
func (b *Board) ToNeuralInput(perspective Player) []float64 {
	input := make([]float64, InputSize)
	opponent := perspective.Opponent()
	for i, cell := range b.cells {
		switch cell {
		case perspective:
			input[i*3] = 1
		case opponent:
			input[i*3+1] = 1
		default:
			input[i*3+2] = 1
		}
	}
	return input
}

// Mirrored returns the left-right reflection of the board.
func (b *Board) Mirrored() Board {
	var mirrored Board
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			mirrored.cells[row*Cols+MirrorColumn(col)] = b.cells[row*Cols+col]
		}
	}
	for col := 0; col < Cols; col++ {
		mirrored.heights[MirrorColumn(col)] = b.heights[col]
	}
	return mirrored
}

// NormalizedInput returns the lexicographically smaller of the direct and the
// mirrored encodings, and whether the mirrored one was chosen. Policies
// computed on a mirrored encoding must be mapped back with MirrorColumn.
func (b *Board) NormalizedInput(player Player) ([]float64, bool) {
	direct := b.ToNeuralInput(player)
	mirrored := b.Mirrored()
	reflected := mirrored.ToNeuralInput(player)
	if slices.Compare(reflected, direct) < 0 {
		return reflected, true
	}
	return direct, false
}

func (b Board) String() string {
	var sb strings.Builder
	sb.WriteString(" ")
	for col := 0; col < Cols; col++ {
		sb.WriteString(" ")
		sb.WriteByte(byte('0' + col))
	}
	sb.WriteString("\n")
	for row := Rows - 1; row >= 0; row-- {
		sb.WriteString(" |")
		for col := 0; col < Cols; col++ {
			sb.WriteString(b.Cell(row, col).String())
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
