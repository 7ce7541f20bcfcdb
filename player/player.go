// Package player provides an agent driven by a person at the console.
package player

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"connectfour/experiments/metrics"
	"connectfour/game"
)

var ErrNoInput = errors.New("no more input")

// Human reads columns from an input stream, prompting on out.
type Human struct {
	scanner *bufio.Scanner
	out     io.Writer
	err     error
}

func NewHuman(in io.Reader, out io.Writer) *Human {
	return &Human{scanner: bufio.NewScanner(in), out: out}
}

// Err returns ErrNoInput once the input is exhausted.
func (h *Human) Err() error {
	return h.err
}

// FindMove prompts until a legal column is entered. When input runs out it
// returns -1 and Err reports ErrNoInput.
func (h *Human) FindMove(b game.Board, player game.Player) (int, metrics.SearchMetric) {
	moves := b.ValidMoves()
	for {
		fmt.Fprintf(h.out, "Your turn (%v). Valid moves: %s\nEnter column: ", player, joinInts(moves))
		if !h.scanner.Scan() {
			h.err = ErrNoInput
			return -1, metrics.SearchMetric{}
		}

		col, err := strconv.Atoi(strings.TrimSpace(h.scanner.Text()))
		if err != nil || !b.IsValidMove(col) {
			fmt.Fprintln(h.out, "Invalid move! Try again.")
			continue
		}
		return col, metrics.SearchMetric{}
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, " ")
}
