package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"connectfour/game"
)

// display renders boards with colored stones when the output supports it.
type display struct {
	out *termenv.Output
}

func newDisplay(w io.Writer) *display {
	return &display{out: termenv.NewOutput(w)}
}

func (d *display) stone(p game.Player) string {
	switch p {
	case game.Player1:
		return d.out.String(p.String()).Foreground(d.out.Color("9")).Bold().String()
	case game.Player2:
		return d.out.String(p.String()).Foreground(d.out.Color("11")).Bold().String()
	default:
		return d.out.String(p.String()).Faint().String()
	}
}

func (d *display) render(b game.Board) string {
	var sb strings.Builder
	sb.WriteString(" ")
	for col := 0; col < game.Cols; col++ {
		fmt.Fprintf(&sb, " %d", col)
	}
	sb.WriteString("\n")
	for row := game.Rows - 1; row >= 0; row-- {
		sb.WriteString(" |")
		for col := 0; col < game.Cols; col++ {
			sb.WriteString(d.stone(b.Cell(row, col)))
			sb.WriteString("|")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (d *display) printBoard(b game.Board) {
	fmt.Fprint(d.out, d.render(b))
}

func (d *display) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

// printOutcome announces the result from the point of view of one side.
func (d *display) printOutcome(winner, side game.Player, won, lost string) {
	switch winner {
	case game.None:
		d.printf("\nGame ended in a draw!\n")
	case side:
		d.printf("\n%s\n", won)
	default:
		d.printf("\n%s\n", lost)
	}
}
