package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MarshalJSON encodes the board as one string per column, listing its pieces
// from the bottom up, e.g. ["XO", "", "X", "", "", "", ""].
func (b Board) MarshalJSON() ([]byte, error) {
	columns := make([]string, Cols)
	for col := range columns {
		var sb strings.Builder
		for row := 0; row < b.heights[col]; row++ {
			sb.WriteString(b.Cell(row, col).String())
		}
		columns[col] = sb.String()
	}
	return json.Marshal(columns)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var columns []string
	if err := json.Unmarshal(data, &columns); err != nil {
		return err
	}
	if len(columns) != Cols {
		return fmt.Errorf("board has %d columns, want %d", len(columns), Cols)
	}

	decoded := NewBoard()
	for col, stack := range columns {
		if len(stack) > Rows {
			return fmt.Errorf("column %d holds %d pieces, at most %d fit", col, len(stack), Rows)
		}
		for _, c := range stack {
			player, err := ParsePlayer(c)
			if err != nil {
				return fmt.Errorf("column %d: %w", col, err)
			}
			decoded.MakeMove(col, player)
		}
	}
	*b = decoded
	return nil
}

// ParsePlayer maps a piece symbol back to its player.
func ParsePlayer(symbol rune) (Player, error) {
	switch symbol {
	case 'X':
		return Player1, nil
	case 'O':
		return Player2, nil
	default:
		return None, fmt.Errorf("unknown piece %q", symbol)
	}
}

func (p Player) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var symbol string
	if err := json.Unmarshal(data, &symbol); err != nil {
		return err
	}
	if symbol == None.String() {
		*p = None
		return nil
	}
	if len(symbol) != 1 {
		return fmt.Errorf("unknown player %q", symbol)
	}
	parsed, err := ParsePlayer(rune(symbol[0]))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
