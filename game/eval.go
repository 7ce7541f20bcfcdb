package game

// Evaluate scores a board from the given player's perspective. Positive values
// favor that player.
type Evaluate func(b *Board, player Player) float64

const (
	ThreeScore  = 100.0
	TwoScore    = 10.0
	CenterScore = 3.0
)

// windows holds the cell indices of every line of WinLength cells on the board.
var windows = buildWindows()

func buildWindows() [][WinLength]int {
	directions := [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}
	var result [][WinLength]int
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			for _, d := range directions {
				endRow := row + (WinLength-1)*d[0]
				endCol := col + (WinLength-1)*d[1]
				if endRow < 0 || endRow >= Rows || endCol < 0 || endCol >= Cols {
					continue
				}
				var w [WinLength]int
				for i := 0; i < WinLength; i++ {
					w[i] = (row+i*d[0])*Cols + col + i*d[1]
				}
				result = append(result, w)
			}
		}
	}
	return result
}

// CountThreats counts the lines holding exactly length pieces of player with
// every other cell empty.
func CountThreats(b *Board, player Player, length int) int {
	count := 0
	for _, w := range windows {
		mine, empty := 0, 0
		for _, idx := range w {
			switch b.cells[idx] {
			case player:
				mine++
			case None:
				empty++
			}
		}
		if mine == length && empty == WinLength-length {
			count++
		}
	}
	return count
}

// EvaluatePosition is the static threat-counting heuristic: open threes and
// twos for each side plus control of the center column. The score is
// antisymmetric, so EvaluatePosition(b, p) == -EvaluatePosition(b, p.Opponent()).
func EvaluatePosition(b *Board, player Player) float64 {
	opponent := player.Opponent()

	score := 0.0
	score += float64(CountThreats(b, player, 3)) * ThreeScore
	score -= float64(CountThreats(b, opponent, 3)) * ThreeScore
	score += float64(CountThreats(b, player, 2)) * TwoScore
	score -= float64(CountThreats(b, opponent, 2)) * TwoScore

	center := Cols / 2
	for row := 0; row < Rows; row++ {
		switch b.Cell(row, center) {
		case player:
			score += CenterScore
		case opponent:
			score -= CenterScore
		}
	}
	return score
}

// WinsImmediately reports whether player wins by dropping a piece into col.
func WinsImmediately(b Board, col int, player Player) bool {
	if !b.MakeMove(col, player) {
		return false
	}
	return b.CheckWinner() == player
}
