package gamemaster

import (
	"errors"
	"fmt"

	"connectfour/game"
)

var ErrGameOver = errors.New("game is over")

// Update reports a move accepted by the engine and the board after it.
type Update struct {
	Column int
	Player game.Player
	Board  game.Board
}

// UpdateGetter returns the next pending update without blocking. The boolean
// is false when no update is pending or the game has ended and been drained.
type UpdateGetter func() (Update, bool)

// Engine referees a single game. Player1 always moves first.
type Engine interface {
	Init() (game.Board, UpdateGetter)
	Play(col int) error
	ToMove() game.Player
	IsOver() bool
	Winner() game.Player
}

type localEngine struct {
	board    game.Board
	toMove   game.Player
	updateCh chan Update
	gameOver bool
	winner   game.Player
}

func NewLocalEngine() *localEngine {
	return &localEngine{}
}

func (e *localEngine) Init() (game.Board, UpdateGetter) {
	e.board = game.NewBoard()
	e.toMove = game.Player1
	e.gameOver = false
	e.winner = game.None
	// One slot per cell so Play never blocks on a slow reader
	e.updateCh = make(chan Update, game.Cells)

	updateCh := e.updateCh
	return e.board, func() (Update, bool) {
		select {
		case u, ok := <-updateCh:
			return u, ok
		default:
			return Update{}, false
		}
	}
}

func (e *localEngine) Play(col int) error {
	if e.updateCh == nil {
		return errors.New("engine is not initialized")
	}
	if e.gameOver {
		return ErrGameOver
	}
	if !e.board.IsValidMove(col) {
		return fmt.Errorf("column %d: %w", col, game.ErrIllegalMove)
	}

	player := e.toMove
	e.board.MakeMove(col, player)
	e.toMove = player.Opponent()

	if winner := e.board.CheckWinner(); winner != game.None {
		e.winner = winner
		e.gameOver = true
	} else if e.board.IsFull() {
		e.gameOver = true
	}

	e.updateCh <- Update{Column: col, Player: player, Board: e.board}
	if e.gameOver {
		close(e.updateCh)
	}
	return nil
}

func (e *localEngine) Board() game.Board {
	return e.board
}

func (e *localEngine) ToMove() game.Player {
	return e.toMove
}

func (e *localEngine) IsOver() bool {
	return e.gameOver
}

// Winner returns the player who connected four, or None for a draw or a game
// still in progress.
func (e *localEngine) Winner() game.Player {
	return e.winner
}
