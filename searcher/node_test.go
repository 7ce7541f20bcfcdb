package searcher

import (
	"testing"

	"github.com/stretchr/testify/require"

	"connectfour/game"
)

/*
node:
- expansion: one child per legal move, opponent to move, prior copied by column; terminal nodes never expand
- selection: max PUCT, first on ties
- backup: every ancestor +1 visit, value sign flips per level, stored for the player who moved in
*/

func boardOf(moves ...int) game.Board {
	b := game.NewBoard()
	player := game.Player1
	for _, col := range moves {
		b.MakeMove(col, player)
		player = player.Opponent()
	}
	return b
}

func TestNodeExpand(t *testing.T) {
	t.Run("creates one child per legal move", func(t *testing.T) {
		b := boardOf(2, 2, 2, 2, 2, 2)
		root := newNode(nil, b, game.Player1, -1, 1)
		priors := [game.Cols]float64{0.1, 0.2, 0, 0.3, 0.1, 0.2, 0.1}

		root.expand(priors)

		require.True(t, root.expanded)
		require.Len(t, root.children, 6, "Full column should get no child")
		for _, child := range root.children {
			require.NotEqual(t, 2, child.move)
			require.Equal(t, priors[child.move], child.prior, "Child should copy its column prior")
			require.Equal(t, game.Player2, child.player, "Opponent should move in the child")
			require.Equal(t, 1, child.depth)
			require.Same(t, root, child.parent)
			require.Equal(t, game.Player1, child.board.Cell(child.board.Height(child.move)-1, child.move))
		}
		require.Equal(t, 6, root.board.MoveCount(), "Parent board should be untouched")
	})

	t.Run("terminal node does not expand", func(t *testing.T) {
		b := boardOf(0, 6, 1, 6, 2, 6, 3)
		n := newNode(nil, b, game.Player2, -1, 1)

		require.True(t, n.terminal)
		require.Equal(t, game.Player1, n.winner)
		n.expand([game.Cols]float64{})
		require.Empty(t, n.children)
		require.True(t, n.fullyExpanded(), "Terminal nodes count as fully expanded")
	})
}

func TestNodeSelect(t *testing.T) {
	t.Run("unvisited parent falls back to the first child", func(t *testing.T) {
		root := newNode(nil, game.NewBoard(), game.Player1, -1, 1)
		root.expand([game.Cols]float64{0.1, 0.1, 0.1, 0.4, 0.1, 0.1, 0.1})

		require.Equal(t, 0, root.selectChild(DefaultExploration).move, "All scores tie at zero visits")
	})

	t.Run("prior drives exploration", func(t *testing.T) {
		root := newNode(nil, game.NewBoard(), game.Player1, -1, 1)
		root.expand([game.Cols]float64{0.1, 0.1, 0.1, 0.4, 0.1, 0.1, 0.1})
		root.visits = 1

		require.Equal(t, 3, root.selectChild(DefaultExploration).move)
	})

	t.Run("q value wins over a small prior edge", func(t *testing.T) {
		root := newNode(nil, game.NewBoard(), game.Player1, -1, 1)
		root.expand([game.Cols]float64{0.1, 0.1, 0.1, 0.4, 0.1, 0.1, 0.1})
		root.visits = 10
		root.children[5].visits = 4
		root.children[5].totalValue = 4
		root.children[3].visits = 4
		root.children[3].totalValue = -4

		require.Equal(t, 5, root.selectChild(DefaultExploration).move)
	})

	t.Run("highest prior", func(t *testing.T) {
		root := newNode(nil, game.NewBoard(), game.Player1, -1, 1)
		root.expand([game.Cols]float64{0.1, 0.3, 0.1, 0.3, 0.1, 0.05, 0.05})

		require.Equal(t, 1, root.highestPrior().move, "Ties should go to the first child")
	})
}

func TestNodeBackup(t *testing.T) {
	root := newNode(nil, game.NewBoard(), game.Player1, -1, 1)
	root.expand([game.Cols]float64{0, 0, 0, 1, 0, 0, 0})
	child := root.children[3]
	child.expand([game.Cols]float64{0, 0, 0, 1, 0, 0, 0})
	grandchild := child.children[3]

	t.Run("odd depth leaf", func(t *testing.T) {
		child.backup(0.5)

		require.Equal(t, 1, child.visits)
		require.Equal(t, 1, root.visits)
		require.Equal(t, 0.5, child.totalValue, "Root player moved into the child")
		require.Equal(t, -0.5, root.totalValue)
	})

	t.Run("even depth leaf", func(t *testing.T) {
		grandchild.backup(0.5)

		require.Equal(t, 1, grandchild.visits)
		require.Equal(t, -0.5, grandchild.totalValue, "Opponent moved into the grandchild")
		require.Equal(t, 2, child.visits)
		require.Equal(t, 1.0, child.totalValue)
		require.Equal(t, 2, root.visits)
		require.Equal(t, -1.0, root.totalValue)
		require.Equal(t, 0.5, child.q())
	})
}
