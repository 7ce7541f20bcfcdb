package searcher

import (
	"math"

	"connectfour/game"
)

// node is one position in the search tree. totalValue is accumulated from the
// perspective of the player who moved into the node, so a parent compares its
// children by their Q-values directly. parent is a back-reference used only to
// walk values up the tree.
type node struct {
	board      game.Board
	player     game.Player // Player to move
	move       int         // Column that led here, -1 for the root
	prior      float64
	depth      int
	winner     game.Player
	terminal   bool
	expanded   bool
	visits     int
	totalValue float64
	children   []*node
	parent     *node
}

func newNode(parent *node, board game.Board, player game.Player, move int, prior float64) *node {
	n := &node{
		board:  board,
		player: player,
		move:   move,
		prior:  prior,
		parent: parent,
		winner: board.CheckWinner(),
	}
	n.terminal = n.winner != game.None || board.IsFull()
	if parent != nil {
		n.depth = parent.depth + 1
	}
	return n
}

func (n *node) q() float64 {
	if n.visits == 0 {
		return 0
	}
	return n.totalValue / float64(n.visits)
}

func (n *node) puct(exploration float64, parentVisits int) float64 {
	return n.q() + exploration*n.prior*math.Sqrt(float64(parentVisits))/(1+float64(n.visits))
}

// fullyExpanded reports whether selection can descend through the node.
func (n *node) fullyExpanded() bool {
	return n.terminal || n.expanded
}

// expand creates one child per legal move with priors from the evaluation.
func (n *node) expand(priors [game.Cols]float64) {
	if n.terminal || n.expanded {
		return
	}
	moves := n.board.ValidMoves()
	if len(moves) == 0 {
		panic("non-terminal node has no legal moves")
	}
	n.children = make([]*node, 0, len(moves))
	for _, col := range moves {
		child := n.board
		child.MakeMove(col, n.player)
		n.children = append(n.children, newNode(n, child, n.player.Opponent(), col, priors[col]))
	}
	n.expanded = true
}

// selectChild returns the child with the highest PUCT score, the first one on ties.
func (n *node) selectChild(exploration float64) *node {
	var best *node
	bestScore := math.Inf(-1)
	for _, child := range n.children {
		if score := child.puct(exploration, n.visits); score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

// highestPrior returns the child with the largest prior, the first one on ties.
func (n *node) highestPrior() *node {
	var best *node
	for _, child := range n.children {
		if best == nil || child.prior > best.prior {
			best = child
		}
	}
	return best
}

// backup adds value, given for the root player, to every node from n up to the root.
func (n *node) backup(rootValue float64) {
	// Nodes at odd depth were entered by the root player.
	value := rootValue
	if n.depth%2 == 0 {
		value = -value
	}
	for current := n; current != nil; current = current.parent {
		current.visits++
		current.totalValue += value
		value = -value
	}
}
