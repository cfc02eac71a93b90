package matrix

import "fmt"

// Game defines the payoff logic for a repeated game environment.
type Game interface {
	Payoffs(actions []int) ([]float64, error)
	NumActions() int
	NumPlayers() int
	Name() string
}

// MatrixGame is a 2-player game with explicit payoff matrices:
// R1[i][j] is player 1's payoff for actions (i, j), R2 likewise.
type MatrixGame struct {
	name   string
	R1, R2 [][]float64
}

func NewMatrixGame(name string, r1, r2 [][]float64) (*MatrixGame, error) {
	if len(r1) == 0 || len(r1) != len(r2) {
		return nil, fmt.Errorf("payoff matrices must have the same number of rows")
	}
	for i := range r1 {
		if len(r1[i]) != len(r1) || len(r2[i]) != len(r1) {
			return nil, fmt.Errorf("payoff matrices must be square")
		}
	}
	return &MatrixGame{name: name, R1: r1, R2: r2}, nil
}

func (g *MatrixGame) Payoffs(actions []int) ([]float64, error) {
	if len(actions) != 2 {
		return nil, fmt.Errorf("matrix game requires exactly 2 actions, got %d", len(actions))
	}
	a1, a2 := actions[0], actions[1]
	if a1 < 0 || a1 >= len(g.R1) || a2 < 0 || a2 >= len(g.R1) {
		return nil, fmt.Errorf("action indices out of bounds: (%d, %d)", a1, a2)
	}
	return []float64{g.R1[a1][a2], g.R2[a1][a2]}, nil
}

func (g *MatrixGame) NumActions() int { return len(g.R1) }
func (g *MatrixGame) NumPlayers() int { return 2 }
func (g *MatrixGame) Name() string    { return g.name }

// PayoffMatrix returns the matrix for player 0 or 1.
func (g *MatrixGame) PayoffMatrix(player int) [][]float64 {
	if player == 0 {
		return g.R1
	}
	return g.R2
}

// NewPrisonersDilemma builds the classic game with standard parameters:
// T=temptation, R=reward, P=punishment, S=sucker's payoff.
// Actions: 0 = cooperate, 1 = defect.
func NewPrisonersDilemma(t, r, p, s float64) *MatrixGame {
	g, _ := NewMatrixGame("prisoners_dilemma",
		[][]float64{{r, s}, {t, p}},
		[][]float64{{r, t}, {s, p}},
	)
	return g
}

// NewChicken builds hawk-dove with V=value of winning, C=cost of conflict.
// Actions: 0 = swerve, 1 = straight.
func NewChicken(v, c float64) *MatrixGame {
	g, _ := NewMatrixGame("chicken",
		[][]float64{{v / 2, v}, {v - c, 0}},
		[][]float64{{v / 2, v - c}, {v, 0}},
	)
	return g
}

// NewCoordination4 is a 4-action game mixing two coordination equilibria
// (payoff 5) with two anti-coordination ones (payoff 2).
func NewCoordination4() *MatrixGame {
	g, _ := NewMatrixGame("coordination4",
		[][]float64{
			{5, 0, 1, 1},
			{0, 5, 1, 1},
			{1, 1, 2, 0},
			{1, 1, 0, 2},
		},
		[][]float64{
			{5, 0, 1, 1},
			{0, 5, 1, 1},
			{1, 1, 0, 2},
			{1, 1, 2, 0},
		},
	)
	return g
}
