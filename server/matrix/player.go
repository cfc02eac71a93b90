package matrix

import (
	"context"
	"math/rand"
)

// Player produces a mixed policy (a probability per action) each round.
// The moderator samples the actual action from it.
type Player interface {
	Name() string
	NumActions() int
	// Policy returns the mixed strategy for this round plus an optional
	// free-text rationale (empty for scripted players).
	Policy(ctx context.Context, st *State) (policy []float64, thought string, err error)
	// Observe feeds back the played policy and realized reward.
	Observe(policy []float64, reward float64)
	History() []HistoryEntry
	TotalReward() float64
}

// RegretUpdater is implemented by players that learn from counterfactuals.
type RegretUpdater interface {
	UpdateRegrets(actionTaken int, payoffs []float64)
}

type HistoryEntry struct {
	Policy []float64 `json:"policy"`
	Reward float64   `json:"reward"`
}

// base carries the bookkeeping every player shares.
type base struct {
	name       string
	numActions int
	history    []HistoryEntry
	total      float64
}

func (b *base) Name() string            { return b.name }
func (b *base) NumActions() int         { return b.numActions }
func (b *base) History() []HistoryEntry { return b.history }
func (b *base) TotalReward() float64    { return b.total }

func (b *base) Observe(policy []float64, reward float64) {
	b.history = append(b.history, HistoryEntry{Policy: policy, Reward: reward})
	b.total += reward
}

func (b *base) uniform() []float64 {
	p := make([]float64, b.numActions)
	for i := range p {
		p[i] = 1.0 / float64(b.numActions)
	}
	return p
}

// RandomPlayer plays the uniform mixed strategy every round.
type RandomPlayer struct{ base }

func NewRandomPlayer(name string, numActions int) *RandomPlayer {
	return &RandomPlayer{base{name: name, numActions: numActions}}
}

func (p *RandomPlayer) Policy(ctx context.Context, st *State) ([]float64, string, error) {
	return p.uniform(), "", nil
}

// TitForTatPlayer starts with a fixed action, then copies the opponent's
// last action. Only meaningful head-to-head.
type TitForTatPlayer struct {
	base
	initialAction int
}

func NewTitForTatPlayer(name string, numActions, initialAction int) *TitForTatPlayer {
	return &TitForTatPlayer{base{name: name, numActions: numActions}, initialAction}
}

func (p *TitForTatPlayer) Policy(ctx context.Context, st *State) ([]float64, string, error) {
	next := p.initialAction
	if n := len(st.RoundHistory); n > 0 {
		last := st.RoundHistory[n-1]
		for who, act := range last.Actions {
			if who != p.name {
				next = act
				break
			}
		}
	}
	policy := make([]float64, p.numActions)
	policy[next] = 1.0
	return policy, "", nil
}

// RegretMatchingPlayer plays proportionally to positive cumulative regret.
type RegretMatchingPlayer struct {
	base
	learningRate float64
	regrets      []float64
	strategySum  []float64
}

func NewRegretMatchingPlayer(name string, numActions int, learningRate float64) *RegretMatchingPlayer {
	return &RegretMatchingPlayer{
		base:         base{name: name, numActions: numActions},
		learningRate: learningRate,
		regrets:      make([]float64, numActions),
		strategySum:  make([]float64, numActions),
	}
}

func (p *RegretMatchingPlayer) Policy(ctx context.Context, st *State) ([]float64, string, error) {
	strategy := p.strategy()
	for i := range strategy {
		p.strategySum[i] += strategy[i]
	}
	return strategy, "", nil
}

func (p *RegretMatchingPlayer) strategy() []float64 {
	var totalPositive float64
	positive := make([]float64, p.numActions)
	for i, r := range p.regrets {
		if r > 0 {
			positive[i] = r
			totalPositive += r
		}
	}
	if totalPositive <= 0 {
		return p.uniform()
	}
	for i := range positive {
		positive[i] /= totalPositive
	}
	return positive
}

func (p *RegretMatchingPlayer) UpdateRegrets(actionTaken int, payoffs []float64) {
	if len(payoffs) != p.numActions || actionTaken < 0 || actionTaken >= p.numActions {
		return
	}
	for a := range p.regrets {
		p.regrets[a] += (payoffs[a] - payoffs[actionTaken]) * p.learningRate
	}
}

// AverageStrategy is the time-averaged policy (converges for RM players).
func (p *RegretMatchingPlayer) AverageStrategy() []float64 {
	var total float64
	for _, s := range p.strategySum {
		total += s
	}
	if total <= 0 {
		return p.uniform()
	}
	out := make([]float64, p.numActions)
	for i, s := range p.strategySum {
		out[i] = s / total
	}
	return out
}

// oneHot builds a pure strategy; used as the fallback for invalid policies.
func oneHot(numActions int, rng *rand.Rand) []float64 {
	p := make([]float64, numActions)
	p[rng.Intn(numActions)] = 1.0
	return p
}
