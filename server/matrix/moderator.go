package matrix

import (
	"context"
	"fmt"
	"math/rand"
)

// Moderator orchestrates one round at a time: collect policies, sample
// actions, pay out, and feed results back to the players.
type Moderator struct {
	game    Game
	players []Player
	st      *State
	rng     *rand.Rand
}

func NewModerator(game Game, players []Player, st *State, seed int64) (*Moderator, error) {
	if len(players) != game.NumPlayers() {
		return nil, fmt.Errorf("game %s needs %d players, got %d", game.Name(), game.NumPlayers(), len(players))
	}
	for _, p := range players {
		if p.NumActions() != game.NumActions() {
			return nil, fmt.Errorf("player %s has %d actions, game requires %d", p.Name(), p.NumActions(), game.NumActions())
		}
	}
	return &Moderator{
		game:    game,
		players: players,
		st:      st,
		rng:     rand.New(rand.NewSource(seed)),
	}, nil
}

// PlayRound executes one full round.
func (m *Moderator) PlayRound(ctx context.Context) error {
	m.st.CurrentRound++
	m.st.Status = StatusRunning
	m.st.RecordEvent("round_start", map[string]any{"round": m.st.CurrentRound})

	// Collect policies (and rationales) from every player.
	policies := make(map[string][]float64, len(m.players))
	thoughts := make(map[string]string, len(m.players))
	for _, p := range m.players {
		policy, thought, err := p.Policy(ctx, m.st)
		if err != nil {
			// The player already substituted a fallback policy; log and go on.
			m.st.RecordEvent("policy_error", map[string]any{"player": p.Name(), "error": err.Error()})
		}
		policies[p.Name()] = normalize(policy, m.game.NumActions())
		thoughts[p.Name()] = thought
		m.st.RecordEvent("policy_selected", map[string]any{
			"player":           p.Name(),
			"policy":           policies[p.Name()],
			"chain_of_thought": thought,
		})
	}

	// Sample actions from the policies.
	actions := make(map[string]int, len(m.players))
	for _, p := range m.players {
		a := m.sample(policies[p.Name()])
		actions[p.Name()] = a
		m.st.RecordEvent("action_sampled", map[string]any{
			"player": p.Name(),
			"policy": policies[p.Name()],
			"action": a,
		})
	}

	// Compute payoffs in player order.
	actionList := make([]int, len(m.players))
	for i, name := range m.st.Players {
		actionList[i] = actions[name]
	}
	payoffs, err := m.game.Payoffs(actionList)
	if err != nil {
		return err
	}
	rewards := make(map[string]float64, len(m.players))
	for i, name := range m.st.Players {
		rewards[name] = payoffs[i]
	}
	m.st.RecordEvent("payoffs_computed", map[string]any{"actions": actions, "rewards": rewards})

	// Feed results back.
	for _, p := range m.players {
		p.Observe(policies[p.Name()], rewards[p.Name()])
	}

	rec := RoundRecord{
		Round:    m.st.CurrentRound,
		Actions:  actions,
		Rewards:  rewards,
		Policies: policies,
		Thoughts: thoughts,
	}
	m.st.RoundHistory = append(m.st.RoundHistory, rec)
	m.st.RecordEvent("round_end", map[string]any{"actions": actions, "rewards": rewards})

	// Counterfactual payoffs for regret learners: hold the opponents fixed
	// and replay every own action.
	for i, p := range m.players {
		ru, ok := p.(RegretUpdater)
		if !ok {
			continue
		}
		cf := make([]float64, m.game.NumActions())
		for a := 0; a < m.game.NumActions(); a++ {
			alt := make([]int, len(actionList))
			copy(alt, actionList)
			alt[indexOf(m.st.Players, m.players[i].Name())] = a
			pay, err := m.game.Payoffs(alt)
			if err != nil {
				return err
			}
			cf[a] = pay[indexOf(m.st.Players, m.players[i].Name())]
		}
		ru.UpdateRegrets(actions[p.Name()], cf)
	}
	return nil
}

func (m *Moderator) sample(policy []float64) int {
	r := m.rng.Float64()
	var cum float64
	for i, p := range policy {
		cum += p
		if r < cum {
			return i
		}
	}
	return len(policy) - 1
}

// PlayerStats summarizes each player at any point in the run.
type PlayerStats struct {
	TotalReward   float64   `json:"total_reward"`
	AverageReward float64   `json:"average_reward"`
	Rounds        int       `json:"num_rounds"`
	LastPolicy    []float64 `json:"last_policy"`
	AvgStrategy   []float64 `json:"average_strategy,omitempty"`
}

func (m *Moderator) Stats() map[string]PlayerStats {
	out := make(map[string]PlayerStats, len(m.players))
	for _, p := range m.players {
		s := PlayerStats{
			TotalReward: p.TotalReward(),
			Rounds:      len(p.History()),
		}
		if s.Rounds > 0 {
			s.AverageReward = s.TotalReward / float64(s.Rounds)
			s.LastPolicy = p.History()[s.Rounds-1].Policy
		}
		if rm, ok := p.(*RegretMatchingPlayer); ok {
			s.AvgStrategy = rm.AverageStrategy()
		}
		out[p.Name()] = s
	}
	return out
}

func normalize(policy []float64, n int) []float64 {
	if len(policy) != n {
		out := make([]float64, n)
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}
	var total float64
	for _, p := range policy {
		if p > 0 {
			total += p
		}
	}
	out := make([]float64, n)
	if total <= 0 {
		for i := range out {
			out[i] = 1.0 / float64(n)
		}
		return out
	}
	for i, p := range policy {
		if p > 0 {
			out[i] = p / total
		}
	}
	return out
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return 0
}
