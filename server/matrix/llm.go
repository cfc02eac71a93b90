package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/cabosanlucas/stair-llm-games/server/llm"
)

// LLMPlayer asks a chat model for a one-hot policy each round. Invalid or
// unparseable replies fall back to a random pure strategy so a confused
// model never stalls the experiment.
type LLMPlayer struct {
	base
	model  string
	useCoT bool
	rng    *rand.Rand
}

func NewLLMPlayer(name, model string, numActions int, useCoT bool, seed int64) *LLMPlayer {
	return &LLMPlayer{
		base:   base{name: name, numActions: numActions},
		model:  model,
		useCoT: useCoT,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (p *LLMPlayer) Policy(ctx context.Context, st *State) ([]float64, string, error) {
	system := "You are a strategic agent playing a repeated matrix game. Reply with JSON only."
	user := p.buildPrompt(st)

	schema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"policy": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer", "enum": []int{0, 1}},
				"description": fmt.Sprintf("One-hot vector of length %d", p.numActions),
			},
		},
		"required": []string{"policy"},
	}
	if p.useCoT {
		props := schema["properties"].(map[string]any)
		props["chain_of_thought"] = map[string]any{
			"type":        "string",
			"description": "Brief reasoning for the chosen action",
		}
		schema["required"] = []string{"policy", "chain_of_thought"}
	}

	opts := llm.PingOptions{
		StructuredSchemaName: "one_hot_policy",
		StructuredSchema:     schema,
		StructuredStrict:     true,
	}
	text, err := llm.PingTextWithOpts(ctx, p.model, system, user, opts)
	if err != nil {
		return oneHot(p.numActions, p.rng), "", err
	}

	var parsed struct {
		Policy         []float64 `json:"policy"`
		ChainOfThought string    `json:"chain_of_thought"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return oneHot(p.numActions, p.rng), "", nil
	}
	return p.validateOneHot(parsed.Policy), parsed.ChainOfThought, nil
}

// validateOneHot enforces a pure strategy of the right length; anything else
// becomes a random one-hot.
func (p *LLMPlayer) validateOneHot(policy []float64) []float64 {
	if len(policy) != p.numActions {
		return oneHot(p.numActions, p.rng)
	}
	var sum float64
	for _, v := range policy {
		if v != 0 && v != 1 {
			return oneHot(p.numActions, p.rng)
		}
		sum += v
	}
	if sum != 1 {
		return oneHot(p.numActions, p.rng)
	}
	return policy
}

func (p *LLMPlayer) buildPrompt(st *State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are playing a repeated game as player %s.\n", p.name)
	fmt.Fprintf(&b, "You have %d actions available: 0..%d.\n", p.numActions, p.numActions-1)
	fmt.Fprintf(&b, "Current round: %d of %d.\n", st.CurrentRound+1, st.NumRounds)

	if len(p.history) > 0 {
		fmt.Fprintf(&b, "\nYour history over %d rounds:\n", len(p.history))
		for i, h := range p.history {
			fmt.Fprintf(&b, "  Round %d: policy %v, reward %.2f\n", i+1, h.Policy, h.Reward)
		}
	}

	if n := len(st.RoundHistory); n > 0 {
		b.WriteString("\nGame history (last 3 rounds):\n")
		start := n - 3
		if start < 0 {
			start = 0
		}
		for _, r := range st.RoundHistory[start:] {
			fmt.Fprintf(&b, "  Round %d: actions %v, rewards %v\n", r.Round, r.Actions, r.Rewards)
		}
	}

	fmt.Fprintf(&b, "\nReply with a one-hot policy of length %d", p.numActions)
	if p.useCoT {
		b.WriteString(" and a brief chain_of_thought explaining your choice")
	}
	b.WriteString(". JSON only.")
	return b.String()
}
