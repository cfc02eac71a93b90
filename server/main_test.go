package main

import (
	"testing"

	"github.com/cabosanlucas/stair-llm-games/server/engine"
)

var allActions = []string{"hit", "stand", "double", "surrender"}

func TestExtractJSONObject(t *testing.T) {
	cases := map[string]string{
		`{"action":"hit"}`:                          `{"action":"hit"}`,
		"```json\n{\"action\":\"stand\"}\n```":      `{"action":"stand"}`,
		"Sure! Here you go: {\"action\":\"hit\"} .": `{"action":"hit"}`,
		"no json here":                              "",
	}
	for in, want := range cases {
		if got := extractJSONObject(in); got != want {
			t.Errorf("extractJSONObject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCoerceMoveSynonyms(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"hit", "hit", true},
		{"draw", "hit", true},
		{"stay", "stand", true},
		{"hold", "stand", true},
		{"double down", "double", true},
		{"fold", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := coerceMove(map[string]any{"action": c.in}, allActions)
		if ok != c.ok || got != c.want {
			t.Errorf("coerceMove(%q) = (%q,%v), want (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
	// synonyms still must be legal in context
	if _, ok := coerceMove(map[string]any{"action": "double"}, []string{"hit", "stand"}); ok {
		t.Error("double accepted despite not being legal")
	}
}

func TestParseYAMLishMove(t *testing.T) {
	act, ok := parseYAMLishMove("action: stand\ncomment: playing safe", allActions)
	if !ok || act != "stand" {
		t.Fatalf("got (%q,%v)", act, ok)
	}
	act, ok = parseYAMLishMove("action: \"draw\"", allActions)
	if !ok || act != "hit" {
		t.Fatalf("quoted synonym: (%q,%v)", act, ok)
	}
	if _, ok := parseYAMLishMove("comment: nothing to see", allActions); ok {
		t.Fatal("no action key should fail")
	}
}

func TestParseNLMovePriorities(t *testing.T) {
	// prose that rejects alternatives must still land on the stated choice
	act, ok := parseNLMove("I could hit or stand here, but I will surrender.", allActions)
	if !ok || act != "surrender" {
		t.Fatalf("got (%q,%v)", act, ok)
	}
	act, ok = parseNLMove("Doubling beats hitting in this spot.", allActions)
	if !ok || act != "double" {
		t.Fatalf("got (%q,%v)", act, ok)
	}
	act, ok = parseNLMove("I stand.", []string{"hit", "stand"})
	if !ok || act != "stand" {
		t.Fatalf("got (%q,%v)", act, ok)
	}
	if _, ok := parseNLMove("flip a coin", allActions); ok {
		t.Fatal("gibberish should fail")
	}
}

func TestFallbackMove(t *testing.T) {
	if m := fallbackMove(allActions, 19, false, 10); m != "stand" {
		t.Fatalf("hard 19: %q", m)
	}
	if m := fallbackMove(allActions, 8, false, 6); m != "hit" {
		t.Fatalf("hard 8: %q", m)
	}
	if m := fallbackMove(allActions, 14, false, 10); m != "hit" {
		t.Fatalf("14 v T: %q", m)
	}
	if m := fallbackMove(allActions, 14, false, 5); m != "stand" {
		t.Fatalf("14 v 5: %q", m)
	}
	if m := fallbackMove([]string{"hit", "stand"}, 19, false, 10); m != "stand" {
		t.Fatalf("restricted legal: %q", m)
	}
}

func TestSeedStreamDeterministic(t *testing.T) {
	a := newSeedStream(12345)
	b := newSeedStream(12345)
	for i := 0; i < 10; i++ {
		if a.next() != b.next() {
			t.Fatalf("streams diverged at step %d", i)
		}
	}
	c := newSeedStream(12346)
	if x, y := a.next(), c.next(); x == y {
		t.Fatal("different bases produced identical values")
	}
}

func TestDescribeHand(t *testing.T) {
	cards := func(rs ...int) []engine.Card {
		out := make([]engine.Card, len(rs))
		for i, r := range rs {
			out[i] = engine.Card{Rank: r, Suit: 's'}
			if i%2 == 1 {
				out[i].Suit = 'd'
			}
		}
		return out
	}
	if d := describeHand(cards(14, 13)); d != "blackjack" {
		t.Fatalf("AK: %q", d)
	}
	if d := describeHand(cards(8, 8)); d != "pair, 16" {
		t.Fatalf("88: %q", d)
	}
	if d := describeHand(cards(14, 6)); d != "soft 17" {
		t.Fatalf("A6: %q", d)
	}
	if d := describeHand(cards(10, 6)); d != "hard 16" {
		t.Fatalf("T6: %q", d)
	}
}

func TestRoundScore(t *testing.T) {
	if sa, sb := roundScore(100, -100); sa != 1 || sb != 0 {
		t.Fatal("A ahead should score 1-0")
	}
	if sa, sb := roundScore(-100, 100); sa != 0 || sb != 1 {
		t.Fatal("B ahead should score 0-1")
	}
	if sa, sb := roundScore(0, 0); sa != 0.5 || sb != 0.5 {
		t.Fatal("tie should split")
	}
}

func TestNetOf(t *testing.T) {
	res := []engine.Result{
		{Seat: engine.P1, Outcome: engine.OutWin, Delta: 100},
		{Seat: engine.P2, Outcome: engine.OutBust, Delta: -100},
	}
	if d, o := netOf(res, engine.P2); d != -100 || o != engine.OutBust {
		t.Fatalf("P2: %d %q", d, o)
	}
	if d, o := netOf(res, engine.Dealer); d != 0 || o != "" {
		t.Fatalf("missing seat: %d %q", d, o)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_TEST_KEY", "hello")
	if getenv("X_TEST_KEY", "def") != "hello" {
		t.Fatal("getenv set")
	}
	if getenv("X_TEST_MISSING", "def") != "def" {
		t.Fatal("getenv default")
	}
	if atoiDef("41", 0) != 41 || atoiDef("", 7) != 7 || atoiDef("nope", 7) != 7 {
		t.Fatal("atoiDef")
	}
	for _, v := range []string{"1", "true", "YES", "On", "y"} {
		if !asBool(v) {
			t.Fatalf("asBool(%q) should be true", v)
		}
	}
	for _, v := range []string{"", "0", "false", "off", "maybe"} {
		if asBool(v) {
			t.Fatalf("asBool(%q) should be false", v)
		}
	}
}

func TestCompanyForModelOpenRouter(t *testing.T) {
	t.Setenv("LLM_COMPANY", "")
	t.Setenv("OPENAI_API_BASE", "https://openrouter.ai/api/v1")
	t.Setenv("OPENAI_BASE_URL", "")
	cases := map[string]string{
		"openai/gpt-5-mini":       "OpenAI",
		"anthropic/claude-sonnet": "Anthropic",
		"deepseek/deepseek-chat":  "DeepSeek",
		"mistral/mistral-large":   "Mistral",
		"bare-model":              "Model",
	}
	for model, want := range cases {
		if got := companyForModel(model); got != want {
			t.Errorf("companyForModel(%q) = %q, want %q", model, got, want)
		}
	}
	t.Setenv("OPENAI_API_BASE", "")
	if got := companyForModel("gpt-5-mini"); got != "OpenAI" {
		t.Errorf("default base: %q", got)
	}
}
