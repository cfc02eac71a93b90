package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cabosanlucas/stair-llm-games/server/matrix"
)

// runArena plays repeated matrix-game experiments, optionally several in
// parallel, and dumps one structured log file per experiment.
//
// Env:
//
//	ARENA_GAME      pd | chicken | coord        (default pd)
//	ARENA_ROUNDS    rounds per experiment       (default 50)
//	ARENA_GAMES     number of experiments       (default 1)
//	ARENA_PARALLEL  concurrent experiments      (default 4)
//	ARENA_PLAYER_A  llm|random|tit_for_tat|regret (default regret)
//	ARENA_PLAYER_B  same                        (default regret)
//	ARENA_MODEL_A   model for llm player A      (falls back to OPENAI_MODEL_A)
//	ARENA_MODEL_B   model for llm player B      (falls back to OPENAI_MODEL_B)
//	ARENA_COT       request chain-of-thought from llm players
//	ARENA_OUT_DIR   log directory               (default ./logs)
//	ARENA_FORMAT    json | csv | txt            (default json)
func runArena(ctx context.Context, checkStop func(bool) bool) {
	section("ARENA")

	gameName := strings.ToLower(getenv("ARENA_GAME", "pd"))
	rounds := atoiDef(os.Getenv("ARENA_ROUNDS"), 50)
	games := atoiDef(os.Getenv("ARENA_GAMES"), 1)
	parallel := atoiDef(os.Getenv("ARENA_PARALLEL"), 4)
	outDir := getenv("ARENA_OUT_DIR", "logs")
	format := strings.ToLower(getenv("ARENA_FORMAT", "json"))
	useCoT := asBool(os.Getenv("ARENA_COT"))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("cannot create %s: %v", outDir, err)
	}

	sm := newSeedStream(secureBaseSeed())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for i := 0; i < games; i++ {
		idx := i + 1
		seedA := int64(sm.next())
		seedB := int64(sm.next())
		modSeed := int64(sm.next())

		g.Go(func() error {
			if checkStop(false) {
				return nil
			}
			game, err := buildArenaGame(gameName)
			if err != nil {
				return err
			}

			pa, err := buildArenaPlayer(getenv("ARENA_PLAYER_A", "regret"),
				"player_a", getenv("ARENA_MODEL_A", os.Getenv("OPENAI_MODEL_A")),
				game.NumActions(), useCoT, seedA)
			if err != nil {
				return fmt.Errorf("experiment %d player A: %w", idx, err)
			}
			pb, err := buildArenaPlayer(getenv("ARENA_PLAYER_B", "regret"),
				"player_b", getenv("ARENA_MODEL_B", os.Getenv("OPENAI_MODEL_B")),
				game.NumActions(), useCoT, seedB)
			if err != nil {
				return fmt.Errorf("experiment %d player B: %w", idx, err)
			}

			st := matrix.NewState(rounds, []string{pa.Name(), pb.Name()}, false)
			mod, err := matrix.NewModerator(game, []matrix.Player{pa, pb}, st, modSeed)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", idx, err)
			}

			logPath := filepath.Join(outDir, fmt.Sprintf("%s_%s_%d.%s",
				gameName, time.Now().Format("20060102_150405"), idx, format))
			logger, err := matrix.NewEventLogger(logPath, format)
			if err != nil {
				return err
			}

			exp := matrix.NewExperiment(mod, st, logger)
			res, err := exp.Run(gctx, true)
			if err != nil {
				return fmt.Errorf("experiment %d: %w", idx, err)
			}

			fmt.Printf("\n%s experiment %d/%d (%s, %d rounds) → %s\n",
				good("✓"), idx, games, game.Name(), res.NumRounds, dim(logPath))
			fmt.Print(exp.Summary())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("arena failed: %v", err)
	}
	fmt.Printf("\n%s %d experiment(s) complete, logs in %s\n", bold("ARENA →"), games, outDir)
}

func buildArenaGame(name string) (matrix.Game, error) {
	switch name {
	case "pd", "prisoners_dilemma":
		return matrix.NewPrisonersDilemma(5, 3, 1, 0), nil
	case "chicken":
		return matrix.NewChicken(2, 10), nil
	case "coord", "coordination":
		return matrix.NewCoordination4(), nil
	default:
		return nil, fmt.Errorf("unknown arena game %q (want pd, chicken, or coord)", name)
	}
}

func buildArenaPlayer(kind, name, model string, numActions int, useCoT bool, seed int64) (matrix.Player, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "random":
		return matrix.NewRandomPlayer(name, numActions), nil
	case "tit_for_tat", "tft":
		return matrix.NewTitForTatPlayer(name, numActions, 0), nil
	case "regret", "regret_matching":
		return matrix.NewRegretMatchingPlayer(name, numActions, 1.0), nil
	case "llm":
		if strings.TrimSpace(model) == "" {
			return nil, fmt.Errorf("llm player %s needs a model (ARENA_MODEL_* or OPENAI_MODEL_*)", name)
		}
		return matrix.NewLLMPlayer(name, model, numActions, useCoT, seed), nil
	default:
		return nil, fmt.Errorf("unknown player kind %q", kind)
	}
}
