package matrix

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Experiment wraps repeated execution of a game and the final log export.
type Experiment struct {
	ID        string
	moderator *Moderator
	st        *State
	logger    *EventLogger
	start     time.Time
	end       time.Time
}

func NewExperiment(m *Moderator, st *State, logger *EventLogger) *Experiment {
	return &Experiment{ID: uuid.NewString(), moderator: m, st: st, logger: logger}
}

// Results is what a completed run exports.
type Results struct {
	ExperimentID string                 `json:"experiment_id"`
	Duration     float64                `json:"duration_seconds"`
	NumRounds    int                    `json:"num_rounds"`
	Players      []string               `json:"players"`
	Stats        map[string]PlayerStats `json:"player_statistics"`
	RoundHistory []RoundRecord          `json:"round_history"`
	EventLog     []Event                `json:"event_log"`
}

// Run plays every round, exports logs, and returns the results bundle.
func (e *Experiment) Run(ctx context.Context, verbose bool) (Results, error) {
	e.start = time.Now()
	e.st.RecordEvent("experiment_start", map[string]any{
		"experiment_id": e.ID,
		"timestamp":     e.start.Format(time.RFC3339),
		"num_rounds":    e.st.NumRounds,
		"players":       e.st.Players,
	})

	if verbose {
		log.Printf("experiment %s: %d players, %d rounds (%s)",
			e.ID, len(e.st.Players), e.st.NumRounds, strings.Join(e.st.Players, " vs "))
	}

	for round := 1; round <= e.st.NumRounds; round++ {
		if err := ctx.Err(); err != nil {
			return e.results(), err
		}
		if err := e.moderator.PlayRound(ctx); err != nil {
			return e.results(), fmt.Errorf("round %d: %w", round, err)
		}
		if verbose && round%10 == 0 {
			for name, s := range e.moderator.Stats() {
				log.Printf("experiment %s round %d: %s avg_reward=%.3f", e.ID, round, name, s.AverageReward)
			}
		}
	}

	e.end = time.Now()
	e.st.Status = StatusFinished
	e.st.RecordEvent("experiment_complete", map[string]any{
		"timestamp":        e.end.Format(time.RFC3339),
		"duration_seconds": e.end.Sub(e.start).Seconds(),
		"total_rounds":     e.st.CurrentRound,
	})

	if e.logger != nil {
		if err := e.logger.Dump(e.st); err != nil {
			return e.results(), err
		}
	}
	return e.results(), nil
}

func (e *Experiment) results() Results {
	var dur float64
	if !e.end.IsZero() {
		dur = e.end.Sub(e.start).Seconds()
	}
	return Results{
		ExperimentID: e.ID,
		Duration:     dur,
		NumRounds:    e.st.NumRounds,
		Players:      e.st.Players,
		Stats:        e.moderator.Stats(),
		RoundHistory: e.st.RoundHistory,
		EventLog:     e.st.EventLog,
	}
}

// Summary renders a text report of the finished run.
func (e *Experiment) Summary() string {
	if !e.st.Finished() {
		return "experiment not yet completed"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Experiment %s\n", e.ID)
	fmt.Fprintf(&b, "Rounds: %d/%d\n", e.st.CurrentRound, e.st.NumRounds)
	fmt.Fprintf(&b, "Players: %s\n\n", strings.Join(e.st.Players, ", "))
	b.WriteString("Final results:\n")
	for _, name := range e.st.Players {
		s := e.moderator.Stats()[name]
		fmt.Fprintf(&b, "  %s: total=%.3f avg=%.3f rounds=%d\n", name, s.TotalReward, s.AverageReward, s.Rounds)
	}
	return b.String()
}
