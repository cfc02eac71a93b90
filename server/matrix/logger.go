package matrix

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// EventLogger persists a finished game's structured logs for analysis.
// Formats: json (full dump), csv (event rows), txt (human-readable).
type EventLogger struct {
	Path   string
	Format string // "json" | "csv" | "txt"
}

func NewEventLogger(path, format string) (*EventLogger, error) {
	switch format {
	case "json", "csv", "txt":
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
	return &EventLogger{Path: path, Format: format}, nil
}

func (l *EventLogger) Dump(st *State) error {
	switch l.Format {
	case "csv":
		return l.dumpCSV(st)
	case "txt":
		return l.dumpTxt(st)
	default:
		return l.dumpJSON(st)
	}
}

func (l *EventLogger) dumpJSON(st *State) error {
	payload := map[string]any{
		"experiment_info": map[string]any{
			"num_rounds": st.NumRounds,
			"players":    st.Players,
			"sequential": st.Sequential,
			"timestamp":  time.Now().Format(time.RFC3339),
		},
		"event_log":     st.EventLog,
		"round_history": st.RoundHistory,
	}
	f, err := os.Create(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func (l *EventLogger) dumpCSV(st *State) error {
	f, err := os.Create(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write([]string{"round", "event", "details", "status"}); err != nil {
		return err
	}
	for _, e := range st.EventLog {
		details, _ := json.Marshal(e.Details)
		if err := w.Write([]string{
			fmt.Sprint(e.Round), e.Type, string(details), string(e.Status),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (l *EventLogger) dumpTxt(st *State) error {
	f, err := os.Create(l.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	fmt.Fprintf(f, "Game Experiment Log\n===================\n\n")
	fmt.Fprintf(f, "Rounds: %d\n", st.NumRounds)
	fmt.Fprintf(f, "Players: %v\n", st.Players)
	fmt.Fprintf(f, "Status: %s\n\n", st.Status)

	fmt.Fprintln(f, "Round History:")
	for _, r := range st.RoundHistory {
		fmt.Fprintf(f, "Round %d:\n  Actions: %v\n  Rewards: %v\n\n", r.Round, r.Actions, r.Rewards)
	}
	return nil
}
