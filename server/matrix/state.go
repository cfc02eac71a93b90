package matrix

type Status string

const (
	StatusInitialized Status = "initialized"
	StatusRunning     Status = "running"
	StatusFinished    Status = "finished"
)

// RoundRecord is the complete outcome of one round.
type RoundRecord struct {
	Round    int                  `json:"round"`
	Actions  map[string]int       `json:"actions"`
	Rewards  map[string]float64   `json:"rewards"`
	Policies map[string][]float64 `json:"policies"`
	Thoughts map[string]string    `json:"chain_of_thought,omitempty"`
}

// Event is one structured entry in the audit log.
type Event struct {
	Round   int            `json:"round"`
	Type    string         `json:"event"`
	Details map[string]any `json:"details"`
	Status  Status         `json:"status"`
}

// State tracks rounds, history, and the event log across a repeated game.
type State struct {
	CurrentRound int
	NumRounds    int
	Players      []string
	Sequential   bool
	RoundHistory []RoundRecord
	EventLog     []Event
	Status       Status
}

func NewState(numRounds int, players []string, sequential bool) *State {
	return &State{
		NumRounds:  numRounds,
		Players:    players,
		Sequential: sequential,
		Status:     StatusInitialized,
	}
}

// RecordEvent logs a structured event for audit and analysis.
func (s *State) RecordEvent(eventType string, details map[string]any) {
	s.EventLog = append(s.EventLog, Event{
		Round:   s.CurrentRound,
		Type:    eventType,
		Details: details,
		Status:  s.Status,
	})
}

// EventsByType filters the log.
func (s *State) EventsByType(eventType string) []Event {
	var out []Event
	for _, e := range s.EventLog {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (s *State) Finished() bool { return s.CurrentRound >= s.NumRounds }
