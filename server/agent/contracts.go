package agent

import (
	"encoding/json"
	"fmt"

	"github.com/cabosanlucas/stair-llm-games/server/engine"
)

type Observation struct {
	RoundID    string   `json:"round_id"`
	Seat       string   `json:"seat"` // "P1" | "P2"
	Hand       []string `json:"hand"` // e.g. ["As","Kd"]
	Total      int      `json:"total"`
	Soft       bool     `json:"soft"`          // an ace still counts as 11
	DealerUp   string   `json:"dealer_upcard"` // one visible card
	Bet        int      `json:"bet"`
	Bank       int      `json:"bank"`          // chips behind, before this round's bet
	Legal      []string `json:"legal_actions"` // subset of hit/stand/double/surrender
	CardsSeen  int      `json:"cards_seen"`    // cards dealt so far this round
	HistoryLen int      `json:"history_len"`
}

type ActionOut struct {
	Action  string `json:"action"`            // hit|stand|double|surrender
	Comment string `json:"comment,omitempty"` // <=120 chars
}

// BuildObservation converts round state into the JSON we send the model.
func BuildObservation(r *engine.Round, seat engine.Seat, bank int) Observation {
	h := r.SeatHand(seat)
	total, soft := h.Total()

	legal := []string{}
	for _, k := range r.Legal() {
		legal = append(legal, string(k))
	}

	seen := len(r.House.Cards)
	for _, s := range r.Seats {
		seen += len(s.Cards)
	}

	return Observation{
		RoundID:    r.ID,
		Seat:       string(seat),
		Hand:       cardsToStr(h.Cards),
		Total:      total,
		Soft:       soft,
		DealerUp:   r.Upcard().String(),
		Bet:        h.Bet,
		Bank:       bank,
		Legal:      legal,
		CardsSeen:  seen,
		HistoryLen: len(r.History),
	}
}

func cardsToStr(cs []engine.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}

// Validate the model's action against the observation.
func Validate(o Observation, a ActionOut) error {
	ok := false
	for _, la := range o.Legal {
		if la == a.Action {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("illegal action %q (legals: %v)", a.Action, o.Legal)
	}
	// comment length (soft)
	if len(a.Comment) > 120 {
		a.Comment = a.Comment[:120]
	}
	_, _ = json.Marshal(a) // sanity
	return nil
}
