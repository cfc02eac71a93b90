package agent

import (
	"testing"

	"github.com/cabosanlucas/stair-llm-games/server/engine"
)

func fixedShoe() []engine.Card {
	return []engine.Card{
		{Rank: 10, Suit: 's'}, {Rank: 6, Suit: 's'}, // P1: Ts 6s
		{Rank: 14, Suit: 'd'}, {Rank: 7, Suit: 'd'}, // P2: Ad 7d
		{Rank: 9, Suit: 'h'}, {Rank: 5, Suit: 'h'}, // dealer: 9h 5h
		{Rank: 2, Suit: 'c'},
	}
}

func TestBuildObservation(t *testing.T) {
	r := engine.NewRound("obs-1", engine.Config{Bet: 100, NumDecks: 1, AllowSurrender: true}, fixedShoe())

	o := BuildObservation(r, engine.P1, 9900)
	if o.RoundID != "obs-1" || o.Seat != "P1" {
		t.Fatalf("identity: %+v", o)
	}
	if len(o.Hand) != 2 || o.Hand[0] != "Ts" || o.Hand[1] != "6s" {
		t.Fatalf("hand: %v", o.Hand)
	}
	if o.Total != 16 || o.Soft {
		t.Fatalf("total=%d soft=%v, want hard 16", o.Total, o.Soft)
	}
	if o.DealerUp != "9h" {
		t.Fatalf("dealer up = %q", o.DealerUp)
	}
	if o.Bet != 100 || o.Bank != 9900 {
		t.Fatalf("bet=%d bank=%d", o.Bet, o.Bank)
	}
	if o.CardsSeen != 6 {
		t.Fatalf("cards seen = %d", o.CardsSeen)
	}
	want := []string{"hit", "stand", "double", "surrender"}
	if len(o.Legal) != len(want) {
		t.Fatalf("legal = %v", o.Legal)
	}
	for i := range want {
		if o.Legal[i] != want[i] {
			t.Fatalf("legal = %v, want %v", o.Legal, want)
		}
	}
}

func TestBuildObservationSoftHand(t *testing.T) {
	r := engine.NewRound("obs-2", engine.Config{Bet: 50, NumDecks: 1}, fixedShoe())
	o := BuildObservation(r, engine.P2, 10000)
	if o.Total != 18 || !o.Soft {
		t.Fatalf("A7 should be soft 18, got total=%d soft=%v", o.Total, o.Soft)
	}
}

func TestValidateRejectsIllegal(t *testing.T) {
	o := Observation{Legal: []string{"hit", "stand"}}
	if err := Validate(o, ActionOut{Action: "double"}); err == nil {
		t.Fatal("double should be rejected")
	}
	if err := Validate(o, ActionOut{Action: "stand"}); err != nil {
		t.Fatalf("stand should pass: %v", err)
	}
}
