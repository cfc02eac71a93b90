package main

import (
	"math"
	"testing"
)

func TestEloMirrorWinnerGains(t *testing.T) {
	e := NewElo(1500, 24)
	dA, dB := e.UpdateFromMirror(600, 400, 100) // A up 6 bets
	if dA <= 0 || dB >= 0 {
		t.Fatalf("deltas: dA=%.2f dB=%.2f", dA, dB)
	}
	if math.Abs(dA+dB) > 1e-9 {
		t.Fatalf("pair update not zero-sum: %.6f", dA+dB)
	}
	if e.A <= 1500 || e.B >= 1500 {
		t.Fatalf("ratings: A=%.2f B=%.2f", e.A, e.B)
	}
	if e.Games != 1 {
		t.Fatalf("games = %d", e.Games)
	}
}

func TestEloMirrorTieMovesNothingAtEqualRatings(t *testing.T) {
	e := NewElo(1500, 24)
	dA, dB := e.UpdateFromMirror(0, 400, 100)
	if math.Abs(dA) > 1e-9 || math.Abs(dB) > 1e-9 {
		t.Fatalf("tie between equals moved ratings: dA=%.4f dB=%.4f", dA, dB)
	}
}

func TestEloFavoriteGainsLessFromWin(t *testing.T) {
	fav := NewElo(1700, 24)
	fav.B = 1300
	dog := NewElo(1300, 24)
	dog.B = 1700

	dFav, _ := fav.UpdateFromMirror(600, 400, 100) // strong player beats weak
	dDog, _ := dog.UpdateFromMirror(600, 400, 100) // weak player beats strong
	if dFav >= dDog {
		t.Fatalf("favorite gain %.2f should be less than underdog gain %.2f", dFav, dDog)
	}
}

func TestEloDecayOverPairs(t *testing.T) {
	e := NewElo(1500, 24)
	first, _ := e.UpdateFromMirror(600, 400, 100)
	// reset ratings so expectations are equal again; only Games advanced
	e.A, e.B = 1500, 1500
	for i := 0; i < 50; i++ {
		e.Games++
	}
	later, _ := e.UpdateFromMirror(600, 400, 100)
	if later >= first {
		t.Fatalf("K should anneal: first=%.3f later=%.3f", first, later)
	}
}

func TestStakeScaleBounds(t *testing.T) {
	if s := stakeScale(0, 100); s != 1.0 {
		t.Fatalf("zero stake: %.2f", s)
	}
	if s := stakeScale(10, 100); s != 0.5 {
		t.Fatalf("tiny stake should clamp low: %.2f", s)
	}
	if s := stakeScale(100000, 100); s != 3.0 {
		t.Fatalf("huge stake should clamp high: %.2f", s)
	}
	if s := stakeScale(200, 100); math.Abs(s-1.0) > 1e-9 {
		t.Fatalf("two-bet baseline should be 1.0: %.2f", s)
	}
}

func TestClamp(t *testing.T) {
	if clamp(5, 0, 1) != 1 || clamp(-5, 0, 1) != 0 || clamp(0.3, 0, 1) != 0.3 {
		t.Fatal("clamp misbehaves")
	}
}

func TestUpdateRoundWeighting(t *testing.T) {
	plain := NewElo(1500, 24)
	weighted := NewElo(1500, 24)
	dP, _ := plain.UpdateRound(1, 0, 800, 100, false)
	dW, _ := weighted.UpdateRound(1, 0, 800, 100, true)
	if dW <= dP {
		t.Fatalf("stake-weighted win should move more: plain=%.2f weighted=%.2f", dP, dW)
	}
}
