package main

import (
	"math"
	"testing"
)

func TestGlicko2Defaults(t *testing.T) {
	g := NewGlicko2()
	if g.Rating != 1500 || g.RD != 350 || g.Volatility != 0.06 {
		t.Fatalf("defaults: %+v", g)
	}
}

func TestGlicko2WinRaisesRatingAndShrinksRD(t *testing.T) {
	a := NewGlicko2()
	b := NewGlicko2()
	before := a.RD
	a.UpdatePair(b, 1.0, 0.5)
	if a.Rating <= 1500 {
		t.Fatalf("winner rating = %.2f", a.Rating)
	}
	if a.RD >= before {
		t.Fatalf("RD should shrink after a game: %.2f -> %.2f", before, a.RD)
	}
	if a.Games != 1 {
		t.Fatalf("games = %d", a.Games)
	}
}

func TestGlicko2PairSymmetry(t *testing.T) {
	a := NewGlicko2()
	b := NewGlicko2()
	oldA := a.Copy()
	oldB := b.Copy()
	a.UpdatePair(oldB, 1.0, 0.5)
	b.UpdatePair(oldA, 0.0, 0.5)
	if math.Abs((a.Rating-1500)+(b.Rating-1500)) > 1.0 {
		t.Fatalf("equal-rated pair should move near-symmetrically: A=%.2f B=%.2f", a.Rating, b.Rating)
	}
}

func TestGlicko2TieBetweenEquals(t *testing.T) {
	a := NewGlicko2()
	b := NewGlicko2()
	a.UpdatePair(b, 0.5, 0.5)
	if math.Abs(a.Rating-1500) > 1e-6 {
		t.Fatalf("tie between equals moved rating to %.4f", a.Rating)
	}
}

func TestGlicko2AgeGrowsRD(t *testing.T) {
	a := NewGlicko2With(1600, 80, 0.06)
	a.Age()
	if a.RD <= 80 {
		t.Fatalf("aging should grow RD: %.2f", a.RD)
	}
	if a.Rating != 1600 {
		t.Fatalf("aging must not change the rating: %.2f", a.Rating)
	}
}

func TestScoreMappings(t *testing.T) {
	if ScoreFromWL(true, false) != 1 || ScoreFromWL(false, false) != 0 || ScoreFromWL(false, true) != 0.5 {
		t.Fatal("ScoreFromWL misbehaves")
	}
	if s := ScoreFromMargin(0, 10000, 1.0); s != 0.5 {
		t.Fatalf("zero margin: %.3f", s)
	}
	if s := ScoreFromMargin(5000, 10000, 1.0); s <= 0.5 || s > 1.0 {
		t.Fatalf("positive margin: %.3f", s)
	}
	if s := ScoreFromMargin(100, 0, 1.0); s != 0.5 {
		t.Fatalf("degenerate bank: %.3f", s)
	}
}
