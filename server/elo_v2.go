package main

import "math"

// Elo holds ratings for model A and B (per *mirrored pair*).
type Elo struct {
	A, B  float64 // ratings
	K     float64 // base K
	Games int     // mirrored pairs processed (pair-mode only)
}

func NewElo(start, k float64) Elo { return Elo{A: start, B: start, K: k} }

func (e Elo) expect() (ea, eb float64) {
	ea = 1.0 / (1.0 + math.Pow(10, (e.B-e.A)/400.0))
	return ea, 1.0 - ea
}

// Pair update → returns applied deltas (dA, dB).
// chipsA = A's net chips over the mirrored pair; stakeSum = total chips
// wagered across both shoes; bet = flat bet.
func (e *Elo) UpdateFromMirror(chipsA, stakeSum, bet int) (dA, dB float64) {
	ea, eb := e.expect()

	// soft score from chip margin (normalized in bets)
	lambdaBets := 6.0
	sA := 0.5 + 0.5*math.Tanh(float64(chipsA)/(lambdaBets*float64(bet)))
	sB := 1.0 - sA

	// effective K (tempered by stake, margin, and slow anneal over pairs)
	kEff := e.K * stakeScale(stakeSum, bet) * marginScale(chipsA, bet) * decay(e.Games)

	dA = kEff * (sA - ea)
	dB = kEff * (sB - eb)

	e.A += dA
	e.B += dB
	e.Games++ // counts mirrored pairs in pair-mode

	return dA, dB
}

// Round update → returns applied deltas (dA, dB).
func (e *Elo) UpdateRound(sa, sb float64, stake, bet int, weightByStake bool) (dA, dB float64) {
	ea, eb := e.expect()
	k := e.K
	if weightByStake {
		k *= stakeScale(stake, bet)
	}
	dA = k * (sa - ea)
	dB = k * (sb - eb)
	e.A += dA
	e.B += dB
	return dA, dB
}

// ---- helpers ----

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func stakeScale(stake, bet int) float64 {
	if bet <= 0 || stake <= 0 {
		return 1.0
	}
	scale := float64(stake) / (2.0 * float64(bet)) // ~2-bet baseline (one flat bet per shoe)
	return clamp(scale, 0.5, 3.0)
}

func marginScale(chipsA, bet int) float64 {
	if bet <= 0 {
		return 1.0
	}
	m := math.Abs(float64(chipsA)) / float64(bet) // in bets
	return 1.0 + 0.35*math.Tanh(m/8.0)            // ≤ ~1.35
}

func decay(games int) float64 {
	return 1.0 / (1.0 + 0.01*float64(games)) // slow anneal over pairs
}
