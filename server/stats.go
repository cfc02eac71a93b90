package main

import (
	"math"
	"math/rand"
	"sort"

	"github.com/cabosanlucas/stair-llm-games/server/engine"
)

type SeatStats struct {
	Rounds     int
	Wins       int // rounds beating the house (incl. naturals)
	Pushes     int
	Blackjacks int
	Busts      int
	Doubles    int
	Surrenders int
	NetChips   int
}

// WinRate counts a push as half a win.
func (s *SeatStats) WinRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return (float64(s.Wins) + 0.5*float64(s.Pushes)) / float64(s.Rounds)
}

func (s *SeatStats) BetsPer100(bet int) float64 {
	r := s.Rounds
	if r == 0 || bet <= 0 {
		return 0
	}
	return (float64(s.NetChips) / float64(bet)) / (float64(r) / 100.0)
}

// ModelStats splits results by acting order: P1 acts first, P2 second.
type ModelStats struct {
	Overall SeatStats
	P1      SeatStats
	P2      SeatStats
}

func (m *ModelStats) seatBucket(seat engine.Seat) *SeatStats {
	if seat == engine.P1 {
		return &m.P1
	}
	return &m.P2
}
func (m *ModelStats) addRound(seat engine.Seat) {
	m.Overall.Rounds++
	m.seatBucket(seat).Rounds++
}
func (m *ModelStats) addNet(seat engine.Seat, delta int) {
	m.Overall.NetChips += delta
	m.seatBucket(seat).NetChips += delta
}

func (m *ModelStats) addOutcome(seat engine.Seat, outcome string) {
	o := &m.Overall
	b := m.seatBucket(seat)
	switch outcome {
	case engine.OutWin:
		o.Wins++
		b.Wins++
	case engine.OutBlackjack:
		o.Wins++
		b.Wins++
		o.Blackjacks++
		b.Blackjacks++
	case engine.OutPush:
		o.Pushes++
		b.Pushes++
	case engine.OutBust:
		o.Busts++
		b.Busts++
	case engine.OutSurrender:
		o.Surrenders++
		b.Surrenders++
	}
}

// --------- CI helpers (for your paper/plots) ---------

// WilsonCI95 for Bernoulli win rate using wins/ties/total over mirrored pairs.
func WilsonCI95(wins, ties, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(ties)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// BootstrapCI95 for the mean of values (e.g., normalized chip margins).
func BootstrapCI95(vals []float64, B int) (low, hi float64) {
	n := len(vals)
	if n == 0 || B <= 1 {
		return 0, 0
	}
	res := make([]float64, B)
	for b := 0; b < B; b++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += vals[rand.Intn(n)]
		}
		res[b] = sum / float64(n)
	}
	sort.Float64s(res)
	l := int(0.025 * float64(B-1))
	h := int(0.975 * float64(B-1))
	return res[l], res[h]
}
