package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// NewShoe builds a shuffled shoe of numDecks standard decks.
// Seed 0 means "use the clock"; any other seed reproduces the same order.
func NewShoe(seed int64, numDecks int) []Card {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if numDecks < 1 {
		numDecks = 1
	}
	r := rand.New(rand.NewSource(seed))
	var shoe []Card
	for d := 0; d < numDecks; d++ {
		for s := 0; s < 4; s++ {
			for rnk := 2; rnk <= 14; rnk++ {
				shoe = append(shoe, Card{Rank: rnk, Suit: "cdhs"[s]})
			}
		}
	}
	for i := len(shoe) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shoe[i], shoe[j] = shoe[j], shoe[i]
	}
	return shoe
}

func (c Card) String() string {
	ranks := "  23456789TJQKA"
	return fmt.Sprintf("%c%c", ranks[c.Rank], c.Suit)
}

// Value returns the blackjack card value with aces counted high (11).
func (c Card) Value() int {
	switch {
	case c.Rank == 14:
		return 11
	case c.Rank >= 10:
		return 10
	default:
		return c.Rank
	}
}
