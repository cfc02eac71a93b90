package engine

import "testing"

func card(rank int, suit byte) Card { return Card{Rank: rank, Suit: suit} }

// fixed shoe helper: deal order is P1 P1 P2 P2 Dealer Dealer, then draws.
func shoeOf(cards ...Card) []Card { return cards }

func TestHandTotalAceDemotion(t *testing.T) {
	cases := []struct {
		cards []Card
		total int
		soft  bool
	}{
		{[]Card{card(14, 's'), card(9, 'd')}, 20, true},              // A9 soft 20
		{[]Card{card(14, 's'), card(9, 'd'), card(5, 'c')}, 15, false}, // ace demotes
		{[]Card{card(14, 's'), card(14, 'd')}, 12, true},             // AA = soft 12
		{[]Card{card(14, 's'), card(14, 'd'), card(14, 'c')}, 13, true},
		{[]Card{card(10, 's'), card(13, 'd')}, 20, false},
		{[]Card{card(10, 's'), card(6, 'd'), card(7, 'c')}, 23, false},
	}
	for i, c := range cases {
		total, soft := HandTotal(c.cards)
		if total != c.total || soft != c.soft {
			t.Errorf("case %d: got (%d,%v) want (%d,%v)", i, total, soft, c.total, c.soft)
		}
	}
}

func TestNewShoeDeterministic(t *testing.T) {
	a := NewShoe(42, 6)
	b := NewShoe(42, 6)
	if len(a) != 6*52 {
		t.Fatalf("shoe size = %d, want %d", len(a), 6*52)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at card %d: %s vs %s", i, a[i], b[i])
		}
	}
	c := NewShoe(43, 6)
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical shoes")
	}
}

func TestCardStringAndValue(t *testing.T) {
	if s := card(14, 's').String(); s != "As" {
		t.Fatalf("ace = %q", s)
	}
	if s := card(10, 'd').String(); s != "Td" {
		t.Fatalf("ten = %q", s)
	}
	if v := card(13, 'h').Value(); v != 10 {
		t.Fatalf("king value = %d", v)
	}
	if v := card(14, 'h').Value(); v != 11 {
		t.Fatalf("ace value = %d", v)
	}
}

func TestNaturalsAutoStand(t *testing.T) {
	// P1 gets a natural, P2 a stiff, dealer shows 9.
	shoe := shoeOf(
		card(14, 's'), card(13, 's'), // P1: As Ks
		card(10, 'd'), card(6, 'd'), // P2: Td 6d
		card(9, 'c'), card(7, 'c'), // dealer: 9c 7c
		card(5, 'h'),
	)
	r := NewRound("t1", Config{Bet: 100, NumDecks: 1}, shoe)
	if !r.SeatHand(P1).Stood {
		t.Fatal("natural should auto-stand")
	}
	if a := r.Actor(); a == nil || a.Seat != P2 {
		t.Fatalf("actor should be P2, got %v", a)
	}
}

func TestDealerPeekSettlesImmediately(t *testing.T) {
	shoe := shoeOf(
		card(10, 's'), card(9, 's'), // P1: 19
		card(8, 'd'), card(8, 'c'), // P2: 16
		card(14, 'h'), card(12, 'h'), // dealer: Ah Qh = natural
	)
	r := NewRound("t2", Config{Bet: 100, NumDecks: 1}, shoe)
	if r.Phase != PhaseSettled {
		t.Fatalf("phase = %s, want settled on dealer natural", r.Phase)
	}
	res := r.Settle()
	for _, x := range res {
		if x.Outcome != OutLoss || x.Delta != -100 {
			t.Errorf("%s: got %s %d, want loss -100", x.Seat, x.Outcome, x.Delta)
		}
	}
}

func TestNaturalPushesDealerNatural(t *testing.T) {
	shoe := shoeOf(
		card(14, 's'), card(13, 's'), // P1 natural
		card(8, 'd'), card(8, 'c'),
		card(14, 'h'), card(12, 'h'), // dealer natural
	)
	r := NewRound("t3", Config{Bet: 100, NumDecks: 1}, shoe)
	res := r.Settle()
	if res[0].Outcome != OutPush || res[0].Delta != 0 {
		t.Fatalf("P1 vs dealer natural: got %s %d, want push 0", res[0].Outcome, res[0].Delta)
	}
}

func TestLegalActions(t *testing.T) {
	shoe := shoeOf(
		card(10, 's'), card(6, 's'), // P1: 16
		card(9, 'd'), card(9, 'c'),
		card(9, 'h'), card(7, 'h'),
		card(2, 's'), card(3, 's'),
	)
	r := NewRound("t4", Config{Bet: 100, NumDecks: 1, AllowSurrender: true}, shoe)
	got := r.Legal()
	want := []ActionKind{Hit, Stand, Double, Surrender}
	if len(got) != len(want) {
		t.Fatalf("legal = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("legal = %v, want %v", got, want)
		}
	}

	// after a hit, double and surrender drop off
	if err := r.Apply(Hit); err != nil {
		t.Fatal(err)
	}
	if a := r.Actor(); a != nil && a.Seat == P1 {
		got = r.Legal()
		if len(got) != 2 || got[0] != Hit || got[1] != Stand {
			t.Fatalf("legal after hit = %v, want [hit stand]", got)
		}
	}
}

func TestApplyIllegalRejected(t *testing.T) {
	shoe := shoeOf(
		card(10, 's'), card(6, 's'),
		card(9, 'd'), card(9, 'c'),
		card(9, 'h'), card(7, 'h'),
	)
	r := NewRound("t5", Config{Bet: 100, NumDecks: 1}, shoe) // no surrender
	if err := r.Apply(Surrender); err == nil {
		t.Fatal("surrender should be illegal when not allowed")
	}
}

func TestDoubleDrawsOneCardAndDoublesBet(t *testing.T) {
	shoe := shoeOf(
		card(6, 's'), card(5, 's'), // P1: 11
		card(9, 'd'), card(9, 'c'),
		card(9, 'h'), card(7, 'h'),
		card(10, 'c'), // P1 double draw → 21
		card(4, 'c'),  // dealer draw
	)
	r := NewRound("t6", Config{Bet: 100, NumDecks: 1}, shoe)
	if err := r.Apply(Double); err != nil {
		t.Fatal(err)
	}
	h := r.SeatHand(P1)
	if h.Bet != 200 || !h.Doubled || len(h.Cards) != 3 || !h.Stood {
		t.Fatalf("after double: bet=%d doubled=%v cards=%d stood=%v", h.Bet, h.Doubled, len(h.Cards), h.Stood)
	}
}

func TestDealerS17VersusH17(t *testing.T) {
	// Dealer A6 = soft 17.
	mk := func(h17 bool) *Round {
		shoe := shoeOf(
			card(10, 's'), card(9, 's'),
			card(10, 'd'), card(9, 'd'),
			card(14, 'h'), card(6, 'h'), // dealer Ah 6h
			card(4, 'c'), // H17 draw
		)
		r := NewRound("t7", Config{Bet: 100, NumDecks: 1, HitSoft17: h17}, shoe)
		r.Apply(Stand)
		r.Apply(Stand)
		return r
	}

	s17 := mk(false)
	s17.PlayDealer()
	if n := len(s17.House.Cards); n != 2 {
		t.Fatalf("S17 dealer drew: %d cards", n)
	}

	h17 := mk(true)
	h17.PlayDealer()
	if n := len(h17.House.Cards); n != 3 {
		t.Fatalf("H17 dealer should hit soft 17, has %d cards", n)
	}
	if dt, _ := h17.House.Total(); dt != 21 {
		t.Fatalf("H17 dealer total = %d", dt)
	}
}

func TestSettlePayouts(t *testing.T) {
	// P1 natural (3:2), P2 busts; dealer ends on 20.
	shoe := shoeOf(
		card(14, 's'), card(13, 's'), // P1 natural
		card(10, 'd'), card(6, 'd'), // P2 16
		card(10, 'h'), card(10, 'c'), // dealer 20
		card(9, 'c'), // P2 hit → 25 bust
	)
	r := NewRound("t8", Config{Bet: 100, NumDecks: 1}, shoe)
	if err := r.Apply(Hit); err != nil {
		t.Fatal(err)
	}
	r.PlayDealer()
	res := r.Settle()

	by := map[Seat]Result{}
	for _, x := range res {
		by[x.Seat] = x
	}
	if x := by[P1]; x.Outcome != OutBlackjack || x.Delta != 150 {
		t.Fatalf("P1: %s %d, want blackjack +150", x.Outcome, x.Delta)
	}
	if x := by[P2]; x.Outcome != OutBust || x.Delta != -100 {
		t.Fatalf("P2: %s %d, want bust -100", x.Outcome, x.Delta)
	}
}

func TestSettleSurrenderLosesHalf(t *testing.T) {
	shoe := shoeOf(
		card(10, 's'), card(6, 's'), // P1 16
		card(10, 'd'), card(9, 'd'), // P2 19
		card(10, 'h'), card(8, 'h'), // dealer 18
	)
	r := NewRound("t9", Config{Bet: 100, NumDecks: 1, AllowSurrender: true}, shoe)
	if err := r.Apply(Surrender); err != nil {
		t.Fatal(err)
	}
	if err := r.Apply(Stand); err != nil {
		t.Fatal(err)
	}
	r.PlayDealer()
	by := map[Seat]Result{}
	for _, x := range r.Settle() {
		by[x.Seat] = x
	}
	if x := by[P1]; x.Outcome != OutSurrender || x.Delta != -50 {
		t.Fatalf("P1: %s %d, want surrender -50", x.Outcome, x.Delta)
	}
	if x := by[P2]; x.Outcome != OutWin || x.Delta != 100 {
		t.Fatalf("P2: %s %d, want win +100", x.Outcome, x.Delta)
	}
}

func TestSettleDealerBustPaysStanders(t *testing.T) {
	shoe := shoeOf(
		card(10, 's'), card(2, 's'), // P1 12
		card(10, 'd'), card(9, 'd'), // P2 19
		card(10, 'h'), card(6, 'h'), // dealer 16
		card(10, 'c'), // dealer draw → 26 bust
	)
	r := NewRound("t10", Config{Bet: 100, NumDecks: 1}, shoe)
	r.Apply(Stand)
	r.Apply(Stand)
	if busted := r.PlayDealer(); !busted {
		t.Fatal("dealer should bust")
	}
	for _, x := range r.Settle() {
		if x.Outcome != OutWin || x.Delta != 100 {
			t.Errorf("%s: %s %d, want win +100", x.Seat, x.Outcome, x.Delta)
		}
	}
}

func TestMirroredShoesDealIdentically(t *testing.T) {
	s1 := NewShoe(7, 2)
	s2 := NewShoe(7, 2)
	r1 := NewRound("m1", Config{Bet: 100, NumDecks: 2}, s1)
	r2 := NewRound("m2", Config{Bet: 100, NumDecks: 2}, s2)
	if r1.Upcard() != r2.Upcard() {
		t.Fatalf("upcards differ: %s vs %s", r1.Upcard(), r2.Upcard())
	}
	for _, seat := range []Seat{P1, P2} {
		a, b := r1.SeatHand(seat), r2.SeatHand(seat)
		for i := range a.Cards {
			if a.Cards[i] != b.Cards[i] {
				t.Fatalf("%s card %d differs", seat, i)
			}
		}
	}
}
