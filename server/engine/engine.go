package engine

import "fmt"

type Config struct {
	Bet            int // flat bet posted per seat each round
	StartBank      int
	NumDecks       int
	HitSoft17      bool // dealer hits soft 17 (H17); default stands (S17)
	AllowSurrender bool // late surrender on the first decision
}

// Hand is one seat's cards and turn flags for a single round.
type Hand struct {
	Seat        Seat
	Cards       []Card
	Bet         int
	Stood       bool
	Busted      bool
	Doubled     bool
	Surrendered bool
}

// HandTotal returns the best blackjack total and whether an ace still
// counts as 11 (a "soft" total). Aces demote from 11 to 1 one at a time
// while the total exceeds 21.
func HandTotal(cards []Card) (total int, soft bool) {
	aces := 0
	for _, c := range cards {
		v := c.Value()
		if v == 11 {
			aces++
		}
		total += v
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

func (h *Hand) Total() (int, bool) { return HandTotal(h.Cards) }

// Blackjack reports a natural: 21 on the first two cards.
func (h *Hand) Blackjack() bool {
	if len(h.Cards) != 2 {
		return false
	}
	t, _ := HandTotal(h.Cards)
	return t == 21
}

// Done reports that this seat takes no more actions this round.
func (h *Hand) Done() bool { return h.Stood || h.Busted || h.Surrendered }

type Phase string

const (
	PhasePlayers Phase = "players"
	PhaseDealer  Phase = "dealer"
	PhaseSettled Phase = "settled"
)

// Round is one full deal at the table: both seats against the house.
type Round struct {
	ID      string
	Cfg     Config
	Shoe    []Card
	Seats   []*Hand // acting order
	House   *Hand   // House.Cards[0] is the upcard
	Phase   Phase
	ToAct   int // index into Seats while Phase == PhasePlayers
	History []Action
}

// NewRound posts blinds-equivalent flat bets, deals two cards per seat and
// two to the dealer, and peeks for a dealer natural when the upcard is an
// ace or a ten-value card (round settles immediately on a natural).
func NewRound(id string, cfg Config, shoe []Card) *Round {
	r := &Round{
		ID:   id,
		Cfg:  cfg,
		Shoe: shoe,
		Seats: []*Hand{
			{Seat: P1, Bet: cfg.Bet},
			{Seat: P2, Bet: cfg.Bet},
		},
		House: &Hand{Seat: Dealer},
		Phase: PhasePlayers,
	}
	for _, h := range r.Seats {
		h.Cards = []Card{r.pop(), r.pop()}
	}
	r.House.Cards = []Card{r.pop(), r.pop()}

	// Naturals never act.
	for _, h := range r.Seats {
		if h.Blackjack() {
			h.Stood = true
		}
	}
	up := r.House.Cards[0].Value()
	if (up == 11 || up == 10) && r.House.Blackjack() {
		r.Phase = PhaseSettled
		return r
	}
	r.skipDone()
	return r
}

func (r *Round) pop() Card {
	c := r.Shoe[0]
	r.Shoe = r.Shoe[1:]
	return c
}

// Upcard is the dealer's visible card.
func (r *Round) Upcard() Card { return r.House.Cards[0] }

// Actor returns the hand whose turn it is, or nil outside the player phase.
func (r *Round) Actor() *Hand {
	if r.Phase != PhasePlayers || r.ToAct >= len(r.Seats) {
		return nil
	}
	return r.Seats[r.ToAct]
}

// SeatHand looks a hand up by seat.
func (r *Round) SeatHand(s Seat) *Hand {
	for _, h := range r.Seats {
		if h.Seat == s {
			return h
		}
	}
	return nil
}

// Legal lists the actions available to the current actor. First-decision
// hands may also double (one card, doubled bet) and, when the table allows
// it, surrender.
func (r *Round) Legal() []ActionKind {
	a := r.Actor()
	if a == nil || a.Done() {
		return nil
	}
	out := []ActionKind{Hit, Stand}
	if len(a.Cards) == 2 {
		out = append(out, Double)
		if r.Cfg.AllowSurrender {
			out = append(out, Surrender)
		}
	}
	return out
}

// Apply plays one action for the current actor and advances the turn when
// the seat is finished.
func (r *Round) Apply(kind ActionKind) error {
	a := r.Actor()
	if a == nil {
		return fmt.Errorf("no actor in phase %s", r.Phase)
	}
	legal := false
	for _, k := range r.Legal() {
		if k == kind {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("illegal action %q for %s", kind, a.Seat)
	}

	switch kind {
	case Hit:
		c := r.pop()
		a.Cards = append(a.Cards, c)
		r.History = append(r.History, Action{Seat: a.Seat, Kind: Hit, Card: c.String()})
		if t, _ := a.Total(); t > 21 {
			a.Busted = true
		} else if t == 21 {
			a.Stood = true
		}
	case Stand:
		a.Stood = true
		r.History = append(r.History, Action{Seat: a.Seat, Kind: Stand})
	case Double:
		c := r.pop()
		a.Cards = append(a.Cards, c)
		a.Bet *= 2
		a.Doubled = true
		r.History = append(r.History, Action{Seat: a.Seat, Kind: Double, Card: c.String()})
		if t, _ := a.Total(); t > 21 {
			a.Busted = true
		} else {
			a.Stood = true
		}
	case Surrender:
		a.Surrendered = true
		r.History = append(r.History, Action{Seat: a.Seat, Kind: Surrender})
	}

	r.skipDone()
	return nil
}

// skipDone advances past finished seats and flips the phase once every
// seat has acted.
func (r *Round) skipDone() {
	if r.Phase != PhasePlayers {
		return
	}
	for r.ToAct < len(r.Seats) && r.Seats[r.ToAct].Done() {
		r.ToAct++
	}
	if r.ToAct >= len(r.Seats) {
		r.Phase = PhaseDealer
	}
}

// PlayDealer reveals the hole card and draws to 17. With HitSoft17 the
// dealer also hits a soft 17. Returns whether the dealer busted.
func (r *Round) PlayDealer() bool {
	if r.Phase != PhaseDealer {
		return false
	}
	for {
		t, soft := r.House.Total()
		if t > 21 {
			r.House.Busted = true
			break
		}
		if t > 17 || (t == 17 && (!soft || !r.Cfg.HitSoft17)) {
			r.House.Stood = true
			break
		}
		c := r.pop()
		r.House.Cards = append(r.House.Cards, c)
		r.History = append(r.History, Action{Seat: Dealer, Kind: Hit, Card: c.String()})
	}
	r.Phase = PhaseSettled
	return r.House.Busted
}

// Outcome labels used by Settle.
const (
	OutWin       = "win"
	OutLoss      = "loss"
	OutPush      = "push"
	OutBlackjack = "blackjack"
	OutBust      = "bust"
	OutSurrender = "surrender"
)

type Result struct {
	Seat    Seat
	Outcome string
	Delta   int // chips won (+) or lost (-)
}

// Settle computes each seat's chip delta. Naturals pay 3:2 (push against a
// dealer natural), busts and surrenders lose regardless of the dealer, the
// rest compare totals. Chips are conserved: the dealer's delta is the
// negated sum of the seats'.
func (r *Round) Settle() []Result {
	r.Phase = PhaseSettled
	dt, _ := r.House.Total()
	dealerBJ := r.House.Blackjack()
	dealerBust := dt > 21

	out := make([]Result, 0, len(r.Seats))
	for _, h := range r.Seats {
		res := Result{Seat: h.Seat}
		pt, _ := h.Total()
		switch {
		case h.Surrendered:
			res.Outcome = OutSurrender
			res.Delta = -h.Bet / 2
		case h.Busted:
			res.Outcome = OutBust
			res.Delta = -h.Bet
		case h.Blackjack() && dealerBJ:
			res.Outcome = OutPush
		case h.Blackjack():
			res.Outcome = OutBlackjack
			res.Delta = h.Bet * 3 / 2
		case dealerBJ:
			res.Outcome = OutLoss
			res.Delta = -h.Bet
		case dealerBust || pt > dt:
			res.Outcome = OutWin
			res.Delta = h.Bet
		case pt < dt:
			res.Outcome = OutLoss
			res.Delta = -h.Bet
		default:
			res.Outcome = OutPush
		}
		out = append(out, res)
	}
	return out
}

// Done reports that the round needs no further actions before Settle.
func (r *Round) Done() bool { return r.Phase == PhaseSettled }
