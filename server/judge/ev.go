package judge

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cabosanlucas/stair-llm-games/server/store"
)

// Dealer outcome buckets: final totals 17..21, then bust.
const (
	out17 = iota
	out18
	out19
	out20
	out21
	outBust
	outCount
)

// Rank probabilities for an infinite shoe: 2..9 and ace at 1/13 each,
// ten-value at 4/13.
var cardProbs = func() map[int]float64 {
	p := map[int]float64{}
	for v := 2; v <= 9; v++ {
		p[v] = 1.0 / 13.0
	}
	p[10] = 4.0 / 13.0
	p[11] = 1.0 / 13.0
	return p
}()

type dealerKey struct {
	total int
	soft  bool
}

type handKey struct {
	total int
	soft  bool
	up    int
}

// Evaluator computes exact expected values (in bet units) against an
// infinite shoe. The dealer's hole card is conditioned on the peek: with an
// ace or ten up, a completing hole card is excluded.
type Evaluator struct {
	hitSoft17  bool
	dealerMemo map[dealerKey][outCount]float64
	distByUp   map[int][outCount]float64
	hitMemo    map[handKey]float64
}

func NewEvaluator(hitSoft17 bool) *Evaluator {
	return &Evaluator{
		hitSoft17:  hitSoft17,
		dealerMemo: map[dealerKey][outCount]float64{},
		distByUp:   map[int][outCount]float64{},
		hitMemo:    map[handKey]float64{},
	}
}

// DealerDist returns the dealer's final-total distribution for an upcard
// value (2..11), post-peek.
func (e *Evaluator) DealerDist(up int) [outCount]float64 {
	if d, ok := e.distByUp[up]; ok {
		return d
	}
	var dist [outCount]float64
	var denom float64
	for v, p := range cardProbs {
		// Peek already ruled out a natural.
		if up == 11 && v == 10 {
			continue
		}
		if up == 10 && v == 11 {
			continue
		}
		total, soft := addCard(up, up == 11, v)
		sub := e.dealerPlay(total, soft)
		for i := range sub {
			dist[i] += p * sub[i]
		}
		denom += p
	}
	if denom > 0 {
		for i := range dist {
			dist[i] /= denom
		}
	}
	e.distByUp[up] = dist
	return dist
}

func (e *Evaluator) dealerPlay(total int, soft bool) [outCount]float64 {
	var dist [outCount]float64
	if total > 21 {
		dist[outBust] = 1
		return dist
	}
	if total >= 17 && !(total == 17 && soft && e.hitSoft17) {
		dist[total-17] = 1
		return dist
	}
	key := dealerKey{total, soft}
	if d, ok := e.dealerMemo[key]; ok {
		return d
	}
	for v, p := range cardProbs {
		nt, ns := addCard(total, soft, v)
		sub := e.dealerPlay(nt, ns)
		for i := range sub {
			dist[i] += p * sub[i]
		}
	}
	e.dealerMemo[key] = dist
	return dist
}

// addCard folds one card into a (total, soft) state, demoting an ace from
// 11 to 1 when the total would bust.
func addCard(total int, soft bool, v int) (int, bool) {
	total += v
	if v == 11 {
		soft = true
	}
	if total > 21 && soft {
		total -= 10
		soft = false
	}
	return total, soft
}

// EVStand is the expected chips (per unit bet) from standing on total vs up.
func (e *Evaluator) EVStand(total, up int) float64 {
	if total > 21 {
		return -1
	}
	dist := e.DealerDist(up)
	ev := dist[outBust]
	for i := out17; i <= out21; i++ {
		dt := 17 + i
		switch {
		case total > dt:
			ev += dist[i]
		case total < dt:
			ev -= dist[i]
		}
	}
	return ev
}

// EVHit assumes optimal play after the card (hit again or stand).
func (e *Evaluator) EVHit(total int, soft bool, up int) float64 {
	key := handKey{total, soft, up}
	if ev, ok := e.hitMemo[key]; ok {
		return ev
	}
	var ev float64
	for v, p := range cardProbs {
		nt, ns := addCard(total, soft, v)
		if nt > 21 {
			ev -= p
			continue
		}
		best := e.EVStand(nt, up)
		if h := e.EVHit(nt, ns, up); h > best {
			best = h
		}
		ev += p * best
	}
	e.hitMemo[key] = ev
	return ev
}

// EVDouble draws exactly one card at doubled stakes.
func (e *Evaluator) EVDouble(total int, soft bool, up int) float64 {
	var ev float64
	for v, p := range cardProbs {
		nt, _ := addCard(total, soft, v)
		ev += p * e.EVStand(nt, up)
	}
	return 2 * ev
}

// ActionEVs returns EVs for every action available in the logged spot.
func (e *Evaluator) ActionEVs(total int, soft bool, up int, firstDecision, allowSurrender bool) map[string]float64 {
	evs := map[string]float64{
		"hit":   e.EVHit(total, soft, up),
		"stand": e.EVStand(total, up),
	}
	if firstDecision {
		evs["double"] = e.EVDouble(total, soft, up)
		if allowSurrender {
			evs["surrender"] = -0.5
		}
	}
	return evs
}

// upcardValue converts a card string like "As" or "Td" to 2..11.
func upcardValue(card string) int {
	if card == "" {
		return 0
	}
	switch card[0] {
	case 'A':
		return 11
	case 'T', 'J', 'Q', 'K':
		return 10
	default:
		if card[0] >= '2' && card[0] <= '9' {
			return int(card[0] - '2' + 2)
		}
	}
	return 0
}

// EvaluateMatchEV recomputes the exact EV of every logged player decision
// and writes rows into action_eval with solver='EVJudge'. A decision is
// "good" when its EV is within eps (0.15 bets) of the best available action.
func EvaluateMatchEV(ctx context.Context, db *store.DB, matchID int64) error {
	var hitSoft17, allowSurrender bool
	if err := db.QueryRow(ctx, `
		SELECT hit_soft17, allow_surrender FROM matches WHERE id = $1
	`, matchID).Scan(&hitSoft17, &allowSurrender); err != nil {
		return err
	}
	const eps = 0.15 // in bet units

	ev := NewEvaluator(hitSoft17)

	type row struct {
		id       int64
		action   string
		total    int
		soft     bool
		dealerUp string
		hand     []string
	}
	rows, err := db.Query(ctx, `
		SELECT id, LOWER(action), total, soft, dealer_up, hand
		  FROM action_logs
		 WHERE match_id = $1
		 ORDER BY id
	`, matchID)
	if err != nil {
		return err
	}
	var batch []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.action, &r.total, &r.soft, &r.dealerUp, &r.hand); err != nil {
			rows.Close()
			return err
		}
		batch = append(batch, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, r := range batch {
		up := upcardValue(r.dealerUp)
		if up == 0 || r.total > 21 {
			continue
		}
		t0 := time.Now()
		evs := ev.ActionEVs(r.total, r.soft, up, len(r.hand) == 2, allowSurrender)
		chosen := strings.TrimSpace(r.action)
		evChosen, ok := evs[chosen]
		if !ok {
			continue
		}
		bestAction, evBest := "", 0.0
		for act, v := range evs {
			if bestAction == "" || v > evBest || (v == evBest && act < bestAction) {
				bestAction, evBest = act, v
			}
		}
		gap := evBest - evChosen
		isTop := gap <= eps
		ms := int(time.Since(t0) / time.Millisecond)

		evsJSON, _ := json.Marshal(evs)
		if err := db.InsertActionEval(ctx,
			r.id, "EVJudge", nil, strPtr("infinite-shoe"),
			nil, string(evsJSON),
			&bestAction, &chosen,
			&evChosen, &evBest, &gap, nil,
			&isTop, &ms,
		); err != nil {
			return err
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }
