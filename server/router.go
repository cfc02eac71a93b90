// server/router.go
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cabosanlucas/stair-llm-games/server/store"
)

func Router(db *store.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{
			"name": "stair-llm-games",
			"endpoints": []string{
				"/api/health", "/api/last-match", "/api/matches",
				"/api/leaderboard", "/api/judge-accuracy", "/api/bot?id=",
				"/api/match-logs?match_id=", "/api/live?match_id=",
			},
		})
	})

	// Health
	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})

	// Latest match bundle
	r.Get("/api/last-match", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()

		type Match struct {
			ID             int64      `json:"id"`
			StartedAt      time.Time  `json:"started_at"`
			EndedAt        *time.Time `json:"ended_at"`
			Bet            int        `json:"bet"`
			StartBank      int        `json:"start_bank"`
			NumDecks       int        `json:"num_decks"`
			MatchSeeds     int        `json:"match_seeds"`
			HitSoft17      bool       `json:"hit_soft17"`
			AllowSurrender bool       `json:"allow_surrender"`
			EloStart       float64    `json:"elo_start"`
			EloK           float64    `json:"elo_k"`
		}
		type Participant struct {
			Label   string  `json:"label"`
			Model   string  `json:"model"`
			Start   int     `json:"start_bank"`
			End     int     `json:"end_bank"`
			Wins    int     `json:"wins"`
			Company string  `json:"company"`
			REffort *string `json:"reasoning_effort"`
		}
		type Mix struct {
			Label     string `json:"label"`
			Hit       int    `json:"hit_ct"`
			Stand     int    `json:"stand_ct"`
			Double    int    `json:"double_ct"`
			Surrender int    `json:"surrender_ct"`
			Total     int    `json:"total_actions"`
		}
		type Rating struct {
			Stage     string    `json:"stage"`      // start | after_pair | end
			PairIndex *int      `json:"pair_index"` // null for start/end
			EloA      float64   `json:"elo_a"`
			EloB      float64   `json:"elo_b"`
			GA        float64   `json:"g_a"`
			GB        float64   `json:"g_b"`
			CreatedAt time.Time `json:"created_at"`
		}
		type Payload struct {
			Match        Match         `json:"match"`
			Participants []Participant `json:"participants"`
			ActionMix    []Mix         `json:"action_mix"`
			Rating       []Rating      `json:"rating"`
		}

		var m Match
		err := db.QueryRow(ctx, `
            SELECT id, started_at, ended_at, bet, start_bank, num_decks, match_seeds,
                   hit_soft17, allow_surrender, elo_start, elo_k
              FROM matches
             ORDER BY id DESC
             LIMIT 1
        `).Scan(&m.ID, &m.StartedAt, &m.EndedAt, &m.Bet, &m.StartBank, &m.NumDecks, &m.MatchSeeds,
			&m.HitSoft17, &m.AllowSurrender, &m.EloStart, &m.EloK)
		if err != nil {
			http.Error(w, "no matches yet", http.StatusNotFound)
			return
		}

		rows, err := db.Query(ctx, `
			SELECT label, name_snapshot, start_bank, end_bank, wins,
			       company_snapshot, reasoning_effort_snapshot
			FROM match_participants
			WHERE match_id = $1
			ORDER BY label
		`, m.ID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		parts := []Participant{}
		for rows.Next() {
			var p Participant
			if err := rows.Scan(&p.Label, &p.Model, &p.Start, &p.End, &p.Wins, &p.Company, &p.REffort); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			parts = append(parts, p)
		}

		rows2, err := db.Query(ctx, `
			SELECT label, hit_ct, stand_ct, double_ct, surrender_ct, total_actions
			FROM v_match_action_mix
			WHERE match_id = $1
			ORDER BY label
		`, m.ID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows2.Close()
		mix := []Mix{}
		for rows2.Next() {
			var x Mix
			if err := rows2.Scan(&x.Label, &x.Hit, &x.Stand, &x.Double, &x.Surrender, &x.Total); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			mix = append(mix, x)
		}

		rows3, err := db.Query(ctx, `
			SELECT stage, pair_index,
			       elo_a, elo_b,
			       g_a_rating, g_b_rating,
			       created_at
			FROM rating_history
			WHERE match_id = $1
			ORDER BY COALESCE(pair_index, 0), created_at
		`, m.ID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows3.Close()
		rating := []Rating{}
		for rows3.Next() {
			var rr Rating
			if err := rows3.Scan(&rr.Stage, &rr.PairIndex, &rr.EloA, &rr.EloB, &rr.GA, &rr.GB, &rr.CreatedAt); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			rating = append(rating, rr)
		}

		writeJSON(w, Payload{
			Match:        m,
			Participants: parts,
			ActionMix:    mix,
			Rating:       rating,
		})
	})

	// Recent matches for history views
	r.Get("/api/matches", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		type Row struct {
			ID        int64      `json:"id"`
			StartedAt time.Time  `json:"started_at"`
			EndedAt   *time.Time `json:"ended_at"`
			Bet       int        `json:"bet"`
			StartBank int        `json:"start_bank"`
			Seeds     int        `json:"match_seeds"`
			ModelA    string     `json:"model_a"`
			ModelB    string     `json:"model_b"`
		}
		rows, err := db.Query(ctx, `
            SELECT m.id, m.started_at, m.ended_at, m.bet, m.start_bank, m.match_seeds,
                   MAX(CASE WHEN p.label='A' THEN p.name_snapshot END) AS model_a,
                   MAX(CASE WHEN p.label='B' THEN p.name_snapshot END) AS model_b
              FROM matches m
              LEFT JOIN match_participants p ON p.match_id = m.id
             GROUP BY m.id
             ORDER BY m.id DESC
             LIMIT 200
        `)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		out := []Row{}
		for rows.Next() {
			var x Row
			if err := rows.Scan(&x.ID, &x.StartedAt, &x.EndedAt, &x.Bet, &x.StartBank, &x.Seeds, &x.ModelA, &x.ModelB); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			out = append(out, x)
		}
		writeJSON(w, map[string]any{"rows": out})
	})

	// Leaderboard: top bots by Elo with career stats and judge accuracy
	r.Get("/api/leaderboard", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		type Row struct {
			BotID     int64    `json:"bot_id"`
			Model     string   `json:"model"`
			Company   string   `json:"company"`
			Elo       float64  `json:"elo"`
			GRating   float64  `json:"g_rating"`
			GRD       float64  `json:"g_rd"`
			Matches   int      `json:"matches"`
			Rounds    int      `json:"rounds"`
			RoundWins int      `json:"round_wins"`
			NetChips  int      `json:"net_chips"`
			JudgeAcc  *float64 `json:"judge_accuracy"`
		}
		rows, err := db.Query(ctx, `
            SELECT bot_id, name, company, elo, g_rating, g_rd,
                   matches, rounds, round_wins, net_chips, judge_accuracy
              FROM v_bot_summary
             ORDER BY elo DESC, matches DESC, rounds DESC
        `)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		out := []Row{}
		for rows.Next() {
			var x Row
			if err := rows.Scan(&x.BotID, &x.Model, &x.Company, &x.Elo, &x.GRating, &x.GRD,
				&x.Matches, &x.Rounds, &x.RoundWins, &x.NetChips, &x.JudgeAcc); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			out = append(out, x)
		}
		writeJSON(w, map[string]any{"rows": out})
	})

	// Judge accuracy (EVJudge): good/total and accuracy per bot
	r.Get("/api/judge-accuracy", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		rows, err := db.Query(ctx, `SELECT bot_id, good, total FROM v_judge_accuracy`)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		type Row struct {
			BotID int64   `json:"bot_id"`
			Good  int     `json:"good"`
			Total int     `json:"total"`
			Acc   float64 `json:"acc"`
		}
		var out []Row
		for rows.Next() {
			var x Row
			if err := rows.Scan(&x.BotID, &x.Good, &x.Total); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			if x.Total > 0 {
				x.Acc = float64(x.Good) / float64(x.Total)
			}
			out = append(out, x)
		}
		writeJSON(w, map[string]any{"rows": out})
	})

	// Bot details: career row + recent matches for a given bot id
	r.Get("/api/bot", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		idStr := req.URL.Query().Get("id")
		if idStr == "" {
			http.Error(w, "missing id", 400)
			return
		}
		var botID int64
		if _, err := fmt.Sscan(idStr, &botID); err != nil {
			http.Error(w, "bad id", 400)
			return
		}

		var career struct {
			BotID   int64     `json:"bot_id"`
			Model   string    `json:"model"`
			Company string    `json:"company"`
			Elo     float64   `json:"elo"`
			GRating float64   `json:"g_rating"`
			GRD     float64   `json:"g_rd"`
			GSigma  float64   `json:"g_sigma"`
			Matches int       `json:"matches"`
			Rounds  int       `json:"rounds"`
			Updated time.Time `json:"updated_at"`
		}
		err := db.QueryRow(ctx, `
            SELECT b.id, b.name, b.company,
                   COALESCE(r.elo,1500), COALESCE(r.g_rating,1500), COALESCE(r.g_rd,350), COALESCE(r.g_sigma,0.06),
                   COALESCE(r.matches,0), COALESCE(r.rounds,0), COALESCE(r.updated_at, now())
              FROM bots b
              LEFT JOIN bot_ratings r ON r.bot_id = b.id
             WHERE b.id = $1
        `, botID).Scan(&career.BotID, &career.Model, &career.Company, &career.Elo, &career.GRating, &career.GRD, &career.GSigma, &career.Matches, &career.Rounds, &career.Updated)
		if err != nil {
			http.Error(w, err.Error(), 404)
			return
		}

		type M struct {
			MatchID     int64      `json:"match_id"`
			StartedAt   time.Time  `json:"started_at"`
			EndedAt     *time.Time `json:"ended_at"`
			Label       string     `json:"label"`
			OppModel    string     `json:"opponent_model"`
			StartBank   int        `json:"start_bank"`
			EndBank     int        `json:"end_bank"`
			Wins        int        `json:"wins"`
			RoundsDealt int        `json:"rounds"`
			NetChips    int        `json:"net_chips"`
			Hit         int        `json:"hit"`
			Stand       int        `json:"stand"`
			Double      int        `json:"double"`
			Surrender   int        `json:"surrender"`
		}
		rows, err := db.Query(ctx, `
            WITH me AS (
                SELECT p.match_id, p.label, p.start_bank, p.end_bank, p.wins, p.rounds_dealt, p.net_chips,
                       m.started_at, m.ended_at,
                       (SELECT name_snapshot FROM match_participants op WHERE op.match_id=p.match_id AND op.label <> p.label) AS opponent_model
                  FROM match_participants p
                  JOIN matches m ON m.id = p.match_id
                 WHERE p.bot_id = $1
            )
            SELECT me.match_id, me.started_at, me.ended_at, me.label, me.opponent_model,
                   me.start_bank, me.end_bank, me.wins, me.rounds_dealt, me.net_chips,
                   COALESCE(t.hit_ct,0), COALESCE(t.stand_ct,0), COALESCE(t.double_ct,0), COALESCE(t.surrender_ct,0)
              FROM me
              LEFT JOIN action_tallies t ON t.match_id = me.match_id AND t.label = me.label
             ORDER BY me.match_id DESC
             LIMIT 100
        `, botID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		var list []M
		for rows.Next() {
			var m M
			if err := rows.Scan(&m.MatchID, &m.StartedAt, &m.EndedAt, &m.Label, &m.OppModel, &m.StartBank, &m.EndBank, &m.Wins, &m.RoundsDealt, &m.NetChips, &m.Hit, &m.Stand, &m.Double, &m.Surrender); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			list = append(list, m)
		}
		writeJSON(w, map[string]any{"career": career, "matches": list})
	})

	// Fetch all action logs for a past match (non-live replay), eval joined
	r.Get("/api/match-logs", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		idStr := req.URL.Query().Get("match_id")
		var matchID int64
		if _, err := fmt.Sscan(idStr, &matchID); err != nil {
			http.Error(w, "bad match_id", 400)
			return
		}
		type Row struct {
			ID         int64     `json:"id"`
			PairIndex  int       `json:"pair_index"`
			RoundID    string    `json:"round_id"`
			ActorLabel string    `json:"actor_label"`
			Seat       string    `json:"seat"`
			Action     string    `json:"action"`
			Card       *string   `json:"card"`
			Bet        int       `json:"bet"`
			Total      int       `json:"total"`
			Soft       bool      `json:"soft"`
			DealerUp   string    `json:"dealer_up"`
			P1Bank     int       `json:"p1_bank"`
			P2Bank     int       `json:"p2_bank"`
			Hand       []string  `json:"hand"`
			CreatedAt  time.Time `json:"created_at"`
			// Optional solver eval join
			Solver          *string  `json:"solver"`
			EvalBestAction  *string  `json:"eval_best_action"`
			EvalGapBet      *float64 `json:"eval_gap_bet"`
			EvalCorrectProb *float64 `json:"eval_correct_prob"`
			EvalIsTop       *bool    `json:"eval_is_top"`
		}
		rows, err := db.Query(ctx, `
            SELECT a.id, a.pair_index, a.round_id, a.actor_label, a.seat, a.action, a.card,
                   a.bet, a.total, a.soft, a.dealer_up, a.p1_bank, a.p2_bank, a.hand, a.created_at,
                   e.solver, e.best_action, e.ev_gap_bet, e.correctness_prob, e.is_top_action
              FROM action_logs a
              LEFT JOIN action_eval e ON e.action_log_id = a.id
             WHERE a.match_id = $1
             ORDER BY a.id
        `, matchID)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		out := []Row{}
		for rows.Next() {
			var x Row
			if err := rows.Scan(&x.ID, &x.PairIndex, &x.RoundID, &x.ActorLabel, &x.Seat, &x.Action, &x.Card,
				&x.Bet, &x.Total, &x.Soft, &x.DealerUp, &x.P1Bank, &x.P2Bank, &x.Hand, &x.CreatedAt,
				&x.Solver, &x.EvalBestAction, &x.EvalGapBet, &x.EvalCorrectProb, &x.EvalIsTop); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			out = append(out, x)
		}
		writeJSON(w, map[string]any{"rows": out})
	})

	// Live SSE stream of action logs for a given match_id.
	r.Get("/api/live", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		q := req.URL.Query()
		matchIDStr := q.Get("match_id")
		if matchIDStr == "" {
			http.Error(w, "missing match_id", 400)
			return
		}
		sinceStr := q.Get("since")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "stream unsupported", 500)
			return
		}

		var matchID int64
		if _, err := fmt.Sscan(matchIDStr, &matchID); err != nil {
			http.Error(w, "bad match_id", 400)
			return
		}
		var sinceID int64
		if sinceStr != "" {
			if _, e := fmt.Sscan(sinceStr, &sinceID); e != nil {
				sinceID = 0
			}
		}

		type Row struct {
			ID         int64     `json:"id"`
			PairIndex  int       `json:"pair_index"`
			RoundID    string    `json:"round_id"`
			ActorLabel string    `json:"actor_label"`
			Seat       string    `json:"seat"`
			Action     string    `json:"action"`
			Card       *string   `json:"card"`
			Bet        int       `json:"bet"`
			Total      int       `json:"total"`
			Soft       bool      `json:"soft"`
			DealerUp   string    `json:"dealer_up"`
			P1Bank     int       `json:"p1_bank"`
			P2Bank     int       `json:"p2_bank"`
			Hand       []string  `json:"hand"`
			CreatedAt  time.Time `json:"created_at"`
		}

		enc := json.NewEncoder(w)
		send := func(rows []Row) {
			for _, x := range rows {
				w.Write([]byte("event: action\n"))
				w.Write([]byte("data: "))
				_ = enc.Encode(x)
				w.Write([]byte("\n"))
			}
			flusher.Flush()
		}

		// tail loop
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rows, err := db.Query(ctx, `
                    SELECT id, pair_index, round_id, actor_label, seat, action, card,
                           bet, total, soft, dealer_up, p1_bank, p2_bank, hand, created_at
                      FROM action_logs
                     WHERE match_id = $1 AND id > $2
                     ORDER BY id
                `, matchID, sinceID)
				if err != nil {
					return
				}
				var batch []Row
				for rows.Next() {
					var x Row
					if err := rows.Scan(&x.ID, &x.PairIndex, &x.RoundID, &x.ActorLabel, &x.Seat, &x.Action, &x.Card,
						&x.Bet, &x.Total, &x.Soft, &x.DealerUp, &x.P1Bank, &x.P2Bank, &x.Hand, &x.CreatedAt); err != nil {
						rows.Close()
						return
					}
					batch = append(batch, x)
					sinceID = x.ID
				}
				rows.Close()
				if len(batch) > 0 {
					send(batch)
				}
			}
		}
	})

	// Elo history across matches per bot (end-of-match Elo and label mapping)
	r.Get("/api/elo-history", func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		type Row struct {
			BotID   int64     `json:"bot_id"`
			Model   string    `json:"model"`
			Company string    `json:"company"`
			MatchID int64     `json:"match_id"`
			When    time.Time `json:"when"`
			Elo     float64   `json:"elo"`
		}
		rows, err := db.Query(ctx, `
            SELECT p.bot_id,
                   p.name_snapshot AS model,
                   p.company_snapshot AS company,
                   m.id AS match_id,
                   m.started_at,
                   CASE WHEN p.label = 'A' THEN rh.elo_a ELSE rh.elo_b END AS elo
              FROM rating_history rh
              JOIN matches m ON m.id = rh.match_id
              JOIN match_participants p ON p.match_id = m.id
             WHERE rh.stage = 'end'
             ORDER BY p.bot_id, m.started_at
        `)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		defer rows.Close()
		out := []Row{}
		for rows.Next() {
			var x Row
			if err := rows.Scan(&x.BotID, &x.Model, &x.Company, &x.MatchID, &x.When, &x.Elo); err != nil {
				http.Error(w, err.Error(), 500)
				return
			}
			out = append(out, x)
		}
		writeJSON(w, map[string]any{"rows": out})
	})

	return r
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
