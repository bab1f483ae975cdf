package store

import (
	"context"
	"database/sql"
	"time"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

const analysisDayLayout = "2006-01-02"

const analysisColumns = `a.analysis_id, a.item_id, a.estimated_value, a.current_bid, a.potential_profit,
	a.net_profit, a.profit_margin, a.confidence_score, a.recommendation, a.analysis_date`

// latestAnalysisJoin joins each item to its most recent daily analysis.
const latestAnalysisJoin = ` FROM items i
	JOIN profit_analysis a ON a.item_id = i.item_id
	WHERE a.analysis_day = (SELECT MAX(p.analysis_day) FROM profit_analysis p WHERE p.item_id = i.item_id)`

func analysisDest(a *model.ProfitAnalysis, date *int64) []any {
	return []any{
		&a.ID, &a.ItemID, &a.EstimatedValue, &a.CurrentBid, &a.PotentialProfit,
		&a.NetProfit, &a.ProfitMargin, &a.ConfidenceScore, &a.Recommendation, date,
	}
}

// SaveAnalysis stores a's values as the item's analysis for the current UTC
// day, replacing an earlier analysis from the same day.
func (s *Store) SaveAnalysis(ctx context.Context, a model.ProfitAnalysis) (int64, error) {
	if a.ItemID <= 0 {
		return 0, apperrors.NewValidation("store", "analysis item id is required")
	}
	var id int64
	err := s.withTx(ctx, "save_analysis", func(tx *sql.Tx) error {
		now := s.now().UTC()
		return tx.QueryRowContext(ctx, s.q(`INSERT INTO profit_analysis
			(item_id, estimated_value, current_bid, potential_profit, net_profit, profit_margin,
			 confidence_score, recommendation, analysis_date, analysis_day)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (item_id, analysis_day) DO UPDATE SET
				estimated_value = excluded.estimated_value,
				current_bid = excluded.current_bid,
				potential_profit = excluded.potential_profit,
				net_profit = excluded.net_profit,
				profit_margin = excluded.profit_margin,
				confidence_score = excluded.confidence_score,
				recommendation = excluded.recommendation,
				analysis_date = excluded.analysis_date
			RETURNING analysis_id`),
			a.ItemID, a.EstimatedValue, a.CurrentBid, a.PotentialProfit, a.NetProfit, a.ProfitMargin,
			a.ConfidenceScore, a.Recommendation, millis(now), now.Format(analysisDayLayout),
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Analyses returns every stored analysis of an item, newest day first.
func (s *Store) Analyses(ctx context.Context, itemID int64) ([]model.ProfitAnalysis, error) {
	var out []model.ProfitAnalysis
	err := s.withTx(ctx, "analyses", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(`SELECT `+analysisColumns+`
			FROM profit_analysis a WHERE a.item_id = ? ORDER BY a.analysis_day DESC`), itemID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				a    model.ProfitAnalysis
				date int64
			)
			if err := rows.Scan(analysisDest(&a, &date)...); err != nil {
				return err
			}
			a.AnalysisDate = fromMillis(date)
			out = append(out, a)
		}
		return rows.Err()
	})
	return out, err
}

// UndervaluedItems returns active items whose latest analysis has a margin of
// at least minMargin percent, highest margin first.
func (s *Store) UndervaluedItems(ctx context.Context, minMargin float64) ([]model.ItemAnalysis, error) {
	var out []model.ItemAnalysis
	err := s.withTx(ctx, "undervalued_items", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(`SELECT `+itemColumns+`, `+analysisColumns+latestAnalysisJoin+`
			AND i.is_active = ? AND a.profit_margin >= ?
			ORDER BY a.profit_margin DESC, i.item_id`), true, minMargin)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				ia   model.ItemAnalysis
				date int64
			)
			it, err := scanItem(rows, analysisDest(&ia.Analysis, &date)...)
			if err != nil {
				return err
			}
			ia.Item = it
			ia.Analysis.AnalysisDate = fromMillis(date)
			out = append(out, ia)
		}
		return rows.Err()
	})
	return out, err
}

// UrgentItems returns qualifying items whose auction ends within the next
// window, soonest first. Items with an unknown end never qualify.
func (s *Store) UrgentItems(ctx context.Context, minMargin float64, window time.Duration) ([]model.UrgentItem, error) {
	var out []model.UrgentItem
	err := s.withTx(ctx, "urgent_items", func(tx *sql.Tx) error {
		now := s.now()
		rows, err := tx.QueryContext(ctx, s.q(`SELECT `+itemColumns+`, `+analysisColumns+latestAnalysisJoin+`
			AND i.is_active = ? AND a.profit_margin >= ?
			AND i.auction_end IS NOT NULL AND i.auction_end > ? AND i.auction_end <= ?
			ORDER BY i.auction_end ASC, i.item_id`),
			true, minMargin, millis(now), millis(now.Add(window)))
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				u    model.UrgentItem
				date int64
			)
			it, err := scanItem(rows, analysisDest(&u.Analysis, &date)...)
			if err != nil {
				return err
			}
			u.Item = it
			u.Analysis.AnalysisDate = fromMillis(date)
			u.HoursRemaining = it.AuctionEnd.Sub(now).Hours()
			out = append(out, u)
		}
		return rows.Err()
	})
	return out, err
}
