package store

import (
	"context"
	"database/sql"
	"strings"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// AddWatch stores a new active watchlist entry and returns its id.
func (s *Store) AddWatch(ctx context.Context, w model.Watch) (int64, error) {
	keyword := strings.TrimSpace(w.Keyword)
	if keyword == "" {
		return 0, apperrors.NewValidation("store", "watch keyword is required")
	}
	var maxBid sql.NullFloat64
	if w.MaxBidAmount != nil {
		maxBid = sql.NullFloat64{Float64: *w.MaxBidAmount, Valid: true}
	}

	var id int64
	err := s.withTx(ctx, "add_watch", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, s.q(`INSERT INTO watchlist
			(keyword, category, min_profit_threshold, max_bid_amount, is_active, created_at)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING watch_id`),
			keyword, w.Category, w.MinProfitThreshold, maxBid, true, millis(s.now()),
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetWatchActive enables or disables a watchlist entry. ok is false when no
// entry has the id.
func (s *Store) SetWatchActive(ctx context.Context, id int64, active bool) (ok bool, err error) {
	err = s.withTx(ctx, "set_watch_active", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE watchlist SET is_active = ? WHERE watch_id = ?`), active, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		ok = n > 0
		return err
	})
	return ok, err
}

// Watchlist lists watchlist entries in creation order.
func (s *Store) Watchlist(ctx context.Context, activeOnly bool) ([]model.Watch, error) {
	query := `SELECT watch_id, keyword, category, min_profit_threshold, max_bid_amount, is_active, created_at FROM watchlist`
	var args []any
	if activeOnly {
		query += ` WHERE is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY watch_id`

	var out []model.Watch
	err := s.withTx(ctx, "watchlist", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				w       model.Watch
				maxBid  sql.NullFloat64
				created int64
			)
			if err := rows.Scan(&w.ID, &w.Keyword, &w.Category, &w.MinProfitThreshold, &maxBid, &w.Active, &created); err != nil {
				return err
			}
			if maxBid.Valid {
				v := maxBid.Float64
				w.MaxBidAmount = &v
			}
			w.CreatedAt = fromMillis(created)
			out = append(out, w)
		}
		return rows.Err()
	})
	return out, err
}
