package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"sjsage522/auctionwatcher/internal/model"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

const itemColumns = `i.item_id, i.auction_id, i.title, i.description, i.category, i.item_condition,
	i.brand, i.model, i.current_bid, i.auction_end, i.auction_url, i.is_active,
	i.created_at, i.updated_at`

func scanItem(row scanner, extra ...any) (model.Item, error) {
	var (
		it               model.Item
		end              sql.NullInt64
		created, updated int64
	)
	dest := []any{
		&it.ID, &it.ExternalID, &it.Title, &it.Description, &it.Category, &it.Condition,
		&it.Brand, &it.Model, &it.CurrentBid, &end, &it.URL, &it.Active,
		&created, &updated,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Item{}, err
	}
	it.AuctionEnd = timePtr(end)
	it.CreatedAt = fromMillis(created)
	it.UpdatedAt = fromMillis(updated)
	return it, nil
}

// UpsertItem creates the item keyed by rec.ExternalID or refreshes the
// existing row. A bid history entry is appended when the item is new or its
// bid changed. Empty optional fields keep their stored values, and a zero bid
// never replaces a known one.
func (s *Store) UpsertItem(ctx context.Context, rec model.ItemRecord) (int64, error) {
	if strings.TrimSpace(rec.ExternalID) == "" {
		return 0, apperrors.NewValidation("store", "item external id is required")
	}
	if strings.TrimSpace(rec.Title) == "" {
		return 0, apperrors.NewValidation("store", "item title is required")
	}
	if rec.CurrentBid < 0 {
		return 0, apperrors.NewValidation("store", "current bid must not be negative")
	}

	var id int64
	err := s.withTx(ctx, "upsert_item", func(tx *sql.Tx) error {
		now := s.now()
		row := tx.QueryRowContext(ctx, s.q(`SELECT `+itemColumns+` FROM items i WHERE i.auction_id = ?`), rec.ExternalID)
		existing, err := scanItem(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			err = tx.QueryRowContext(ctx, s.q(`INSERT INTO items
				(auction_id, title, description, category, item_condition, brand, model,
				 current_bid, auction_end, auction_url, is_active, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				RETURNING item_id`),
				rec.ExternalID, rec.Title, rec.Description, rec.Category, rec.Condition, rec.Brand, rec.Model,
				rec.CurrentBid, nullMillis(rec.AuctionEnd), rec.URL, true, millis(now), millis(now),
			).Scan(&id)
			if err != nil {
				return err
			}
			return s.appendBid(ctx, tx, id, rec.CurrentBid, now)
		case err != nil:
			return err
		}

		id = existing.ID
		merged := mergeItem(existing, rec)
		_, err = tx.ExecContext(ctx, s.q(`UPDATE items SET
			title = ?, description = ?, category = ?, item_condition = ?, brand = ?, model = ?,
			current_bid = ?, auction_end = ?, auction_url = ?, updated_at = ?
			WHERE item_id = ?`),
			merged.Title, merged.Description, merged.Category, merged.Condition, merged.Brand, merged.Model,
			merged.CurrentBid, nullMillis(merged.AuctionEnd), merged.URL, millis(now), id,
		)
		if err != nil {
			return err
		}
		if merged.CurrentBid != existing.CurrentBid {
			return s.appendBid(ctx, tx, id, merged.CurrentBid, now)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func mergeItem(it model.Item, rec model.ItemRecord) model.Item {
	it.Title = rec.Title
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&it.Description, rec.Description)
	setIf(&it.Category, rec.Category)
	setIf(&it.Condition, rec.Condition)
	setIf(&it.Brand, rec.Brand)
	setIf(&it.Model, rec.Model)
	setIf(&it.URL, rec.URL)
	if rec.AuctionEnd != nil {
		it.AuctionEnd = rec.AuctionEnd
	}
	if rec.CurrentBid > 0 || it.CurrentBid == 0 {
		it.CurrentBid = rec.CurrentBid
	}
	return it
}

func (s *Store) appendBid(ctx context.Context, tx *sql.Tx, itemID int64, bid float64, at time.Time) error {
	_, err := tx.ExecContext(ctx, s.q(`INSERT INTO bid_history (item_id, bid_amount, recorded_at) VALUES (?, ?, ?)`),
		itemID, bid, millis(at))
	return err
}

// ItemByID returns the item with the given id; ok is false when absent.
func (s *Store) ItemByID(ctx context.Context, id int64) (item model.Item, ok bool, err error) {
	return s.itemWhere(ctx, "item_by_id", `i.item_id = ?`, id)
}

// ItemByExternalID returns the item with the given external identifier.
func (s *Store) ItemByExternalID(ctx context.Context, externalID string) (item model.Item, ok bool, err error) {
	return s.itemWhere(ctx, "item_by_external_id", `i.auction_id = ?`, externalID)
}

func (s *Store) itemWhere(ctx context.Context, op, cond string, arg any) (model.Item, bool, error) {
	var (
		item  model.Item
		found bool
	)
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		it, err := scanItem(tx.QueryRowContext(ctx, s.q(`SELECT `+itemColumns+` FROM items i WHERE `+cond), arg))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		item, found = it, true
		return nil
	})
	return item, found, err
}

// ActiveItems returns active items, most recently created first. limit <= 0
// means no limit.
func (s *Store) ActiveItems(ctx context.Context, limit int) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.is_active = ? ORDER BY i.created_at DESC, i.item_id DESC`
	args := []any{true}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryItems(ctx, "active_items", query, args...)
}

// ItemsByKeywords returns active items whose title contains any keyword,
// ignoring case.
func (s *Store) ItemsByKeywords(ctx context.Context, keywords []string) ([]model.Item, error) {
	var (
		conds []string
		args  = []any{true}
	)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		conds = append(conds, `LOWER(i.title) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(kw)+"%")
	}
	if len(conds) == 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.is_active = ? AND (` +
		strings.Join(conds, " OR ") + `) ORDER BY i.created_at DESC, i.item_id DESC`
	return s.queryItems(ctx, "items_by_keywords", query, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (s *Store) queryItems(ctx context.Context, op, query string, args ...any) ([]model.Item, error) {
	var items []model.Item
	err := s.withTx(ctx, op, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(query), args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	return items, err
}

// MarkExpiredItems deactivates every active item whose auction end has
// passed and returns how many were changed. Items without a known end are
// left alone.
func (s *Store) MarkExpiredItems(ctx context.Context) (int, error) {
	var n int64
	err := s.withTx(ctx, "mark_expired_items", func(tx *sql.Tx) error {
		now := millis(s.now())
		res, err := tx.ExecContext(ctx, s.q(`UPDATE items SET is_active = ?, updated_at = ?
			WHERE is_active = ? AND auction_end IS NOT NULL AND auction_end < ?`),
			false, now, true, now)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Marked expired items inactive")
	}
	return int(n), nil
}

// BidHistory returns an item's bid observations, newest first.
func (s *Store) BidHistory(ctx context.Context, itemID int64) ([]model.BidHistory, error) {
	var out []model.BidHistory
	err := s.withTx(ctx, "bid_history", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(`SELECT history_id, item_id, bid_amount, bid_count, recorded_at
			FROM bid_history WHERE item_id = ? ORDER BY recorded_at DESC, history_id DESC`), itemID)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				h     model.BidHistory
				count sql.NullInt64
				at    int64
			)
			if err := rows.Scan(&h.ID, &h.ItemID, &h.BidAmount, &count, &at); err != nil {
				return err
			}
			if count.Valid {
				c := int(count.Int64)
				h.BidCount = &c
			}
			h.RecordedAt = fromMillis(at)
			out = append(out, h)
		}
		return rows.Err()
	})
	return out, err
}
