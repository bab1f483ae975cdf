package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"sjsage522/auctionwatcher/internal/model"
)

const sessionColumns = `session_id, started_at, ended_at, items_found, items_flagged, status, error_message`

func scanSession(row scanner) (model.ScrapeSession, error) {
	var (
		ss      model.ScrapeSession
		started int64
		ended   sql.NullInt64
		status  string
	)
	if err := row.Scan(&ss.ID, &started, &ended, &ss.ItemsFound, &ss.ItemsFlagged, &status, &ss.ErrorMessage); err != nil {
		return model.ScrapeSession{}, err
	}
	ss.StartedAt = fromMillis(started)
	ss.EndedAt = timePtr(ended)
	ss.Status = model.SessionStatus(status)
	return ss, nil
}

// CreateSession opens a running scrape session and returns its id.
func (s *Store) CreateSession(ctx context.Context) (int64, error) {
	var id int64
	err := s.withTx(ctx, "create_session", func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, s.q(`INSERT INTO scrape_sessions (started_at, status)
			VALUES (?, ?) RETURNING session_id`),
			millis(s.now()), string(model.SessionRunning),
		).Scan(&id)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateSession applies the non-nil fields of upd to a session.
func (s *Store) UpdateSession(ctx context.Context, id int64, upd model.SessionUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.EndedAt != nil {
		sets = append(sets, "ended_at = ?")
		args = append(args, millis(*upd.EndedAt))
	}
	if upd.ItemsFound != nil {
		sets = append(sets, "items_found = ?")
		args = append(args, *upd.ItemsFound)
	}
	if upd.ItemsFlagged != nil {
		sets = append(sets, "items_flagged = ?")
		args = append(args, *upd.ItemsFlagged)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*upd.Status))
	}
	if upd.ErrorMessage != nil {
		sets = append(sets, "error_message = ?")
		args = append(args, *upd.ErrorMessage)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	return s.withTx(ctx, "update_session", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE scrape_sessions SET `+strings.Join(sets, ", ")+` WHERE session_id = ?`), args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// Session returns one session; ok is false when absent.
func (s *Store) Session(ctx context.Context, id int64) (session model.ScrapeSession, ok bool, err error) {
	err = s.withTx(ctx, "session", func(tx *sql.Tx) error {
		ss, err := scanSession(tx.QueryRowContext(ctx, s.q(`SELECT `+sessionColumns+` FROM scrape_sessions WHERE session_id = ?`), id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		session, ok = ss, true
		return nil
	})
	return session, ok, err
}

// RecentSessions returns up to limit sessions, newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]model.ScrapeSession, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []model.ScrapeSession
	err := s.withTx(ctx, "recent_sessions", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, s.q(`SELECT `+sessionColumns+` FROM scrape_sessions
			ORDER BY started_at DESC, session_id DESC LIMIT ?`), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			ss, err := scanSession(rows)
			if err != nil {
				return err
			}
			out = append(out, ss)
		}
		return rows.Err()
	})
	return out, err
}
