package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/filmio/internal/model"
)

// ScreeningRepo encapsulates queries on `screenings` and the join requests
// that reference them.
type ScreeningRepo struct{ db *sql.DB }

func NewScreeningRepo(db *sql.DB) *ScreeningRepo { return &ScreeningRepo{db: db} }

const screeningSelect = `SELECT s.id, s.film_id, COALESCE(f.title, ''),
	DATE_FORMAT(s.screen_date, '%Y-%m-%d'), TIME_FORMAT(s.screen_time, '%H:%i'), s.venue
	FROM screenings s LEFT JOIN films f ON f.id = s.film_id`

// Create schedules a screening and fills in its ID.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO screenings (screen_date, screen_time, venue, film_id) VALUES (?, ?, ?, ?)",
		s.Date, s.Time, s.Venue, s.FilmID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Delete removes a screening.
func (r *ScreeningRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM screenings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListChronological returns every screening, soonest first (member dashboard).
func (r *ScreeningRepo) ListChronological(ctx context.Context) ([]model.Screening, error) {
	return r.query(ctx, screeningSelect+" ORDER BY s.screen_date ASC, s.screen_time ASC")
}

// ListLatestFirst returns every screening, latest date first (admin panel and export).
func (r *ScreeningRepo) ListLatestFirst(ctx context.Context) ([]model.Screening, error) {
	return r.query(ctx, screeningSelect+" ORDER BY s.screen_date DESC, s.screen_time DESC")
}

// RequestJoin records that a member wants to attend a screening.  A second
// request for the same pair yields ErrDuplicate and leaves the first row alone.
// The insert selects from screenings, so an unknown screening inserts nothing
// and yields ErrNotFound.
func (r *ScreeningRepo) RequestJoin(ctx context.Context, screeningID, memberID uint64) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO screening_requests (screening_id, member_id)
		 SELECT id, ? FROM screenings WHERE id = ?`,
		memberID, screeningID)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// RequestedBy returns the set of screening ids the member has asked to join.
func (r *ScreeningRepo) RequestedBy(ctx context.Context, memberID uint64) (map[uint64]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT screening_id FROM screening_requests WHERE member_id = ?", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uint64]bool)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *ScreeningRepo) query(ctx context.Context, q string, args ...any) ([]model.Screening, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Screening
	for rows.Next() {
		var s model.Screening
		if err := rows.Scan(&s.ID, &s.FilmID, &s.FilmTitle, &s.Date, &s.Time, &s.Venue); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
