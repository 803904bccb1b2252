package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/filmio/internal/model"
)

// RatingRepo encapsulates queries on `ratings`.  Aggregates are computed by
// the database on every read.
type RatingRepo struct{ db *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{db: db} }

// Upsert stores a member's score for a film.  The unique (film_id,
// member_id) key turns a resubmission into an update of score and comment.
func (r *RatingRepo) Upsert(ctx context.Context, filmID, memberID uint64, score int, comment string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ratings (film_id, member_id, score, comment) VALUES (?, ?, ?, ?)
		 ON DUPLICATE KEY UPDATE score = VALUES(score), comment = VALUES(comment), updated_at = CURRENT_TIMESTAMP`,
		filmID, memberID, score, comment)
	return err
}

// Recent lists every rating with film title and member name, most recently
// updated first.
func (r *RatingRepo) Recent(ctx context.Context) ([]model.Rating, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT r.id, r.film_id, r.member_id, r.score, COALESCE(r.comment, ''), r.created_at, r.updated_at,
		        COALESCE(f.title, ''), TRIM(CONCAT(COALESCE(m.first_name, ''), ' ', COALESCE(m.last_name, '')))
		 FROM ratings r
		 LEFT JOIN films f ON f.id = r.film_id
		 LEFT JOIN members m ON m.id = r.member_id
		 ORDER BY r.updated_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Rating
	for rows.Next() {
		var x model.Rating
		if err := rows.Scan(&x.ID, &x.FilmID, &x.MemberID, &x.Score, &x.Comment, &x.CreatedAt, &x.UpdatedAt,
			&x.FilmTitle, &x.MemberName); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

// Averages returns average score and count per rated film, ordered by title.
func (r *RatingRepo) Averages(ctx context.Context) ([]model.RatingAggregate, error) {
	return r.aggregates(ctx,
		`SELECT r.film_id, COALESCE(f.title, ''), COALESCE(f.director, ''), AVG(r.score), COUNT(*)
		 FROM ratings r LEFT JOIN films f ON f.id = r.film_id
		 GROUP BY r.film_id, f.title, f.director
		 ORDER BY f.title ASC`)
}

// TopRated returns the n best films ranked by average score then rating
// count.  Ratings of deleted films are excluded.
func (r *RatingRepo) TopRated(ctx context.Context, n int) ([]model.RatingAggregate, error) {
	return r.aggregates(ctx,
		`SELECT f.id, f.title, f.director, AVG(r.score) AS avg_score, COUNT(r.id) AS rating_count
		 FROM films f INNER JOIN ratings r ON r.film_id = f.id
		 GROUP BY f.id, f.title, f.director
		 ORDER BY avg_score DESC, rating_count DESC, f.title ASC
		 LIMIT ?`, n)
}

func (r *RatingRepo) aggregates(ctx context.Context, q string, args ...any) ([]model.RatingAggregate, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RatingAggregate
	for rows.Next() {
		var a model.RatingAggregate
		if err := rows.Scan(&a.FilmID, &a.FilmTitle, &a.Director, &a.Average, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
