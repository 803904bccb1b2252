package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/filmio/internal/model"
)

// FilmRepo encapsulates all queries on the `films` table.
type FilmRepo struct{ db *sql.DB }

func NewFilmRepo(db *sql.DB) *FilmRepo { return &FilmRepo{db: db} }

const filmColumns = "id, title, director, year, genre, COALESCE(synopsis, ''), runtime, created_at"

func scanFilm(row interface{ Scan(...any) error }, f *model.Film) error {
	return row.Scan(&f.ID, &f.Title, &f.Director, &f.Year, &f.Genre, &f.Synopsis, &f.Runtime, &f.CreatedAt)
}

// likePattern wraps s in % wildcards after escaping LIKE metacharacters.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// Create inserts a film and fills in its ID.  Runtime is always stored as 0.
func (r *FilmRepo) Create(ctx context.Context, f *model.Film) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO films (title, director, year, genre, synopsis, runtime) VALUES (?, ?, ?, ?, ?, 0)",
		f.Title, f.Director, f.Year, f.Genre, f.Synopsis)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	return nil
}

// Update overwrites the editable columns of an existing film.
func (r *FilmRepo) Update(ctx context.Context, f model.Film) error {
	if _, err := r.GetByID(ctx, f.ID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE films SET title = ?, director = ?, year = ?, genre = ?, synopsis = ? WHERE id = ?",
		f.Title, f.Director, f.Year, f.Genre, f.Synopsis, f.ID)
	return err
}

// Delete removes a film.  Screenings and ratings that point at it are left
// in place and render as "Unknown".
func (r *FilmRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM films WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// GetByID fetches one film.
func (r *FilmRepo) GetByID(ctx context.Context, id uint64) (model.Film, error) {
	var f model.Film
	err := scanFilm(r.db.QueryRowContext(ctx, "SELECT "+filmColumns+" FROM films WHERE id = ? LIMIT 1", id), &f)
	return f, mapNoRows(err)
}

// Exists reports whether a film with the given id is in the catalog.
func (r *FilmRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM films WHERE id = ? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// List returns films matching the filter.  There is no pagination.
func (r *FilmRepo) List(ctx context.Context, f model.FilmFilter) ([]model.Film, error) {
	where := []string{"1=1"}
	args := []any{}
	if g := strings.TrimSpace(f.Genre); g != "" {
		where = append(where, "genre LIKE ?")
		args = append(args, likePattern(g))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, "(title LIKE ? OR director LIKE ?)")
		p := likePattern(s)
		args = append(args, p, p)
	}

	order := "title ASC"
	switch f.Sort {
	case model.SortByYear:
		order = "year DESC, title ASC"
	case model.SortByYearAsc:
		order = "year ASC, title ASC"
	}

	q := "SELECT " + filmColumns + " FROM films WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	return r.query(ctx, q, args...)
}

// SearchByTitle backs the admin catalog filter (`q`), ordered by title.
func (r *FilmRepo) SearchByTitle(ctx context.Context, title string) ([]model.Film, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return r.query(ctx, "SELECT "+filmColumns+" FROM films ORDER BY title ASC")
	}
	return r.query(ctx, "SELECT "+filmColumns+" FROM films WHERE title LIKE ? ORDER BY title ASC", likePattern(title))
}

// Count returns the unfiltered catalog size.
func (r *FilmRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM films").Scan(&n)
	return n, err
}

// Genres lists the distinct non-empty genres for the dashboard filter.
func (r *FilmRepo) Genres(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT genre FROM films WHERE genre <> '' ORDER BY genre")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *FilmRepo) query(ctx context.Context, q string, args ...any) ([]model.Film, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Film
	for rows.Next() {
		var f model.Film
		if err := scanFilm(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
