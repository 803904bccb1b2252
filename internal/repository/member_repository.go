package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/filmio/internal/model"
)

// MemberRepo encapsulates all queries on the `members` table.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = `id, first_name, last_name, email, COALESCE(password_hash, ''), address, membership,
	DATE_FORMAT(registered_on, '%Y-%m-%d')`

func scanMember(row interface{ Scan(...any) error }, m *model.Member) error {
	return row.Scan(&m.ID, &m.FirstName, &m.LastName, &m.Email, &m.PasswordHash, &m.Address, &m.Membership, &m.RegisteredOn)
}

// Create inserts a member and fills in its ID.  Email is normalized to lower
// case.  An empty PasswordHash is stored as NULL.  A second row with the same
// email yields ErrDuplicate.
func (r *MemberRepo) Create(ctx context.Context, m *model.Member) error {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	var hash sql.NullString
	if m.PasswordHash != "" {
		hash = sql.NullString{String: m.PasswordHash, Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (first_name, last_name, email, password_hash, address, membership, registered_on)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.FirstName, m.LastName, m.Email, hash, m.Address, m.Membership, m.RegisteredOn)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// GetByEmail fetches a member by normalized email.
func (r *MemberRepo) GetByEmail(ctx context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var m model.Member
	err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE email = ? LIMIT 1", email), &m)
	return m, mapNoRows(err)
}

// GetByID fetches a member by id.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	var m model.Member
	err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id = ? LIMIT 1", id), &m)
	return m, mapNoRows(err)
}

// List returns every member, newest registration first.
func (r *MemberRepo) List(ctx context.Context) ([]model.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY registered_on DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		var m model.Member
		if err := scanMember(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMembership changes the membership column, which is the only member
// field editable after creation.
func (r *MemberRepo) UpdateMembership(ctx context.Context, id uint64, membership string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE members SET membership = ? WHERE id = ?", membership, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when the value is unchanged, so
		// confirm the row exists before calling it missing.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a member.  Ratings and join requests are kept.
func (r *MemberRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

