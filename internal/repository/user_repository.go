package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-reservation/internal/model"
	"github.com/iliyamo/theatre-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ErrEmailExists is returned by Create when the email is already registered.
var ErrEmailExists = errors.New("email already exists")

const userColumns = "id, email, password_hash, first_name, last_name, is_staff, created_at"

// Create hashes password, inserts the user and fills u.ID.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = normalizeEmail(u.Email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, first_name, last_name, is_staff) VALUES (?,?,?,?,?)",
		u.Email, hash, u.FirstName, u.LastName, u.IsStaff)
	if err != nil {
		if mysqlErrNumber(err) == mysqlDuplicateEntry {
			return ErrEmailExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.PasswordHash = hash
	return nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateProfile rewrites email and names.  A taken email yields
// ErrEmailExists.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *model.User) error {
	u.Email = normalizeEmail(u.Email)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email=?, first_name=?, last_name=? WHERE id=?",
		u.Email, u.FirstName, u.LastName, u.ID)
	if mysqlErrNumber(err) == mysqlDuplicateEntry {
		return ErrEmailExists
	}
	return err
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// EnsureStaff creates a staff account for email unless one exists, in
// which case the existing user is promoted.  It returns true when a new
// row was inserted.
func (r *UserRepo) EnsureStaff(ctx context.Context, email, password string, cost int) (bool, error) {
	existing, err := r.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsStaff {
			return false, nil
		}
		_, err = r.DB.ExecContext(ctx, "UPDATE users SET is_staff=1 WHERE id=?", existing.ID)
		return false, err
	case !errors.Is(err, ErrNotFound):
		return false, err
	}
	u := &model.User{Email: email, IsStaff: true}
	if err := r.Create(ctx, u, password, cost); err != nil {
		return false, err
	}
	return true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
