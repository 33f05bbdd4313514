package repository // repository holds data access logic for domain entities

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// HallRepo provides methods to create and retrieve theatre halls.
type HallRepo struct {
	db *sql.DB
}

// NewHallRepo constructs a HallRepo with the given DB handle.
func NewHallRepo(db *sql.DB) *HallRepo {
	return &HallRepo{db: db}
}

const hallColumns = "id, name, `rows`, seats_per_row"

// Create inserts a new hall and sets its ID.
func (r *HallRepo) Create(ctx context.Context, h *model.TheatreHall) error {
	const q = "INSERT INTO theatre_halls (name, `rows`, seats_per_row) VALUES (?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsPerRow)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)
	return nil
}

// GetByID retrieves a hall by its ID.  It returns ErrNotFound when no row
// is found.
func (r *HallRepo) GetByID(ctx context.Context, id uint64) (*model.TheatreHall, error) {
	q := "SELECT " + hallColumns + " FROM theatre_halls WHERE id = ?"
	var h model.TheatreHall
	err := r.db.QueryRowContext(ctx, q, id).Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsPerRow)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

// List returns one page of halls ordered by id and the total count.
func (r *HallRepo) List(ctx context.Context, p Page) ([]model.TheatreHall, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM theatre_halls").Scan(&total); err != nil {
		return nil, 0, err
	}
	q := "SELECT " + hallColumns + " FROM theatre_halls ORDER BY id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, p.Limit(), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.TheatreHall, 0, p.Size)
	for rows.Next() {
		var h model.TheatreHall
		if err := rows.Scan(&h.ID, &h.Name, &h.Rows, &h.SeatsPerRow); err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update rewrites all hall fields.  Returns ErrNotFound when the hall does
// not exist.  Existing tickets are not re-validated against a shrunken grid.
func (r *HallRepo) Update(ctx context.Context, h *model.TheatreHall) error {
	const q = "UPDATE theatre_halls SET name = ?, `rows` = ?, seats_per_row = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, q, h.Name, h.Rows, h.SeatsPerRow, h.ID); err != nil {
		return translate(err)
	}
	// RowsAffected is 0 for unchanged rows in MySQL, so confirm existence.
	_, err := r.GetByID(ctx, h.ID)
	return err
}

// Delete removes a hall.  ErrConflict is returned while performances
// still reference it.
func (r *HallRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM theatre_halls WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
