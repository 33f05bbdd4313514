// This file defines repository methods for performances.  A Performance is
// one scheduled showing of a play in a theatre hall.  Every read joins the
// play and hall and counts issued tickets so that available seats are
// recomputed from the tickets table each time.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// performanceColumns must stay in the order scanPerformance expects.
const performanceColumns = `p.id, p.play_id, p.theatre_hall_id, p.show_time,
       pl.title, pl.description, pl.image,
       h.name, h.` + "`rows`" + `, h.seats_per_row,
       (SELECT COUNT(*) FROM tickets st WHERE st.performance_id = p.id) AS sold`

const performanceJoins = `JOIN plays pl ON pl.id = p.play_id
       JOIN theatre_halls h ON h.id = p.theatre_hall_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPerformance reads performanceColumns into a Performance with Play
// (without relations) and Hall populated.  extra receives any trailing
// columns the caller selected before performanceColumns.
func scanPerformance(s rowScanner, extra ...any) (*model.Performance, error) {
	p := &model.Performance{Play: &model.Play{}, Hall: &model.TheatreHall{}}
	var image sql.NullString
	dest := append(extra,
		&p.ID, &p.PlayID, &p.TheatreHallID, &p.ShowTime,
		&p.Play.Title, &p.Play.Description, &image,
		&p.Hall.Name, &p.Hall.Rows, &p.Hall.SeatsPerRow,
		&p.SoldTickets,
	)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	p.Play.ID = p.PlayID
	p.Hall.ID = p.TheatreHallID
	if image.Valid {
		img := image.String
		p.Play.Image = &img
	}
	return p, nil
}

// PerformanceFilter narrows performance listings.  Date matches the
// calendar day of show_time (UTC); PlayID matches a single play.
type PerformanceFilter struct {
	Date   *time.Time
	PlayID uint64
}

// PerformanceRepo manages persistence for performances.
type PerformanceRepo struct {
	db *sql.DB
}

func NewPerformanceRepo(db *sql.DB) *PerformanceRepo { return &PerformanceRepo{db: db} }

// Create inserts a performance.  Unknown play or hall ids yield
// ErrInvalidReference.
func (r *PerformanceRepo) Create(ctx context.Context, p *model.Performance) error {
	const q = `INSERT INTO performances (play_id, theatre_hall_id, show_time) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.PlayID, p.TheatreHallID, p.ShowTime.UTC())
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByID loads a performance with its hall, its play and the play's
// genres and actors.
func (r *PerformanceRepo) GetByID(ctx context.Context, id uint64) (*model.Performance, error) {
	q := "SELECT " + performanceColumns + " FROM performances p " + performanceJoins + " WHERE p.id = ?"
	p, err := scanPerformance(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := loadPlayRelations(ctx, r.db, []*model.Play{p.Play}); err != nil {
		return nil, err
	}
	return p, nil
}

// List returns one page of performances ordered by show time.
func (r *PerformanceRepo) List(ctx context.Context, f PerformanceFilter, pg Page) ([]model.Performance, int64, error) {
	where := []string{}
	args := []any{}
	if f.Date != nil {
		day := time.Date(f.Date.Year(), f.Date.Month(), f.Date.Day(), 0, 0, 0, 0, time.UTC)
		where = append(where, "p.show_time >= ? AND p.show_time < ?")
		args = append(args, day, day.AddDate(0, 0, 1))
	}
	if f.PlayID != 0 {
		where = append(where, "p.play_id = ?")
		args = append(args, f.PlayID)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM performances p WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT " + performanceColumns + " FROM performances p " + performanceJoins +
		" WHERE " + cond + " ORDER BY p.show_time, p.id LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, q, append(append([]any{}, args...), pg.Limit(), pg.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Performance, 0, pg.Size)
	for rows.Next() {
		p, err := scanPerformance(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Update rewrites play, hall and show time.
func (r *PerformanceRepo) Update(ctx context.Context, p *model.Performance) error {
	const q = `UPDATE performances SET play_id = ?, theatre_hall_id = ?, show_time = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, p.PlayID, p.TheatreHallID, p.ShowTime.UTC(), p.ID); err != nil {
		return translate(err)
	}
	var exists bool
	if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM performances WHERE id = ?)", p.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// Delete removes a performance.  ErrConflict is returned while tickets
// still reference it.
func (r *PerformanceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM performances WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
