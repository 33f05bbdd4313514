package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/theatre-reservation/internal/model"
)

// PlayFilter narrows play listings.  Title matches case-insensitively as a
// substring; GenreIDs and ActorIDs match plays linked to any of the ids.
type PlayFilter struct {
	Title    string
	GenreIDs []uint64
	ActorIDs []uint64
}

// PlayRepo persists plays and their genre/actor links.
type PlayRepo struct {
	db *sql.DB
}

func NewPlayRepo(db *sql.DB) *PlayRepo { return &PlayRepo{db: db} }

// Create inserts the play and its links in one transaction.  Unknown genre
// or actor ids yield ErrInvalidReference.
func (r *PlayRepo) Create(ctx context.Context, p *model.Play) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO plays (title, description, image) VALUES (?, ?, ?)",
			p.Title, p.Description, p.Image)
		if err != nil {
			return translate(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		return replaceLinks(ctx, tx, p)
	})
}

// Update rewrites title, description and both link sets.  The image is
// left untouched; use SetImage for that.
func (r *PlayRepo) Update(ctx context.Context, p *model.Play) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists bool
		if err := tx.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM plays WHERE id = ?)", p.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "UPDATE plays SET title = ?, description = ? WHERE id = ?",
			p.Title, p.Description, p.ID); err != nil {
			return translate(err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM play_genres WHERE play_id = ?", p.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM play_actors WHERE play_id = ?", p.ID); err != nil {
			return err
		}
		return replaceLinks(ctx, tx, p)
	})
}

func replaceLinks(ctx context.Context, tx *sql.Tx, p *model.Play) error {
	for _, g := range p.Genres {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_genres (play_id, genre_id) VALUES (?, ?)", p.ID, g.ID); err != nil {
			return translate(err)
		}
	}
	for _, a := range p.Actors {
		if _, err := tx.ExecContext(ctx, "INSERT INTO play_actors (play_id, actor_id) VALUES (?, ?)", p.ID, a.ID); err != nil {
			return translate(err)
		}
	}
	return nil
}

// SetImage stores the media path of the play's poster.
func (r *PlayRepo) SetImage(ctx context.Context, id uint64, path string) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE plays SET image = ? WHERE id = ?", path, id); err != nil {
		return err
	}
	_, err := r.GetByID(ctx, id)
	return err
}

// GetByID loads a play with its genres and actors.
func (r *PlayRepo) GetByID(ctx context.Context, id uint64) (*model.Play, error) {
	var p model.Play
	var image sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT id, title, description, image FROM plays WHERE id = ?", id).
		Scan(&p.ID, &p.Title, &p.Description, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	plays := []*model.Play{&p}
	if err := loadPlayRelations(ctx, r.db, plays); err != nil {
		return nil, err
	}
	return &p, nil
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// List returns one page of plays matching f, with genres and actors loaded.
func (r *PlayRepo) List(ctx context.Context, f PlayFilter, pg Page) ([]model.Play, int64, error) {
	where := []string{}
	args := []any{}
	if f.Title != "" {
		where = append(where, "LOWER(p.title) LIKE ?")
		args = append(args, "%"+likeEscaper.Replace(strings.ToLower(f.Title))+"%")
	}
	if len(f.GenreIDs) > 0 {
		where = append(where, "p.id IN (SELECT play_id FROM play_genres WHERE genre_id IN ("+placeholders(len(f.GenreIDs))+"))")
		args = append(args, uint64Args(f.GenreIDs)...)
	}
	if len(f.ActorIDs) > 0 {
		where = append(where, "p.id IN (SELECT play_id FROM play_actors WHERE actor_id IN ("+placeholders(len(f.ActorIDs))+"))")
		args = append(args, uint64Args(f.ActorIDs)...)
	}
	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plays p WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataArgs := append(append([]any{}, args...), pg.Limit(), pg.Offset())
	rows, err := r.db.QueryContext(ctx,
		"SELECT p.id, p.title, p.description, p.image FROM plays p WHERE "+cond+" ORDER BY p.id LIMIT ? OFFSET ?",
		dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Play, 0, pg.Size)
	for rows.Next() {
		var p model.Play
		var image sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &image); err != nil {
			return nil, 0, err
		}
		if image.Valid {
			img := image.String
			p.Image = &img
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ptrs := make([]*model.Play, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := loadPlayRelations(ctx, r.db, ptrs); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Delete removes a play.  ErrConflict is returned while performances
// still reference it.
func (r *PlayRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plays WHERE id = ?", id)
	if err != nil {
		return translate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// loadPlayRelations fills Genres and Actors on every play with two
// queries regardless of how many plays are passed.
func loadPlayRelations(ctx context.Context, q queryer, plays []*model.Play) error {
	if len(plays) == 0 {
		return nil
	}
	// several entries may share a play id, e.g. tickets for one performance
	byID := make(map[uint64][]*model.Play, len(plays))
	ids := make([]uint64, 0, len(plays))
	for _, p := range plays {
		p.Genres = []model.Genre{}
		p.Actors = []model.Actor{}
		if _, ok := byID[p.ID]; !ok {
			ids = append(ids, p.ID)
		}
		byID[p.ID] = append(byID[p.ID], p)
	}
	in := placeholders(len(ids))

	rows, err := q.QueryContext(ctx,
		"SELECT pg.play_id, g.id, g.name FROM play_genres pg JOIN genres g ON g.id = pg.genre_id WHERE pg.play_id IN ("+in+") ORDER BY g.id",
		uint64Args(ids)...)
	if err != nil {
		return err
	}
	for rows.Next() {
		var playID uint64
		var g model.Genre
		if err := rows.Scan(&playID, &g.ID, &g.Name); err != nil {
			rows.Close()
			return err
		}
		for _, p := range byID[playID] {
			p.Genres = append(p.Genres, g)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	rows, err = q.QueryContext(ctx,
		"SELECT pa.play_id, a.id, a.first_name, a.last_name FROM play_actors pa JOIN actors a ON a.id = pa.actor_id WHERE pa.play_id IN ("+in+") ORDER BY a.id",
		uint64Args(ids)...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var playID uint64
		var a model.Actor
		if err := rows.Scan(&playID, &a.ID, &a.FirstName, &a.LastName); err != nil {
			return err
		}
		for _, p := range byID[playID] {
			p.Actors = append(p.Actors, a)
		}
	}
	return rows.Err()
}
