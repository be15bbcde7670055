package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
	"todo-demo/pkg/logger"
)

// foreignKeyViolation is the postgres SQLSTATE for a broken REFERENCES constraint.
const foreignKeyViolation = "23503"

// Postgres implements store.DataStore over the lists and items tables. Ids come
// from BIGSERIAL sequences, so they are never reused. Unlike the in-memory store,
// CreateItem always rejects an unknown list because of the foreign key.
type Postgres struct {
	db *sql.DB
}

var _ store.DataStore = (*Postgres)(nil)

// New returns a Postgres backend over db. The schema must already exist.
func New(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Lists returns all lists ordered by id.
func (p *Postgres) Lists(ctx context.Context) ([]models.List, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, title, created_at FROM lists ORDER BY id`)
	if err != nil {
		logger.Error(ctx, "Repository Lists failed", "error", err)
		return nil, err
	}
	defer rows.Close()
	out := make([]models.List, 0)
	for rows.Next() {
		var l models.List
		if err := rows.Scan(&l.ID, &l.Title, &l.CreatedAt); err != nil {
			logger.Error(ctx, "Repository scan list failed", "error", err)
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CreateList inserts a list.
func (p *Postgres) CreateList(ctx context.Context, title string) (models.List, error) {
	l := models.List{Title: title}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO lists (title) VALUES ($1) RETURNING id, created_at`, title).
		Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		logger.Error(ctx, "Repository CreateList failed", "error", err)
		return models.List{}, err
	}
	return l, nil
}

// UpdateList renames a list.
func (p *Postgres) UpdateList(ctx context.Context, id int64, title string) (models.List, error) {
	var l models.List
	err := p.db.QueryRowContext(ctx,
		`UPDATE lists SET title = $1 WHERE id = $2 RETURNING id, title, created_at`, title, id).
		Scan(&l.ID, &l.Title, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.List{}, &store.NotFoundError{Kind: store.KindList, ID: id}
	}
	if err != nil {
		logger.Error(ctx, "Repository UpdateList failed", "error", err, "id", id)
		return models.List{}, err
	}
	return l, nil
}

// DeleteList removes a list; ON DELETE CASCADE removes its items in the same statement.
func (p *Postgres) DeleteList(ctx context.Context, id int64) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM lists WHERE id = $1`, id); err != nil {
		logger.Error(ctx, "Repository DeleteList failed", "error", err, "id", id)
		return err
	}
	return nil
}

// Items returns the items of a list ordered by id.
func (p *Postgres) Items(ctx context.Context, listID int64) ([]models.Item, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, list_id, title, priority, completed, created_at FROM items WHERE list_id = $1 ORDER BY id`, listID)
	if err != nil {
		logger.Error(ctx, "Repository Items failed", "error", err, "list_id", listID)
		return nil, err
	}
	defer rows.Close()
	out := make([]models.Item, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			logger.Error(ctx, "Repository scan item failed", "error", err)
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// CreateItem inserts an item that is not completed.
func (p *Postgres) CreateItem(ctx context.Context, listID int64, title string, priority models.Priority) (models.Item, error) {
	it := models.Item{ListID: listID, Title: title, Priority: priority}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO items (list_id, title, priority) VALUES ($1, $2, $3) RETURNING id, created_at`,
		listID, title, string(priority)).
		Scan(&it.ID, &it.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return models.Item{}, &store.NotFoundError{Kind: store.KindList, ID: listID}
	}
	if err != nil {
		logger.Error(ctx, "Repository CreateItem failed", "error", err, "list_id", listID)
		return models.Item{}, err
	}
	return it, nil
}

// UpdateItem applies the non-nil patch fields.
func (p *Postgres) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (models.Item, error) {
	var title, priority sql.NullString
	var completed sql.NullBool
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	if patch.Priority != nil {
		priority = sql.NullString{String: string(*patch.Priority), Valid: true}
	}
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}
	row := p.db.QueryRowContext(ctx,
		`UPDATE items SET title = COALESCE($1, title), priority = COALESCE($2, priority),
		 completed = COALESCE($3, completed) WHERE id = $4
		 RETURNING id, list_id, title, priority, completed, created_at`,
		title, priority, completed, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, &store.NotFoundError{Kind: store.KindItem, ID: id}
	}
	if err != nil {
		logger.Error(ctx, "Repository UpdateItem failed", "error", err, "id", id)
		return models.Item{}, err
	}
	return it, nil
}

// DeleteItem removes an item if present.
func (p *Postgres) DeleteItem(ctx context.Context, id int64) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id); err != nil {
		logger.Error(ctx, "Repository DeleteItem failed", "error", err, "id", id)
		return err
	}
	return nil
}

// ToggleItem flips completed in a single statement.
func (p *Postgres) ToggleItem(ctx context.Context, id int64) (models.Item, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE items SET completed = NOT completed WHERE id = $1
		 RETURNING id, list_id, title, priority, completed, created_at`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, &store.NotFoundError{Kind: store.KindItem, ID: id}
	}
	if err != nil {
		logger.Error(ctx, "Repository ToggleItem failed", "error", err, "id", id)
		return models.Item{}, err
	}
	return it, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(s scanner) (models.Item, error) {
	var it models.Item
	var priority string
	if err := s.Scan(&it.ID, &it.ListID, &it.Title, &priority, &it.Completed, &it.CreatedAt); err != nil {
		return models.Item{}, err
	}
	it.Priority = models.Priority(priority)
	return it, nil
}
