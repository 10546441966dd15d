package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
)

const itemColumns = `i.id, i.title, i.description, i.completed, i.list_id, i.parent_id, i.created_at, i.updated_at`

type itemRepository struct {
	db DBTX
}

func NewItemRepository(db DBTX) repository.ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error) {
	query := `INSERT INTO todo_items (title, description, completed, list_id, parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		item.Title, item.Description, item.Completed, item.ListID, item.ParentID,
		item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo item: %w", err)
	}
	if item.Children == nil {
		item.Children = []*models.TodoItem{}
	}
	return item, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (*models.TodoItem, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items i WHERE i.id = $1`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get todo item: %w", err)
	}
	return item, nil
}

func (r *itemRepository) GetByList(ctx context.Context, listID int64) ([]*models.TodoItem, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items i WHERE i.list_id = $1 ORDER BY i.id`
	return r.query(ctx, query, listID)
}

func (r *itemRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.TodoItem, error) {
	query := `SELECT ` + itemColumns + `
		FROM todo_items i
		JOIN todo_lists l ON l.id = i.list_id
		WHERE l.owner_id = $1
		ORDER BY i.id`
	return r.query(ctx, query, ownerID)
}

func (r *itemRepository) query(ctx context.Context, query string, args ...any) ([]*models.TodoItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query todo items: %w", err)
	}
	defer rows.Close()

	items := []*models.TodoItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Update writes title, description, completion and list of the item and
// stamps updated_at.
func (r *itemRepository) Update(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error) {
	query := `UPDATE todo_items SET title=$2, description=$3, completed=$4, list_id=$5, updated_at=$6
		WHERE id=$1`
	item.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query,
		item.ID, item.Title, item.Description, item.Completed, item.ListID, item.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("todo item %d: %w", item.ID, repository.ErrNotFound)
	}
	return item, nil
}

// Delete removes a single row. Children must be deleted first.
func (r *itemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo item: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("todo item %d: %w", id, repository.ErrNotFound)
	}
	return nil
}

func scanItem(row scanner) (*models.TodoItem, error) {
	item := &models.TodoItem{Children: []*models.TodoItem{}}
	if err := row.Scan(
		&item.ID, &item.Title, &item.Description, &item.Completed,
		&item.ListID, &item.ParentID, &item.CreatedAt, &item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return item, nil
}
