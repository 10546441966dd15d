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

const listColumns = `id, title, description, owner_id, created_at, updated_at`

type listRepository struct {
	db DBTX
}

func NewListRepository(db DBTX) repository.ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) Create(ctx context.Context, list *models.TodoList) (*models.TodoList, error) {
	query := `INSERT INTO todo_lists (title, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now
	err := r.db.QueryRowContext(ctx, query,
		list.Title, list.Description, list.OwnerID, list.CreatedAt, list.UpdatedAt,
	).Scan(&list.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo list: %w", err)
	}
	if list.Items == nil {
		list.Items = []*models.TodoItem{}
	}
	return list, nil
}

func (r *listRepository) GetByID(ctx context.Context, id int64) (*models.TodoList, error) {
	query := `SELECT ` + listColumns + ` FROM todo_lists WHERE id = $1`
	list := &models.TodoList{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&list.ID, &list.Title, &list.Description, &list.OwnerID, &list.CreatedAt, &list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get todo list: %w", err)
	}
	return list, nil
}

func (r *listRepository) GetByOwner(ctx context.Context, ownerID int64) ([]*models.TodoList, error) {
	query := `SELECT ` + listColumns + ` FROM todo_lists WHERE owner_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query todo lists: %w", err)
	}
	defer rows.Close()

	lists := []*models.TodoList{}
	for rows.Next() {
		list := &models.TodoList{}
		if err := rows.Scan(
			&list.ID, &list.Title, &list.Description, &list.OwnerID, &list.CreatedAt, &list.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan todo list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

func (r *listRepository) Update(ctx context.Context, list *models.TodoList) (*models.TodoList, error) {
	query := `UPDATE todo_lists SET title=$2, description=$3, updated_at=$4 WHERE id=$1`
	list.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, list.ID, list.Title, list.Description, list.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo list: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("todo list %d: %w", list.ID, repository.ErrNotFound)
	}
	return list, nil
}

// Delete removes the list row only; its items must already be gone.
func (r *listRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todo_lists WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo list: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("todo list %d: %w", id, repository.ErrNotFound)
	}
	return nil
}
