package repository

import (
	"context"
	"time"

	"github.com/Kerhoff/todotree/internal/models"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
}

// ListRepository defines the interface for todo list data operations
type ListRepository interface {
	Create(ctx context.Context, list *models.TodoList) (*models.TodoList, error)
	GetByID(ctx context.Context, id int64) (*models.TodoList, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.TodoList, error)
	Update(ctx context.Context, list *models.TodoList) (*models.TodoList, error)
	Delete(ctx context.Context, id int64) error
}

// ItemRepository defines the interface for todo item data operations
type ItemRepository interface {
	Create(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error)
	GetByID(ctx context.Context, id int64) (*models.TodoItem, error)
	GetByList(ctx context.Context, listID int64) ([]*models.TodoItem, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.TodoItem, error)
	Update(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error)
	Delete(ctx context.Context, id int64) error
}

// Repositories groups the repositories bound to one connection pool or to
// one open transaction.
type Repositories struct {
	Users UserRepository
	Lists ListRepository
	Items ItemRepository
}

// Store hands out repositories and runs units of work. Everything fn does
// through the repositories it receives commits together or not at all.
type Store interface {
	Repositories() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}
