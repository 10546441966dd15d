package models

import "time"

// TodoList is a named container of items owned by exactly one user.
type TodoList struct {
	ID          int64       `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description" db:"description"`
	OwnerID     int64       `json:"-" db:"owner_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Items       []*TodoItem `json:"items"`
}

// TodoItem is a task node. Items nest under a parent item of the same list.
type TodoItem struct {
	ID          int64       `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description" db:"description"`
	Completed   bool        `json:"completed" db:"completed"`
	ListID      int64       `json:"list_id" db:"list_id"`
	ParentID    *int64      `json:"parent_id" db:"parent_id"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
	Children    []*TodoItem `json:"children"`
}

// IsTopLevel returns true if the item has no parent
func (i *TodoItem) IsTopLevel() bool {
	return i.ParentID == nil
}
