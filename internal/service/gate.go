package service

import (
	"context"
	"fmt"

	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
)

// authorizeList loads a list and checks that callerID owns it. Existence
// is checked before ownership.
func (s *Service) authorizeList(ctx context.Context, repos repository.Repositories, callerID, listID int64) (*models.TodoList, error) {
	list, err := repos.Lists.GetByID(ctx, listID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, newError(KindNotFound, "Todo list not found")
	}
	if list.OwnerID != callerID {
		return nil, s.foreign("Todo list")
	}
	return list, nil
}

// authorizeItem loads an item and checks that callerID owns the list the
// item belongs to.
func (s *Service) authorizeItem(ctx context.Context, repos repository.Repositories, callerID, itemID int64) (*models.TodoItem, error) {
	item, err := repos.Items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, newError(KindNotFound, "Todo item not found")
	}
	list, err := repos.Lists.GetByID(ctx, item.ListID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		return nil, internal("failed to load todo item", fmt.Errorf("todo item %d references missing list %d", item.ID, item.ListID))
	}
	if list.OwnerID != callerID {
		return nil, s.foreign("Todo item")
	}
	return item, nil
}

func (s *Service) foreign(what string) *Error {
	if s.opts.ConcealForeign {
		return newError(KindNotFound, "%s not found", what)
	}
	return newError(KindForbidden, "Unauthorized access")
}
