package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
)

// CreateList persists a new, empty list owned by callerID.
func (s *Service) CreateList(ctx context.Context, callerID int64, in ListInput) (*models.TodoList, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	list, err := s.store.Repositories().Lists.Create(ctx, &models.TodoList{
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     callerID,
	})
	if err != nil {
		return nil, internal("failed to create todo list", err)
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "list_id": list.ID}).Info("Created todo list")
	return list, nil
}

// ListLists returns every list of callerID with its item tree embedded.
func (s *Service) ListLists(ctx context.Context, callerID int64) ([]*models.TodoList, error) {
	var lists []*models.TodoList
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if lists, err = repos.Lists.GetByOwner(ctx, callerID); err != nil {
			return err
		}
		items, err := repos.Items.GetByOwner(ctx, callerID)
		if err != nil {
			return err
		}
		roots := models.NewTree(items).RootsByList()
		for _, list := range lists {
			list.Items = nonNil(roots[list.ID])
		}
		return nil
	})
	if err != nil {
		return nil, asError(err, "failed to get todo lists")
	}
	return lists, nil
}

// GetList returns one list with its item tree embedded.
func (s *Service) GetList(ctx context.Context, callerID, listID int64) (*models.TodoList, error) {
	var list *models.TodoList
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if list, err = s.authorizeList(ctx, repos, callerID, listID); err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, list.ID)
		if err != nil {
			return err
		}
		list.Items = nonNil(tree.Roots())
		return nil
	})
	if err != nil {
		return nil, asError(err, "failed to get todo list")
	}
	return list, nil
}

// UpdateList overwrites title and description of a list.
func (s *Service) UpdateList(ctx context.Context, callerID, listID int64, in ListInput) (*models.TodoList, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	var list *models.TodoList
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		if list, err = s.authorizeList(ctx, repos, callerID, listID); err != nil {
			return err
		}
		list.Title = in.Title
		list.Description = in.Description
		if list, err = repos.Lists.Update(ctx, list); err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, list.ID)
		if err != nil {
			return err
		}
		list.Items = nonNil(tree.Roots())
		return nil
	})
	if err != nil {
		return nil, asError(err, "failed to update todo list")
	}
	return list, nil
}

// DeleteList removes a list together with every item in it.
func (s *Service) DeleteList(ctx context.Context, callerID, listID int64) error {
	var removed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		list, err := s.authorizeList(ctx, repos, callerID, listID)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, list.ID)
		if err != nil {
			return err
		}
		for _, root := range tree.Roots() {
			n, err := deleteSubtree(ctx, repos, tree, root.ID)
			if err != nil {
				return err
			}
			removed += n
		}
		return repos.Lists.Delete(ctx, list.ID)
	})
	if err != nil {
		return asError(err, "failed to delete todo list")
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "list_id": listID, "items": removed}).Info("Deleted todo list")
	return nil
}

// ListItems returns the top-level items of a list with their subtrees.
func (s *Service) ListItems(ctx context.Context, callerID, listID int64) ([]*models.TodoItem, error) {
	var items []*models.TodoItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		list, err := s.authorizeList(ctx, repos, callerID, listID)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, list.ID)
		if err != nil {
			return err
		}
		items = nonNil(tree.Roots())
		return nil
	})
	if err != nil {
		return nil, asError(err, "failed to get todo items")
	}
	return items, nil
}

// CreateItem adds a top-level item to a list.
func (s *Service) CreateItem(ctx context.Context, callerID, listID int64, in ItemInput) (*models.TodoItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	var item *models.TodoItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		list, err := s.authorizeList(ctx, repos, callerID, listID)
		if err != nil {
			return err
		}
		item, err = repos.Items.Create(ctx, &models.TodoItem{
			Title:       in.Title,
			Description: in.Description,
			ListID:      list.ID,
		})
		return err
	})
	if err != nil {
		return nil, asError(err, "failed to create todo item")
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "list_id": listID, "item_id": item.ID}).Info("Created todo item")
	return item, nil
}

// CreateSubitem adds a child under parentID, in the parent's list.
func (s *Service) CreateSubitem(ctx context.Context, callerID, parentID int64, in ItemInput) (*models.TodoItem, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.validateStruct(in); err != nil {
		return nil, err
	}

	var item *models.TodoItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		parent, err := s.authorizeItem(ctx, repos, callerID, parentID)
		if err != nil {
			return err
		}
		item, err = repos.Items.Create(ctx, &models.TodoItem{
			Title:       in.Title,
			Description: in.Description,
			ListID:      parent.ListID,
			ParentID:    &parent.ID,
		})
		return err
	})
	if err != nil {
		return nil, asError(err, "failed to create subitem")
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "parent_id": parentID, "item_id": item.ID}).Info("Created todo subitem")
	return item, nil
}

// UpdateItem applies a patch to an item. Setting completion overrides the
// flag on the item and on every descendant, whatever their prior state.
func (s *Service) UpdateItem(ctx context.Context, callerID, itemID int64, patch ItemPatch) (*models.TodoItem, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := s.validateTitle(title); err != nil {
			return nil, err
		}
		patch.Title = &title
	}

	var (
		node     *models.TodoItem
		cascaded int
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		item, err := s.authorizeItem(ctx, repos, callerID, itemID)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, item.ListID)
		if err != nil {
			return err
		}
		node, _ = tree.Get(item.ID)

		if patch.Title != nil {
			node.Title = *patch.Title
		}
		if patch.SetDescription {
			node.Description = patch.Description
		}
		if patch.Completed == nil {
			_, err = repos.Items.Update(ctx, node)
			return err
		}

		cascaded, err = cascadeCompletion(ctx, repos, tree, node.ID, *patch.Completed)
		return err
	})
	if err != nil {
		return nil, asError(err, "failed to update todo item")
	}

	if patch.Completed != nil {
		s.metrics.ObserveCascade(cascaded)
		s.logger.WithFields(logrus.Fields{
			"user_id":   callerID,
			"item_id":   itemID,
			"completed": *patch.Completed,
			"items":     cascaded,
		}).Info("Updated todo item completion")
	}
	return node, nil
}

// DeleteItem removes an item and its whole subtree.
func (s *Service) DeleteItem(ctx context.Context, callerID, itemID int64) error {
	var removed int
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		item, err := s.authorizeItem(ctx, repos, callerID, itemID)
		if err != nil {
			return err
		}
		tree, err := loadTree(ctx, repos, item.ListID)
		if err != nil {
			return err
		}
		removed, err = deleteSubtree(ctx, repos, tree, item.ID)
		return err
	})
	if err != nil {
		return asError(err, "failed to delete todo item")
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "item_id": itemID, "items": removed}).Info("Deleted todo item")
	return nil
}

// MoveItem reassigns a top-level item, and its descendants with it, to
// another list of the same owner.
func (s *Service) MoveItem(ctx context.Context, callerID, itemID int64, targetListID *int64) (*models.TodoItem, error) {
	var node *models.TodoItem
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		item, err := s.authorizeItem(ctx, repos, callerID, itemID)
		if err != nil {
			return err
		}
		if targetListID == nil || *targetListID == 0 {
			return newError(KindValidation, "New list ID is required")
		}
		target, err := repos.Lists.GetByID(ctx, *targetListID)
		if err != nil {
			return err
		}
		if target == nil || target.OwnerID != callerID {
			return newError(KindForbidden, "Invalid list ID or unauthorized access")
		}
		if !item.IsTopLevel() {
			return newError(KindValidation, "Only top-level tasks can be moved")
		}

		tree, err := loadTree(ctx, repos, item.ListID)
		if err != nil {
			return err
		}
		for _, n := range tree.Subtree(item.ID) {
			n.ListID = target.ID
			if _, err := repos.Items.Update(ctx, n); err != nil {
				return err
			}
		}
		node, _ = tree.Get(item.ID)
		return nil
	})
	if err != nil {
		return nil, asError(err, "failed to move todo item")
	}

	s.logger.WithFields(logrus.Fields{"user_id": callerID, "item_id": itemID, "list_id": *targetListID}).Info("Moved todo item")
	return node, nil
}
