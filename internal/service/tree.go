package service

import (
	"context"

	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
)

func loadTree(ctx context.Context, repos repository.Repositories, listID int64) (*models.Tree, error) {
	items, err := repos.Items.GetByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	return models.NewTree(items), nil
}

// cascadeCompletion sets completed on rootID and every descendant,
// depth-first, and returns how many items were written.
func cascadeCompletion(ctx context.Context, repos repository.Repositories, tree *models.Tree, rootID int64, completed bool) (int, error) {
	subtree := tree.Subtree(rootID)
	for _, item := range subtree {
		item.Completed = completed
		if _, err := repos.Items.Update(ctx, item); err != nil {
			return 0, err
		}
	}
	return len(subtree), nil
}

// deleteSubtree removes rootID and its descendants, children before
// parents, and returns how many items were removed.
func deleteSubtree(ctx context.Context, repos repository.Repositories, tree *models.Tree, rootID int64) (int, error) {
	doomed := tree.PostOrder(rootID)
	for _, item := range doomed {
		if err := repos.Items.Delete(ctx, item.ID); err != nil {
			return 0, err
		}
	}
	return len(doomed), nil
}

func nonNil(items []*models.TodoItem) []*models.TodoItem {
	if items == nil {
		return []*models.TodoItem{}
	}
	return items
}
