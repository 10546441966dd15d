package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Kerhoff/todotree/internal/auth"
	"github.com/Kerhoff/todotree/internal/metrics"
	"github.com/Kerhoff/todotree/internal/models"
	"github.com/Kerhoff/todotree/internal/repository"
	"github.com/Kerhoff/todotree/internal/testutil"
)

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	store, _ := testutil.NewStore(t)
	tokens := auth.NewTokenManager("test-secret", time.Hour, auth.NewDenylist())
	return New(store, tokens, auth.NewHasher(bcrypt.MinCost), metrics.New(), testutil.Logger(), opts)
}

func register(t *testing.T, svc *Service, username string) *models.User {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@x.com",
		Password: "Passw0rd!",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res.User
}

func expectKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestRegisterReturnsUsableToken(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "alice@x.com", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if res.Token == "" || res.User.ID == 0 {
		t.Fatalf("expected token and persisted user, got %+v", res)
	}
	if res.User.PasswordHash == "Passw0rd!" {
		t.Fatalf("expected password to be stored hashed")
	}

	_, userID, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != res.User.ID {
		t.Fatalf("expected token for user %d, got %d", res.User.ID, userID)
	}
}

func TestRegisterConflicts(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	register(t, svc, "alice")

	_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@x.com", Password: "Passw0rd!"})
	expectKind(t, err, KindConflict)
	if MessageOf(err) != "Username already taken" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}

	_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@x.com", Password: "Passw0rd!"})
	expectKind(t, err, KindConflict)
	if MessageOf(err) != "Email already registered" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		want string
	}{
		{"missing username", RegisterInput{Email: "a@x.com", Password: "Passw0rd!"}, "username is required"},
		{"short username", RegisterInput{Username: "al", Email: "a@x.com", Password: "Passw0rd!"}, "username must be at least 3"},
		{"bad username chars", RegisterInput{Username: "al ice", Email: "a@x.com", Password: "Passw0rd!"}, "username may only contain"},
		{"bad email", RegisterInput{Username: "alice", Email: "nope", Password: "Passw0rd!"}, "valid email"},
		{"short password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "Pa1"}, "password must be at least 8"},
		{"weak password", RegisterInput{Username: "alice", Email: "a@x.com", Password: "password"}, "one letter and one digit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.in)
			expectKind(t, err, KindValidation)
			if !strings.Contains(MessageOf(err), tc.want) {
				t.Fatalf("expected message containing %q, got %q", tc.want, MessageOf(err))
			}
		})
	}

	_, err := svc.Register(ctx, RegisterInput{})
	expectKind(t, err, KindValidation)
	if msg := MessageOf(err); strings.Count(msg, "is required") != 3 {
		t.Fatalf("expected all three missing fields to be reported, got %q", msg)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	user := register(t, svc, "alice")

	_, err := svc.Login(ctx, LoginInput{Username: "alice"})
	expectKind(t, err, KindValidation)

	_, err = svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"})
	expectKind(t, err, KindAuthentication)

	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "Passw0rd!"})
	expectKind(t, err, KindAuthentication)

	res, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.User.LastLogin == nil {
		t.Fatalf("expected last_login to be set in the response")
	}

	current, err := svc.CurrentUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("current user: %v", err)
	}
	if current.LastLogin == nil {
		t.Fatalf("expected last_login to be persisted")
	}
}

func TestCurrentUserMissing(t *testing.T) {
	svc := newTestService(t, Options{})
	_, err := svc.CurrentUser(context.Background(), 404)
	expectKind(t, err, KindNotFound)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()

	_, _, err := svc.Authenticate(ctx, "")
	expectKind(t, err, KindUnauthenticated)
	_, _, err = svc.Authenticate(ctx, "garbage")
	expectKind(t, err, KindUnauthenticated)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	register(t, svc, "alice")

	res, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "Passw0rd!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, _, err := svc.Authenticate(ctx, res.Token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	svc.Logout(ctx, claims)

	_, _, err = svc.Authenticate(ctx, res.Token)
	expectKind(t, err, KindUnauthenticated)
	if MessageOf(err) != "Token has been revoked" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}
}

func TestAvailability(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	register(t, svc, "alice")

	if ok, err := svc.UsernameAvailable(ctx, "alice"); err != nil || ok {
		t.Fatalf("expected alice to be taken, ok=%v err=%v", ok, err)
	}
	if ok, err := svc.UsernameAvailable(ctx, "bob"); err != nil || !ok {
		t.Fatalf("expected bob to be free, ok=%v err=%v", ok, err)
	}
	if ok, err := svc.EmailAvailable(ctx, "alice@x.com"); err != nil || ok {
		t.Fatalf("expected alice@x.com to be taken, ok=%v err=%v", ok, err)
	}
	_, err := svc.UsernameAvailable(ctx, " ")
	expectKind(t, err, KindValidation)
	_, err = svc.EmailAvailable(ctx, "")
	expectKind(t, err, KindValidation)
}

func TestCreateListRoundTrip(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")

	created, err := svc.CreateList(ctx, alice.ID, ListInput{Title: "Groceries"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	got, err := svc.GetList(ctx, alice.ID, created.ID)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	if got.Title != "Groceries" || got.Description != nil {
		t.Fatalf("unexpected list %+v", got)
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Fatalf("expected empty, non-nil items, got %v", got.Items)
	}

	_, err = svc.CreateList(ctx, alice.ID, ListInput{Title: "   "})
	expectKind(t, err, KindValidation)
}

func TestUpdateList(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home", Description: strPtr("old")})

	updated, err := svc.UpdateList(ctx, alice.ID, list.ID, ListInput{Title: "House"})
	if err != nil {
		t.Fatalf("update list: %v", err)
	}
	if updated.Title != "House" || updated.Description != nil {
		t.Fatalf("expected title overwritten and description cleared, got %+v", updated)
	}
	if updated.UpdatedAt.Before(list.UpdatedAt) {
		t.Fatalf("expected updated_at to move forward")
	}
}

// buildTree creates root -> child -> grandchild, plus a second child.
func buildTree(t *testing.T, svc *Service, ownerID, listID int64) (root, child, grandchild, sibling *models.TodoItem) {
	t.Helper()
	ctx := context.Background()
	var err error
	if root, err = svc.CreateItem(ctx, ownerID, listID, ItemInput{Title: "Clean"}); err != nil {
		t.Fatalf("create root: %v", err)
	}
	if child, err = svc.CreateSubitem(ctx, ownerID, root.ID, ItemInput{Title: "Vacuum"}); err != nil {
		t.Fatalf("create child: %v", err)
	}
	if grandchild, err = svc.CreateSubitem(ctx, ownerID, child.ID, ItemInput{Title: "Empty bag"}); err != nil {
		t.Fatalf("create grandchild: %v", err)
	}
	if sibling, err = svc.CreateSubitem(ctx, ownerID, root.ID, ItemInput{Title: "Mop"}); err != nil {
		t.Fatalf("create sibling: %v", err)
	}
	return root, child, grandchild, sibling
}

func completionByID(t *testing.T, svc *Service, ownerID, listID int64) map[int64]bool {
	t.Helper()
	store := svc.store.Repositories()
	items, err := store.Items.GetByList(context.Background(), listID)
	if err != nil {
		t.Fatalf("load items: %v", err)
	}
	out := make(map[int64]bool, len(items))
	for _, item := range items {
		out[item.ID] = item.Completed
	}
	return out
}

func TestSubitemsInheritList(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	root, child, grandchild, _ := buildTree(t, svc, alice.ID, list.ID)

	if child.ListID != list.ID || grandchild.ListID != list.ID {
		t.Fatalf("expected subitems to live in list %d", list.ID)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Fatalf("expected child parent %d, got %v", root.ID, child.ParentID)
	}

	items, err := svc.ListItems(ctx, alice.ID, list.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].ID != root.ID {
		t.Fatalf("expected a single root, got %d items", len(items))
	}
	if len(items[0].Children) != 2 || len(items[0].Children[0].Children) != 1 {
		t.Fatalf("expected nested children to be embedded")
	}
}

func TestCompletionCascade(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	root, child, grandchild, sibling := buildTree(t, svc, alice.ID, list.ID)
	other, _ := svc.CreateItem(ctx, alice.ID, list.ID, ItemInput{Title: "Unrelated"})

	// Complete one leaf on its own first.
	if _, err := svc.UpdateItem(ctx, alice.ID, sibling.ID, ItemPatch{Completed: boolPtr(true)}); err != nil {
		t.Fatalf("complete sibling: %v", err)
	}

	updated, err := svc.UpdateItem(ctx, alice.ID, root.ID, ItemPatch{Completed: boolPtr(true)})
	if err != nil {
		t.Fatalf("complete root: %v", err)
	}
	if !updated.Completed || !updated.Children[0].Completed {
		t.Fatalf("expected response tree to reflect completion")
	}
	state := completionByID(t, svc, alice.ID, list.ID)
	for _, id := range []int64{root.ID, child.ID, grandchild.ID, sibling.ID} {
		if !state[id] {
			t.Fatalf("expected item %d to be completed", id)
		}
	}
	if state[other.ID] {
		t.Fatalf("expected unrelated item to stay incomplete")
	}

	if _, err := svc.UpdateItem(ctx, alice.ID, root.ID, ItemPatch{Completed: boolPtr(false)}); err != nil {
		t.Fatalf("reopen root: %v", err)
	}
	state = completionByID(t, svc, alice.ID, list.ID)
	for _, id := range []int64{root.ID, child.ID, grandchild.ID, sibling.ID} {
		if state[id] {
			t.Fatalf("expected item %d to be reset to incomplete", id)
		}
	}
}

func TestCompletionCascadeFromMiddle(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	root, child, grandchild, sibling := buildTree(t, svc, alice.ID, list.ID)

	if _, err := svc.UpdateItem(ctx, alice.ID, child.ID, ItemPatch{Completed: boolPtr(true)}); err != nil {
		t.Fatalf("complete child: %v", err)
	}
	state := completionByID(t, svc, alice.ID, list.ID)
	if !state[child.ID] || !state[grandchild.ID] {
		t.Fatalf("expected child subtree to be completed")
	}
	if state[root.ID] || state[sibling.ID] {
		t.Fatalf("expected ancestors and siblings to be untouched")
	}
}

func TestUpdateItemFields(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	item, _ := svc.CreateItem(ctx, alice.ID, list.ID, ItemInput{Title: "Clean", Description: strPtr("kitchen")})

	updated, err := svc.UpdateItem(ctx, alice.ID, item.ID, ItemPatch{Title: strPtr(" Scrub ")})
	if err != nil {
		t.Fatalf("update title: %v", err)
	}
	if updated.Title != "Scrub" || updated.Description == nil || *updated.Description != "kitchen" {
		t.Fatalf("expected only the title to change, got %+v", updated)
	}
	if updated.Completed {
		t.Fatalf("expected completion to be untouched")
	}

	updated, err = svc.UpdateItem(ctx, alice.ID, item.ID, ItemPatch{SetDescription: true})
	if err != nil {
		t.Fatalf("clear description: %v", err)
	}
	if updated.Description != nil {
		t.Fatalf("expected description to be cleared")
	}

	_, err = svc.UpdateItem(ctx, alice.ID, item.ID, ItemPatch{Title: strPtr("")})
	expectKind(t, err, KindValidation)
}

func TestDeleteListRemovesAllItems(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	buildTree(t, svc, alice.ID, list.ID)
	if _, err := svc.CreateItem(ctx, alice.ID, list.ID, ItemInput{Title: "Second root"}); err != nil {
		t.Fatalf("create second root: %v", err)
	}

	if err := svc.DeleteList(ctx, alice.ID, list.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}
	_, err := svc.GetList(ctx, alice.ID, list.ID)
	expectKind(t, err, KindNotFound)

	items, err := svc.store.Repositories().Items.GetByList(ctx, list.ID)
	if err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected every item of the list to be gone, %d left", len(items))
	}
}

func TestDeleteItemRemovesSubtree(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	root, child, _, sibling := buildTree(t, svc, alice.ID, list.ID)

	if err := svc.DeleteItem(ctx, alice.ID, child.ID); err != nil {
		t.Fatalf("delete child: %v", err)
	}
	state := completionByID(t, svc, alice.ID, list.ID)
	if len(state) != 2 {
		t.Fatalf("expected root and sibling to remain, have %d items", len(state))
	}
	if _, ok := state[root.ID]; !ok {
		t.Fatalf("expected root to remain")
	}
	if _, ok := state[sibling.ID]; !ok {
		t.Fatalf("expected sibling to remain")
	}

	err := svc.DeleteItem(ctx, alice.ID, child.ID)
	expectKind(t, err, KindNotFound)
}

func TestMoveItem(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	bob := register(t, svc, "bob")
	home, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	work, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Work"})
	bobs, _ := svc.CreateList(ctx, bob.ID, ListInput{Title: "Bob"})
	root, child, grandchild, _ := buildTree(t, svc, alice.ID, home.ID)

	_, err := svc.MoveItem(ctx, alice.ID, root.ID, nil)
	expectKind(t, err, KindValidation)

	missing := int64(999)
	_, err = svc.MoveItem(ctx, alice.ID, root.ID, &missing)
	expectKind(t, err, KindForbidden)

	_, err = svc.MoveItem(ctx, alice.ID, root.ID, &bobs.ID)
	expectKind(t, err, KindForbidden)

	_, err = svc.MoveItem(ctx, alice.ID, child.ID, &work.ID)
	expectKind(t, err, KindValidation)
	if MessageOf(err) != "Only top-level tasks can be moved" {
		t.Fatalf("unexpected message %q", MessageOf(err))
	}

	moved, err := svc.MoveItem(ctx, alice.ID, root.ID, &work.ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.ListID != work.ID {
		t.Fatalf("expected item in list %d, got %d", work.ID, moved.ListID)
	}

	left, _ := svc.ListItems(ctx, alice.ID, home.ID)
	if len(left) != 0 {
		t.Fatalf("expected nothing left behind in the old list, got %d roots", len(left))
	}
	for _, id := range []int64{child.ID, grandchild.ID} {
		item, err := svc.store.Repositories().Items.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("reload %d: %v", id, err)
		}
		if item.ListID != work.ID {
			t.Fatalf("expected descendant %d to move along, still in list %d", id, item.ListID)
		}
	}
}

func TestForeignAccessIsConcealed(t *testing.T) {
	svc := newTestService(t, Options{ConcealForeign: true})
	assertForeignAccess(t, svc, KindNotFound)
}

func TestForeignAccessIsForbidden(t *testing.T) {
	svc := newTestService(t, Options{ConcealForeign: false})
	assertForeignAccess(t, svc, KindForbidden)
}

func assertForeignAccess(t *testing.T, svc *Service, kind ErrorKind) {
	t.Helper()
	ctx := context.Background()
	alice := register(t, svc, "alice")
	bob := register(t, svc, "bob")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	item, _ := svc.CreateItem(ctx, alice.ID, list.ID, ItemInput{Title: "Clean"})
	bobList, _ := svc.CreateList(ctx, bob.ID, ListInput{Title: "Bob"})

	checks := map[string]func() error{
		"get list":    func() error { _, err := svc.GetList(ctx, bob.ID, list.ID); return err },
		"update list": func() error { _, err := svc.UpdateList(ctx, bob.ID, list.ID, ListInput{Title: "x"}); return err },
		"delete list": func() error { return svc.DeleteList(ctx, bob.ID, list.ID) },
		"list items":  func() error { _, err := svc.ListItems(ctx, bob.ID, list.ID); return err },
		"create item": func() error { _, err := svc.CreateItem(ctx, bob.ID, list.ID, ItemInput{Title: "x"}); return err },
		"update item": func() error {
			_, err := svc.UpdateItem(ctx, bob.ID, item.ID, ItemPatch{Completed: boolPtr(true)})
			return err
		},
		"delete item":    func() error { return svc.DeleteItem(ctx, bob.ID, item.ID) },
		"create subitem": func() error { _, err := svc.CreateSubitem(ctx, bob.ID, item.ID, ItemInput{Title: "x"}); return err },
		"move item":      func() error { _, err := svc.MoveItem(ctx, bob.ID, item.ID, &bobList.ID); return err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			expectKind(t, check(), kind)
		})
	}

	lists, err := svc.ListLists(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list bob's lists: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != bobList.ID {
		t.Fatalf("expected bob to see only his own list")
	}

	got, err := svc.GetList(ctx, alice.ID, list.ID)
	if err != nil {
		t.Fatalf("alice get list: %v", err)
	}
	if got.Title != "Home" || len(got.Items) != 1 || got.Items[0].Completed {
		t.Fatalf("expected alice's data to be untouched, got %+v", got)
	}
}

func TestListListsEmbedsTrees(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	home, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	work, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Work"})
	buildTree(t, svc, alice.ID, home.ID)

	lists, err := svc.ListLists(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list lists: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("expected 2 lists, got %d", len(lists))
	}
	for _, list := range lists {
		switch list.ID {
		case home.ID:
			if len(list.Items) != 1 || len(list.Items[0].Children) != 2 {
				t.Fatalf("expected home tree to be embedded")
			}
		case work.ID:
			if list.Items == nil || len(list.Items) != 0 {
				t.Fatalf("expected work to have an empty item slice")
			}
		}
	}
}

func TestFailedCascadeRollsBack(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx := context.Background()
	alice := register(t, svc, "alice")
	list, _ := svc.CreateList(ctx, alice.ID, ListInput{Title: "Home"})
	root, _, _, _ := buildTree(t, svc, alice.ID, list.ID)

	svc.store = failingStore{Store: svc.store, failAfter: 2}
	_, err := svc.UpdateItem(ctx, alice.ID, root.ID, ItemPatch{Completed: boolPtr(true)})
	expectKind(t, err, KindInternal)

	for id, done := range completionByID(t, svc, alice.ID, list.ID) {
		if done {
			t.Fatalf("expected item %d to be rolled back to incomplete", id)
		}
	}
}

// failingStore fails item updates after a number of successful ones.
type failingStore struct {
	repository.Store
	failAfter int
}

func (f failingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	return f.Store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		repos.Items = &failingItems{ItemRepository: repos.Items, remaining: f.failAfter}
		return fn(ctx, repos)
	})
}

type failingItems struct {
	repository.ItemRepository
	remaining int
}

func (f *failingItems) Update(ctx context.Context, item *models.TodoItem) (*models.TodoItem, error) {
	if f.remaining == 0 {
		return nil, context.DeadlineExceeded
	}
	f.remaining--
	return f.ItemRepository.Update(ctx, item)
}

func TestTokenSweeperStopsWithContext(t *testing.T) {
	svc := newTestService(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartTokenSweeper(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected sweeper to stop after cancel")
	}
}

func TestTokenSweeperDisabledWithoutDenylist(t *testing.T) {
	svc := newTestService(t, Options{})
	svc.tokens = auth.NewTokenManager("test-secret", time.Hour, nil)

	done := make(chan struct{})
	go func() {
		svc.StartTokenSweeper(context.Background(), time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected sweeper to return at once without a denylist")
	}
}
