package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	collectionout "iromo/internal/modules/collection/adapter/out"
	collectionservice "iromo/internal/modules/collection/service"
	extractionout "iromo/internal/modules/extraction/adapter/out"
	extractionservice "iromo/internal/modules/extraction/service"
	topicout "iromo/internal/modules/topic/adapter/out"
	"iromo/internal/modules/topic/service"
	"iromo/internal/platform/clock"
	"iromo/internal/platform/config"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/events"
	"iromo/internal/platform/id"
	"iromo/internal/platform/tx"

	_ "modernc.org/sqlite"
)

type env struct {
	topics      *service.Service
	extractions *extractionservice.Service
	bodiesPath  string
	bus         *events.Bus
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg, err := config.New(filepath.Join(t.TempDir(), "col"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	collection, err := collectionservice.NewService(collectionout.Migrations(), nil).
		Open(context.Background(), cfg, true)
	if err != nil {
		t.Fatalf("open collection: %v", err)
	}
	t.Cleanup(func() { _ = collection.Close() })

	bus := events.NewBus()
	txm := tx.NewSQLiteManager(collection.DB)
	extractionStore := extractionout.NewSQLiteExtractionStore(collection.DB)
	topics := service.NewService(
		clock.SystemClock{}, id.UUID{},
		topicout.NewSQLiteTopicStore(collection.DB),
		topicout.NewFileBodyStore(collection.BodiesPath),
		extractionStore, txm, bus, nil,
	)
	extractions := extractionservice.NewService(
		id.UUID{}, extractionStore,
		extractionout.NewTopicServiceGateway(topics), txm, bus, nil,
	)
	return &env{topics: topics, extractions: extractions, bodiesPath: cfg.BodiesPath, bus: bus}
}

func (e *env) bodyFiles(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(e.bodiesPath)
	if err != nil {
		t.Fatalf("read bodies dir: %v", err)
	}
	return len(entries)
}

func TestCreateWritesRowAndBodyFile(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	topic, err := e.topics.Create(ctx, "First line\nmore text", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if topic.Title != "First line" {
		t.Fatalf("derived title = %q", topic.Title)
	}
	if topic.DisplayOrder != 0 {
		t.Fatalf("first root topic should have order 0, got %d", topic.DisplayOrder)
	}

	body, err := e.topics.GetBody(ctx, topic.ID)
	if err != nil {
		t.Fatalf("get body: %v", err)
	}
	if body != "First line\nmore text" {
		t.Fatalf("body round trip failed: %q", body)
	}
	if e.bodyFiles(t) != 1 {
		t.Fatalf("expected one body file")
	}
}

func TestCreateUnderMissingParentLeavesNothingBehind(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	missing := "no-such-id"

	_, err := e.topics.Create(context.Background(), "body", &missing, "")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if e.bodyFiles(t) != 0 {
		t.Fatalf("failed create must not leave a body file")
	}
}

func TestRenameRejectsBlankTitle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	topic, err := e.topics.Create(ctx, "body", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.topics.Rename(ctx, topic.ID, "   "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := e.topics.Rename(ctx, topic.ID, "Renamed"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := e.topics.Get(ctx, topic.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Renamed" {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestSaveBodyKeepsTitle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	topic, err := e.topics.Create(ctx, "Original", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := e.topics.SaveBody(ctx, topic.ID, "Completely new text"); err != nil {
		t.Fatalf("save body: %v", err)
	}
	got, err := e.topics.Get(ctx, topic.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Original" {
		t.Fatalf("saving a body must not rewrite the title, got %q", got.Title)
	}
	body, err := e.topics.GetBody(ctx, topic.ID)
	if err != nil {
		t.Fatalf("get body: %v", err)
	}
	if body != "Completely new text" {
		t.Fatalf("body = %q", body)
	}
}

func TestChildrenOrderedByDisplayOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	parent, err := e.topics.Create(ctx, "parent", nil, "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	var ids []string
	for _, body := range []string{"a", "b", "c"} {
		child, err := e.topics.Create(ctx, body, &parent.ID, "")
		if err != nil {
			t.Fatalf("create child %s: %v", body, err)
		}
		ids = append(ids, child.ID)
	}

	children, err := e.topics.Children(ctx, &parent.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	if len(children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(children))
	}
	for i, child := range children {
		if child.ID != ids[i] {
			t.Fatalf("child %d = %s, want %s", i, child.ID, ids[i])
		}
		if child.DisplayOrder != i {
			t.Fatalf("child %d order = %d", i, child.DisplayOrder)
		}
	}
}

func TestMoveReordersSiblings(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	parent, err := e.topics.Create(ctx, "parent", nil, "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	var ids []string
	for _, body := range []string{"a", "b", "c"} {
		child, err := e.topics.Create(ctx, body, &parent.ID, "")
		if err != nil {
			t.Fatalf("create child: %v", err)
		}
		ids = append(ids, child.ID)
	}

	// c to the front: expect c, a, b.
	if err := e.topics.Move(ctx, ids[2], &parent.ID, 0); err != nil {
		t.Fatalf("move: %v", err)
	}
	children, err := e.topics.Children(ctx, &parent.ID)
	if err != nil {
		t.Fatalf("children: %v", err)
	}
	want := []string{ids[2], ids[0], ids[1]}
	for i, child := range children {
		if child.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, child.ID, want[i])
		}
		if child.DisplayOrder != i {
			t.Fatalf("position %d order = %d, orders must stay dense", i, child.DisplayOrder)
		}
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.topics.Create(ctx, "a", nil, "")
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := e.topics.Create(ctx, "b", &a.ID, "")
	if err != nil {
		t.Fatalf("create b: %v", err)
	}
	c, err := e.topics.Create(ctx, "c", &b.ID, "")
	if err != nil {
		t.Fatalf("create c: %v", err)
	}

	if err := e.topics.Move(ctx, a.ID, &a.ID, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("move under self: expected ErrInvalidInput, got %v", err)
	}
	if err := e.topics.Move(ctx, a.ID, &c.ID, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("move under descendant: expected ErrInvalidInput, got %v", err)
	}
}

func TestSubtreeIsPreOrder(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	root, _ := e.topics.Create(ctx, "root", nil, "")
	c1, _ := e.topics.Create(ctx, "c1", &root.ID, "")
	g1, _ := e.topics.Create(ctx, "g1", &c1.ID, "")
	c2, _ := e.topics.Create(ctx, "c2", &root.ID, "")

	subtree, err := e.topics.Subtree(ctx, root.ID)
	if err != nil {
		t.Fatalf("subtree: %v", err)
	}
	want := []string{root.ID, c1.ID, g1.ID, c2.ID}
	if len(subtree) != len(want) {
		t.Fatalf("subtree size = %d, want %d", len(subtree), len(want))
	}
	for i, topic := range subtree {
		if topic.ID != want[i] {
			t.Fatalf("subtree[%d] = %s, want %s", i, topic.ID, want[i])
		}
	}
}

func TestDeleteCascadesTopicsExtractionsAndBodies(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	root, err := e.topics.Create(ctx, "root body text", nil, "")
	if err != nil {
		t.Fatalf("create root: %v", err)
	}
	child, err := e.topics.Create(ctx, "child", &root.ID, "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	grand, err := e.topics.Create(ctx, "grand", &child.ID, "")
	if err != nil {
		t.Fatalf("create grand: %v", err)
	}
	if _, err := e.extractions.Create(ctx, root.ID, child.ID, 0, 3); err != nil {
		t.Fatalf("create extraction: %v", err)
	}

	removed, removedExt, err := e.topics.Delete(ctx, root.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed topics, got %d", len(removed))
	}
	if removed[0].ID != root.ID {
		t.Fatalf("removed snapshot must be pre-order, first = %s", removed[0].ID)
	}
	if len(removedExt) != 1 {
		t.Fatalf("expected 1 removed extraction, got %d", len(removedExt))
	}

	for _, topicID := range []string{root.ID, child.ID, grand.ID} {
		if _, err := e.topics.Get(ctx, topicID); !errors.Is(err, apperrors.ErrNotFound) {
			t.Fatalf("topic %s should be gone, got %v", topicID, err)
		}
	}
	if e.bodyFiles(t) != 0 {
		t.Fatalf("body files should be removed after delete")
	}
	ext, err := e.extractions.ListForParent(ctx, root.ID)
	if err != nil {
		t.Fatalf("list extractions: %v", err)
	}
	if len(ext) != 0 {
		t.Fatalf("extraction records should be gone, got %d", len(ext))
	}
}

func TestDeleteRemovesExtractionsWhereVictimIsChild(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	parent, err := e.topics.Create(ctx, "parent body", nil, "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := e.topics.Create(ctx, "child", &parent.ID, "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := e.extractions.Create(ctx, parent.ID, child.ID, 0, 5); err != nil {
		t.Fatalf("create extraction: %v", err)
	}

	// Deleting only the child must still remove the record pointing at it.
	_, removedExt, err := e.topics.Delete(ctx, child.ID)
	if err != nil {
		t.Fatalf("delete child: %v", err)
	}
	if len(removedExt) != 1 {
		t.Fatalf("expected the child-side extraction captured, got %d", len(removedExt))
	}
	ext, err := e.extractions.ListForParent(ctx, parent.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(ext) != 0 {
		t.Fatalf("dangling extraction left behind")
	}
}

func TestRestoreBringsBackExactTopic(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	topic, err := e.topics.Create(ctx, "body text", nil, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	removed, _, err := e.topics.Delete(ctx, topic.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}

	if err := e.topics.Restore(ctx, removed[0], "body text"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, err := e.topics.Get(ctx, topic.ID)
	if err != nil {
		t.Fatalf("get restored: %v", err)
	}
	if got.ID != topic.ID || got.BodyRef != topic.BodyRef || !got.CreatedAt.Equal(topic.CreatedAt) {
		t.Fatalf("restore changed identity: got %+v want %+v", got, topic)
	}
}
