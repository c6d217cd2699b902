package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	collectionout "iromo/internal/modules/collection/adapter/out"
	collectionservice "iromo/internal/modules/collection/service"
	"iromo/internal/modules/command/service"
	extractionout "iromo/internal/modules/extraction/adapter/out"
	extractionservice "iromo/internal/modules/extraction/service"
	topicout "iromo/internal/modules/topic/adapter/out"
	topicdomain "iromo/internal/modules/topic/domain"
	topicport "iromo/internal/modules/topic/port/out"
	topicservice "iromo/internal/modules/topic/service"
	"iromo/internal/platform/clock"
	"iromo/internal/platform/config"
	"iromo/internal/platform/events"
	"iromo/internal/platform/id"
	"iromo/internal/platform/tx"

	_ "modernc.org/sqlite"
)

type cmdEnv struct {
	topics      *topicservice.Service
	topicStore  topicport.TopicStore
	extractions *extractionservice.Service
	txm         tx.Manager
}

func newCmdEnv(t *testing.T) *cmdEnv {
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
	topicStore := topicout.NewSQLiteTopicStore(collection.DB)
	extractionStore := extractionout.NewSQLiteExtractionStore(collection.DB)
	topics := topicservice.NewService(
		clock.SystemClock{}, id.UUID{},
		topicStore,
		topicout.NewFileBodyStore(collection.BodiesPath),
		extractionStore, txm, bus, nil,
	)
	extractions := extractionservice.NewService(
		id.UUID{}, extractionStore,
		extractionout.NewTopicServiceGateway(topics), txm, bus, nil,
	)
	return &cmdEnv{topics: topics, topicStore: topicStore, extractions: extractions, txm: txm}
}

func TestUndoDeleteRestoresDescendantListedFirst(t *testing.T) {
	t.Parallel()
	e := newCmdEnv(t)
	ctx := context.Background()

	parent, err := e.topics.Create(ctx, "parent body", nil, "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := e.topics.Create(ctx, "child body", &parent.ID, "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}
	if _, err := e.extractions.Create(ctx, parent.ID, child.ID, 0, 4); err != nil {
		t.Fatalf("create extraction: %v", err)
	}

	// Child listed before its ancestor, so the snapshot captures the child's
	// subtree first.
	cmd := service.NewDeleteTopicsCommand(e.topics, e.extractions, e.txm, []string{child.ID, parent.ID})
	if err := cmd.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if ok, _ := e.topics.Exists(ctx, parent.ID); ok {
		t.Fatalf("parent should be gone after delete")
	}

	if err := cmd.Undo(ctx); err != nil {
		t.Fatalf("undo: %v", err)
	}

	restored, err := e.topics.Get(ctx, child.ID)
	if err != nil {
		t.Fatalf("child not restored: %v", err)
	}
	if restored.ParentID == nil || *restored.ParentID != parent.ID {
		t.Fatalf("restored child parent = %v, want %s", restored.ParentID, parent.ID)
	}
	if _, err := e.topics.Get(ctx, parent.ID); err != nil {
		t.Fatalf("parent not restored: %v", err)
	}
	exts, err := e.extractions.ListForParent(ctx, parent.ID)
	if err != nil {
		t.Fatalf("list extractions: %v", err)
	}
	if len(exts) != 1 || exts[0].ChildTopicID != child.ID {
		t.Fatalf("extraction not restored: %+v", exts)
	}
}

func TestUndoDeleteIsAllOrNothing(t *testing.T) {
	t.Parallel()
	e := newCmdEnv(t)
	ctx := context.Background()

	parent, err := e.topics.Create(ctx, "parent body", nil, "")
	if err != nil {
		t.Fatalf("create parent: %v", err)
	}
	child, err := e.topics.Create(ctx, "child body", &parent.ID, "")
	if err != nil {
		t.Fatalf("create child: %v", err)
	}

	cmd := service.NewDeleteTopicsCommand(e.topics, e.extractions, e.txm, []string{parent.ID})
	if err := cmd.Execute(ctx); err != nil {
		t.Fatalf("execute: %v", err)
	}

	// Occupy the child's id so the restore fails partway through.
	now := time.Now().UTC()
	squatter := topicdomain.Topic{
		ID:        child.ID,
		Title:     "squatter",
		BodyRef:   "squatter.txt",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.topicStore.Insert(ctx, squatter); err != nil {
		t.Fatalf("insert conflicting topic: %v", err)
	}

	if err := cmd.Undo(ctx); err == nil {
		t.Fatalf("undo should fail on the id conflict")
	}
	if ok, _ := e.topics.Exists(ctx, parent.ID); ok {
		t.Fatalf("failed undo must not leave the parent behind")
	}
}
