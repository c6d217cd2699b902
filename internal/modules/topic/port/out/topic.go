package out

import (
	"context"
	"time"

	"iromo/internal/modules/topic/domain"
)

// TopicStore is the relational side of the repository. Implementations must
// honor an active platform/tx transaction carried in ctx.
type TopicStore interface {
	Insert(ctx context.Context, topic domain.Topic) error
	Get(ctx context.Context, id string) (domain.Topic, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) error
	Touch(ctx context.Context, id string, updatedAt time.Time) error
	Children(ctx context.Context, parentID *string) ([]domain.Topic, error)
	Hierarchy(ctx context.Context) ([]domain.Topic, error)
	Subtree(ctx context.Context, id string) ([]domain.Topic, error)
	NextDisplayOrder(ctx context.Context, parentID *string) (int, error)
	Move(ctx context.Context, id string, newParentID *string, newOrder int, updatedAt time.Time) error
	DeleteAll(ctx context.Context, ids []string) error
}

// BodyStore is the flat-file side of the repository.
type BodyStore interface {
	Write(ref, body string) error
	Read(ref string) (string, error)
	Delete(ref string) error
	Path(ref string) string
}

// RemovedExtraction is the provenance record captured during a cascading
// delete so the caller can restore it on undo.
type RemovedExtraction struct {
	ID            string
	ParentTopicID string
	ChildTopicID  string
	StartChar     int
	EndChar       int
}

// ExtractionPurger removes every extraction touching a set of topics. The
// extraction module provides the implementation; the topic repository drives
// it inside the delete transaction.
type ExtractionPurger interface {
	ListTouching(ctx context.Context, topicIDs []string) ([]RemovedExtraction, error)
	DeleteTouching(ctx context.Context, topicIDs []string) error
}
