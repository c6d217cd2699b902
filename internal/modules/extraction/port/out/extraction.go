package out

import (
	"context"

	"iromo/internal/modules/extraction/domain"
)

// ExtractionStore is the relational store for provenance records.
// Implementations honor an active platform/tx transaction in ctx.
type ExtractionStore interface {
	Insert(ctx context.Context, extraction domain.Extraction) error
	Get(ctx context.Context, id string) (domain.Extraction, error)
	Delete(ctx context.Context, id string) error
	ListForParent(ctx context.Context, parentTopicID string) ([]domain.Extraction, error)
}

// TopicGateway is the slice of the topic repository the tracker needs:
// existence checks at creation time and the parent updated_at bump.
type TopicGateway interface {
	Exists(ctx context.Context, topicID string) (bool, error)
	Touch(ctx context.Context, topicID string) error
}
