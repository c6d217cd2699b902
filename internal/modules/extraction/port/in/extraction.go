package in

import (
	"context"

	"iromo/internal/modules/extraction/dto"
)

// Usecase is the extraction surface. Extract and DeleteExtraction run
// through the command engine; ListForParent is a plain query.
type Usecase interface {
	Extract(ctx context.Context, input dto.ExtractInput) (dto.ExtractOutput, error)
	DeleteExtraction(ctx context.Context, extractionID string) error
	ListForParent(ctx context.Context, parentTopicID string) ([]dto.ExtractionOutput, error)
}
