package usecase

import (
	"context"

	commandservice "iromo/internal/modules/command/service"
	"iromo/internal/modules/extraction/dto"
	extractionin "iromo/internal/modules/extraction/port/in"
	"iromo/internal/modules/extraction/service"
	topicservice "iromo/internal/modules/topic/service"
)

type Interactor struct {
	svc    *service.Service
	topics *topicservice.Service
	engine *commandservice.Engine
}

func NewInteractor(svc *service.Service, topics *topicservice.Service, engine *commandservice.Engine) extractionin.Usecase {
	return &Interactor{svc: svc, topics: topics, engine: engine}
}

func (i *Interactor) Extract(ctx context.Context, input dto.ExtractInput) (dto.ExtractOutput, error) {
	cmd := commandservice.NewExtractTextCommand(
		i.topics, i.svc, input.ParentTopicID, input.StartChar, input.EndChar, input.Text)
	if err := i.engine.Execute(ctx, cmd); err != nil {
		return dto.ExtractOutput{}, err
	}
	return dto.ExtractOutput{
		ExtractionID: cmd.Extraction().ID,
		ChildTopicID: cmd.ChildTopic().ID,
		ChildTitle:   cmd.ChildTopic().Title,
	}, nil
}

func (i *Interactor) DeleteExtraction(ctx context.Context, extractionID string) error {
	return i.engine.Execute(ctx, commandservice.NewDeleteExtractionCommand(i.svc, extractionID))
}

func (i *Interactor) ListForParent(ctx context.Context, parentTopicID string) ([]dto.ExtractionOutput, error) {
	extractions, err := i.svc.ListForParent(ctx, parentTopicID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExtractionOutput, 0, len(extractions))
	for _, e := range extractions {
		out = append(out, dto.ExtractionOutput{
			ID:            e.ID,
			ParentTopicID: e.ParentTopicID,
			ChildTopicID:  e.ChildTopicID,
			StartChar:     e.StartChar,
			EndChar:       e.EndChar,
		})
	}
	return out, nil
}
