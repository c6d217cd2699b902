package usecase

import (
	"context"

	commandservice "iromo/internal/modules/command/service"
	"iromo/internal/modules/topic/domain"
	"iromo/internal/modules/topic/dto"
	topicin "iromo/internal/modules/topic/port/in"
	"iromo/internal/modules/topic/service"
	"iromo/internal/platform/tx"
)

type Interactor struct {
	svc      *service.Service
	saver    *service.BodySaver
	engine   *commandservice.Engine
	restorer commandservice.ExtractionRestorer
	txm      tx.Manager
}

func NewInteractor(
	svc *service.Service,
	saver *service.BodySaver,
	engine *commandservice.Engine,
	restorer commandservice.ExtractionRestorer,
	txm tx.Manager,
) topicin.Usecase {
	return &Interactor{svc: svc, saver: saver, engine: engine, restorer: restorer, txm: txm}
}

func (i *Interactor) CreateTopic(ctx context.Context, input dto.CreateTopicInput) (dto.TopicOutput, error) {
	cmd := commandservice.NewCreateTopicCommand(i.svc, input.Body, input.ParentID, input.Title)
	if err := i.engine.Execute(ctx, cmd); err != nil {
		return dto.TopicOutput{}, err
	}
	return toOutput(cmd.CreatedTopic()), nil
}

func (i *Interactor) RenameTopic(ctx context.Context, input dto.RenameTopicInput) error {
	return i.engine.Execute(ctx, commandservice.NewRenameTopicCommand(i.svc, input.TopicID, input.NewTitle))
}

func (i *Interactor) SaveBody(ctx context.Context, input dto.SaveBodyInput) error {
	return i.engine.Execute(ctx, commandservice.NewSaveBodyCommand(i.svc, input.TopicID, input.Body))
}

func (i *Interactor) ScheduleBodySave(input dto.SaveBodyInput) {
	i.saver.Schedule(input.TopicID, input.Body)
}

func (i *Interactor) MoveTopic(ctx context.Context, input dto.MoveTopicInput) error {
	return i.engine.Execute(ctx, commandservice.NewMoveTopicCommand(i.svc, input.TopicID, input.NewParentID, input.NewOrder))
}

func (i *Interactor) DeleteTopics(ctx context.Context, input dto.DeleteTopicsInput) error {
	return i.engine.Execute(ctx, commandservice.NewDeleteTopicsCommand(i.svc, i.restorer, i.txm, input.TopicIDs))
}

func (i *Interactor) GetTopic(ctx context.Context, topicID string) (dto.TopicOutput, error) {
	topic, err := i.svc.Get(ctx, topicID)
	if err != nil {
		return dto.TopicOutput{}, err
	}
	return toOutput(topic), nil
}

func (i *Interactor) GetBody(ctx context.Context, topicID string) (string, error) {
	return i.svc.GetBody(ctx, topicID)
}

func (i *Interactor) ListChildren(ctx context.Context, parentID *string) ([]dto.TopicOutput, error) {
	topics, err := i.svc.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return toOutputs(topics), nil
}

func (i *Interactor) Hierarchy(ctx context.Context) ([]dto.TopicOutput, error) {
	topics, err := i.svc.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return toOutputs(topics), nil
}

func (i *Interactor) Subtree(ctx context.Context, topicID string) ([]dto.TopicOutput, error) {
	topics, err := i.svc.Subtree(ctx, topicID)
	if err != nil {
		return nil, err
	}
	return toOutputs(topics), nil
}

func toOutput(topic domain.Topic) dto.TopicOutput {
	return dto.TopicOutput{
		ID:           topic.ID,
		ParentID:     topic.ParentID,
		Title:        topic.Title,
		CreatedAt:    topic.CreatedAt,
		UpdatedAt:    topic.UpdatedAt,
		DisplayOrder: topic.DisplayOrder,
	}
}

func toOutputs(topics []domain.Topic) []dto.TopicOutput {
	out := make([]dto.TopicOutput, 0, len(topics))
	for _, topic := range topics {
		out = append(out, toOutput(topic))
	}
	return out
}
