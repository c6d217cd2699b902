package in

import (
	"context"

	"iromo/internal/modules/topic/dto"
)

// Usecase is the topic surface the CLI and TUI talk to. Mutations run
// through the command engine so every one of them is undoable; queries read
// the store directly. ScheduleBodySave is the exception on the mutation
// side: it feeds the background saver and stays off the undo stack.
type Usecase interface {
	CreateTopic(ctx context.Context, input dto.CreateTopicInput) (dto.TopicOutput, error)
	RenameTopic(ctx context.Context, input dto.RenameTopicInput) error
	SaveBody(ctx context.Context, input dto.SaveBodyInput) error
	ScheduleBodySave(input dto.SaveBodyInput)
	MoveTopic(ctx context.Context, input dto.MoveTopicInput) error
	DeleteTopics(ctx context.Context, input dto.DeleteTopicsInput) error

	GetTopic(ctx context.Context, topicID string) (dto.TopicOutput, error)
	GetBody(ctx context.Context, topicID string) (string, error)
	ListChildren(ctx context.Context, parentID *string) ([]dto.TopicOutput, error)
	Hierarchy(ctx context.Context) ([]dto.TopicOutput, error)
	Subtree(ctx context.Context, topicID string) ([]dto.TopicOutput, error)
}
