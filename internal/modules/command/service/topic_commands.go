package service

import (
	"context"
	"fmt"

	"iromo/internal/modules/topic/domain"
	topicout "iromo/internal/modules/topic/port/out"
	topicservice "iromo/internal/modules/topic/service"
	"iromo/internal/platform/tx"
)

// CreateTopicCommand creates a topic. Redo reinserts the captured topic so
// the id and timestamps survive an undo/redo round trip.
type CreateTopicCommand struct {
	topics   *topicservice.Service
	body     string
	parentID *string
	title    string

	created domain.Topic
}

func NewCreateTopicCommand(topics *topicservice.Service, body string, parentID *string, title string) *CreateTopicCommand {
	return &CreateTopicCommand{topics: topics, body: body, parentID: parentID, title: title}
}

func (c *CreateTopicCommand) Execute(ctx context.Context) error {
	topic, err := c.topics.Create(ctx, c.body, c.parentID, c.title)
	if err != nil {
		return err
	}
	c.created = topic
	return nil
}

func (c *CreateTopicCommand) Undo(ctx context.Context) error {
	_, _, err := c.topics.Delete(ctx, c.created.ID)
	return err
}

func (c *CreateTopicCommand) Redo(ctx context.Context) error {
	return c.topics.Restore(ctx, c.created, c.body)
}

func (c *CreateTopicCommand) Description() string {
	return fmt.Sprintf("create topic %q", c.created.Title)
}

// CreatedTopic exposes the topic allocated by Execute.
func (c *CreateTopicCommand) CreatedTopic() domain.Topic {
	return c.created
}

type RenameTopicCommand struct {
	topics   *topicservice.Service
	topicID  string
	newTitle string

	oldTitle string
}

func NewRenameTopicCommand(topics *topicservice.Service, topicID, newTitle string) *RenameTopicCommand {
	return &RenameTopicCommand{topics: topics, topicID: topicID, newTitle: newTitle}
}

func (c *RenameTopicCommand) Execute(ctx context.Context) error {
	topic, err := c.topics.Get(ctx, c.topicID)
	if err != nil {
		return err
	}
	if err := c.topics.Rename(ctx, c.topicID, c.newTitle); err != nil {
		return err
	}
	c.oldTitle = topic.Title
	return nil
}

func (c *RenameTopicCommand) Undo(ctx context.Context) error {
	return c.topics.Rename(ctx, c.topicID, c.oldTitle)
}

func (c *RenameTopicCommand) Description() string {
	return fmt.Sprintf("rename topic to %q", c.newTitle)
}

// SaveBodyCommand overwrites a topic body, keeping the previous content for
// undo. Interactive typing goes through the background saver instead; this
// command is for saves that should land on the undo stack.
type SaveBodyCommand struct {
	topics  *topicservice.Service
	topicID string
	newBody string

	oldBody string
}

func NewSaveBodyCommand(topics *topicservice.Service, topicID, newBody string) *SaveBodyCommand {
	return &SaveBodyCommand{topics: topics, topicID: topicID, newBody: newBody}
}

func (c *SaveBodyCommand) Execute(ctx context.Context) error {
	old, err := c.topics.GetBody(ctx, c.topicID)
	if err != nil {
		return err
	}
	if err := c.topics.SaveBody(ctx, c.topicID, c.newBody); err != nil {
		return err
	}
	c.oldBody = old
	return nil
}

func (c *SaveBodyCommand) Undo(ctx context.Context) error {
	return c.topics.SaveBody(ctx, c.topicID, c.oldBody)
}

func (c *SaveBodyCommand) Redo(ctx context.Context) error {
	return c.topics.SaveBody(ctx, c.topicID, c.newBody)
}

func (c *SaveBodyCommand) Description() string {
	return "edit topic body"
}

type MoveTopicCommand struct {
	topics      *topicservice.Service
	topicID     string
	newParentID *string
	newOrder    int

	oldParentID *string
	oldOrder    int
}

func NewMoveTopicCommand(topics *topicservice.Service, topicID string, newParentID *string, newOrder int) *MoveTopicCommand {
	return &MoveTopicCommand{topics: topics, topicID: topicID, newParentID: newParentID, newOrder: newOrder}
}

func (c *MoveTopicCommand) Execute(ctx context.Context) error {
	topic, err := c.topics.Get(ctx, c.topicID)
	if err != nil {
		return err
	}
	if err := c.topics.Move(ctx, c.topicID, c.newParentID, c.newOrder); err != nil {
		return err
	}
	c.oldParentID = topic.ParentID
	c.oldOrder = topic.DisplayOrder
	return nil
}

func (c *MoveTopicCommand) Undo(ctx context.Context) error {
	return c.topics.Move(ctx, c.topicID, c.oldParentID, c.oldOrder)
}

func (c *MoveTopicCommand) Description() string {
	return "move topic"
}

// DeleteTopicsCommand deletes one or more subtrees. Execute snapshots every
// removed topic with its body plus every extraction record touching the
// subtrees, so Undo can rebuild all of it with the original ids. IDs that are
// descendants of other ids in the same batch are skipped rather than deleted
// twice.
type DeleteTopicsCommand struct {
	topics   *topicservice.Service
	restorer ExtractionRestorer
	txm      tx.Manager
	topicIDs []string

	removed    []domain.Detail
	removedExt []topicout.RemovedExtraction
}

// ExtractionRestorer reinserts extraction records captured by a delete.
type ExtractionRestorer interface {
	RestoreRemoved(ctx context.Context, removed []topicout.RemovedExtraction) error
}

func NewDeleteTopicsCommand(topics *topicservice.Service, restorer ExtractionRestorer, txm tx.Manager, topicIDs []string) *DeleteTopicsCommand {
	return &DeleteTopicsCommand{topics: topics, restorer: restorer, txm: txm, topicIDs: topicIDs}
}

func (c *DeleteTopicsCommand) Execute(ctx context.Context) error {
	c.removed = nil
	c.removedExt = nil
	gone := make(map[string]bool)
	for _, topicID := range c.topicIDs {
		if gone[topicID] {
			continue
		}
		details, err := c.topics.SubtreeWithBodies(ctx, topicID)
		if err != nil {
			return err
		}
		_, ext, err := c.topics.Delete(ctx, topicID)
		if err != nil {
			return err
		}
		for _, detail := range details {
			gone[detail.ID] = true
		}
		c.removed = append(c.removed, details...)
		c.removedExt = append(c.removedExt, ext...)
	}
	return nil
}

// Undo rebuilds every removed topic and extraction in one transaction, so a
// mid-restore failure rolls the whole rebuild back and a later retry starts
// from a clean slate.
func (c *DeleteTopicsCommand) Undo(ctx context.Context) error {
	ordered := orderParentsFirst(c.removed)
	return c.txm.Within(ctx, func(ctx context.Context) error {
		for _, detail := range ordered {
			if err := c.topics.Restore(ctx, detail.Topic, detail.Body); err != nil {
				return err
			}
		}
		return c.restorer.RestoreRemoved(ctx, c.removedExt)
	})
}

// orderParentsFirst arranges the snapshot so every topic follows its parent
// unless the parent is outside the snapshot. Each captured subtree is already
// pre-ordered, but a selection listing a descendant before its ancestor
// captures the descendant's subtree first, and restoring in that order would
// violate the parent_id foreign key.
func orderParentsFirst(removed []domain.Detail) []domain.Detail {
	pending := make(map[string]bool, len(removed))
	for _, detail := range removed {
		pending[detail.ID] = true
	}
	ordered := make([]domain.Detail, 0, len(removed))
	for len(ordered) < len(removed) {
		progressed := false
		for _, detail := range removed {
			if !pending[detail.ID] {
				continue
			}
			if detail.ParentID != nil && pending[*detail.ParentID] {
				continue
			}
			ordered = append(ordered, detail)
			pending[detail.ID] = false
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return ordered
}

func (c *DeleteTopicsCommand) Description() string {
	if len(c.topicIDs) == 1 {
		return "delete topic"
	}
	return fmt.Sprintf("delete %d topics", len(c.topicIDs))
}
