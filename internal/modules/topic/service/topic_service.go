package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"iromo/internal/modules/topic/domain"
	topicout "iromo/internal/modules/topic/port/out"
	"iromo/internal/platform/clock"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/events"
	"iromo/internal/platform/id"
	"iromo/internal/platform/logging"
	"iromo/internal/platform/tx"
)

// Service is the topic repository: every topic-level mutation and query,
// keeping the database row and the body file of a topic consistent.
type Service struct {
	clock  clock.Clock
	idGen  id.Generator
	topics topicout.TopicStore
	bodies topicout.BodyStore
	purger topicout.ExtractionPurger
	txm    tx.Manager
	bus    *events.Bus
	logger *zap.Logger
}

func NewService(
	clk clock.Clock,
	idGen id.Generator,
	topics topicout.TopicStore,
	bodies topicout.BodyStore,
	purger topicout.ExtractionPurger,
	txm tx.Manager,
	bus *events.Bus,
	logger *zap.Logger,
) *Service {
	return &Service{
		clock:  clk,
		idGen:  idGen,
		topics: topics,
		bodies: bodies,
		purger: purger,
		txm:    txm,
		bus:    bus,
		logger: logging.OrNop(logger),
	}
}

// Create allocates a new topic. The body file is written before the row is
// inserted; when the insert fails the orphaned file is removed best-effort
// so the topic never partially exists.
func (s *Service) Create(ctx context.Context, body string, parentID *string, title string) (domain.Topic, error) {
	if title == "" {
		title = domain.DeriveTitle(body)
	}
	now := s.clock.Now()
	topic := domain.Topic{
		ID:        s.idGen.New(),
		ParentID:  parentID,
		Title:     title,
		BodyRef:   s.idGen.New() + ".txt",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.bodies.Write(topic.BodyRef, body); err != nil {
		return domain.Topic{}, err
	}
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		if parentID != nil {
			ok, err := s.topics.Exists(ctx, *parentID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("parent topic %s: %w", *parentID, apperrors.ErrNotFound)
			}
		}
		order, err := s.topics.NextDisplayOrder(ctx, parentID)
		if err != nil {
			return err
		}
		topic.DisplayOrder = order
		return s.topics.Insert(ctx, topic)
	})
	if err != nil {
		s.cleanupBody(topic.BodyRef)
		return domain.Topic{}, err
	}

	s.publishCreated(topic)
	return topic, nil
}

// Restore recreates a topic with its exact id, body ref, timestamps and
// display order. Used by undo of delete and redo of create; callers restore
// parents before children.
func (s *Service) Restore(ctx context.Context, topic domain.Topic, body string) error {
	if err := s.bodies.Write(topic.BodyRef, body); err != nil {
		return err
	}
	if err := s.txm.Within(ctx, func(ctx context.Context) error {
		return s.topics.Insert(ctx, topic)
	}); err != nil {
		s.cleanupBody(topic.BodyRef)
		return err
	}
	s.publishCreated(topic)
	return nil
}

func (s *Service) Rename(ctx context.Context, topicID, newTitle string) error {
	if strings.TrimSpace(newTitle) == "" {
		return fmt.Errorf("%w: title must not be blank", apperrors.ErrInvalidInput)
	}
	if err := s.txm.Within(ctx, func(ctx context.Context) error {
		return s.topics.UpdateTitle(ctx, topicID, newTitle, s.clock.Now())
	}); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.TopicRenamed, TopicID: topicID, Title: newTitle})
	return nil
}

// SaveBody overwrites the body file and bumps updated_at. The title is not
// altered, and extraction offsets recorded against the old body are kept
// as-is.
func (s *Service) SaveBody(ctx context.Context, topicID, body string) error {
	topic, err := s.topics.Get(ctx, topicID)
	if err != nil {
		return err
	}
	if err := s.bodies.Write(topic.BodyRef, body); err != nil {
		return err
	}
	if err := s.txm.Within(ctx, func(ctx context.Context) error {
		return s.topics.Touch(ctx, topicID, s.clock.Now())
	}); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.TopicBodySaved, TopicID: topicID})
	return nil
}

func (s *Service) GetBody(ctx context.Context, topicID string) (string, error) {
	topic, err := s.topics.Get(ctx, topicID)
	if err != nil {
		return "", err
	}
	return s.bodies.Read(topic.BodyRef)
}

func (s *Service) Get(ctx context.Context, topicID string) (domain.Topic, error) {
	return s.topics.Get(ctx, topicID)
}

func (s *Service) Exists(ctx context.Context, topicID string) (bool, error) {
	return s.topics.Exists(ctx, topicID)
}

// Touch bumps updated_at; the extraction tracker uses it when a new
// extraction is recorded against a parent.
func (s *Service) Touch(ctx context.Context, topicID string) error {
	return s.topics.Touch(ctx, topicID, s.clock.Now())
}

func (s *Service) Children(ctx context.Context, parentID *string) ([]domain.Topic, error) {
	return s.topics.Children(ctx, parentID)
}

func (s *Service) Hierarchy(ctx context.Context) ([]domain.Topic, error) {
	return s.topics.Hierarchy(ctx)
}

func (s *Service) Subtree(ctx context.Context, topicID string) ([]domain.Topic, error) {
	return s.topics.Subtree(ctx, topicID)
}

// SubtreeWithBodies returns the pre-order subtree with each body loaded,
// which is what a delete command snapshots for undo.
func (s *Service) SubtreeWithBodies(ctx context.Context, topicID string) ([]domain.Detail, error) {
	subtree, err := s.topics.Subtree(ctx, topicID)
	if err != nil {
		return nil, err
	}
	details := make([]domain.Detail, 0, len(subtree))
	for _, topic := range subtree {
		body, err := s.bodies.Read(topic.BodyRef)
		if err != nil {
			return nil, err
		}
		details = append(details, domain.Detail{Topic: topic, Body: body})
	}
	return details, nil
}

// Move reparents and/or reorders a topic. Moving a topic under itself or one
// of its own descendants is rejected.
func (s *Service) Move(ctx context.Context, topicID string, newParentID *string, newOrder int) error {
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		if newParentID != nil {
			if err := s.checkNoCycle(ctx, topicID, *newParentID); err != nil {
				return err
			}
		}
		return s.topics.Move(ctx, topicID, newParentID, newOrder, s.clock.Now())
	})
	if err != nil {
		return err
	}
	parent := ""
	if newParentID != nil {
		parent = *newParentID
	}
	s.bus.Publish(events.Event{Type: events.TopicMoved, TopicID: topicID, ParentID: parent})
	return nil
}

func (s *Service) checkNoCycle(ctx context.Context, topicID, newParentID string) error {
	if newParentID == topicID {
		return fmt.Errorf("%w: cannot move topic %s under itself", apperrors.ErrInvalidInput, topicID)
	}
	ancestor, err := s.topics.Get(ctx, newParentID)
	if err != nil {
		return err
	}
	for ancestor.ParentID != nil {
		if *ancestor.ParentID == topicID {
			return fmt.Errorf("%w: cannot move topic %s under its descendant %s",
				apperrors.ErrInvalidInput, topicID, newParentID)
		}
		if ancestor, err = s.topics.Get(ctx, *ancestor.ParentID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the topic and every descendant, plus every extraction
// touching any of them, in one transaction. Body files are deleted only
// after the transaction commits, best-effort. The removed topics (pre-order)
// and extraction records are returned so callers can snapshot for undo.
func (s *Service) Delete(ctx context.Context, topicID string) ([]domain.Topic, []topicout.RemovedExtraction, error) {
	var (
		removed    []domain.Topic
		removedExt []topicout.RemovedExtraction
	)
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		subtree, err := s.topics.Subtree(ctx, topicID)
		if err != nil {
			return err
		}
		ids := make([]string, len(subtree))
		for i, topic := range subtree {
			ids[i] = topic.ID
		}

		ext, err := s.purger.ListTouching(ctx, ids)
		if err != nil {
			return err
		}
		if err := s.purger.DeleteTouching(ctx, ids); err != nil {
			return err
		}

		// Children before parents, so parent_id references never dangle.
		reversed := make([]string, len(ids))
		for i, topicID := range ids {
			reversed[len(ids)-1-i] = topicID
		}
		if err := s.topics.DeleteAll(ctx, reversed); err != nil {
			return err
		}

		removed = subtree
		removedExt = ext
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	for _, topic := range removed {
		s.cleanupBody(topic.BodyRef)
	}
	for _, topic := range removed {
		parent := ""
		if topic.ParentID != nil {
			parent = *topic.ParentID
		}
		s.bus.Publish(events.Event{Type: events.TopicDeleted, TopicID: topic.ID, ParentID: parent})
	}
	return removed, removedExt, nil
}

func (s *Service) cleanupBody(ref string) {
	if err := s.bodies.Delete(ref); err != nil {
		s.logger.Warn("orphaned body file not removed", zap.String("ref", ref), zap.Error(err))
	}
}

func (s *Service) publishCreated(topic domain.Topic) {
	parent := ""
	if topic.ParentID != nil {
		parent = *topic.ParentID
	}
	s.bus.Publish(events.Event{
		Type:     events.TopicCreated,
		TopicID:  topic.ID,
		ParentID: parent,
		Title:    topic.Title,
	})
}
