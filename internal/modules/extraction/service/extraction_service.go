package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"iromo/internal/modules/extraction/domain"
	extractionout "iromo/internal/modules/extraction/port/out"
	topicout "iromo/internal/modules/topic/port/out"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/events"
	"iromo/internal/platform/id"
	"iromo/internal/platform/logging"
	"iromo/internal/platform/tx"
)

// Service is the extraction tracker. It records which character span of a
// parent topic's body a child topic was carved from, and keeps the record in
// step with the topic rows inside one transaction.
type Service struct {
	idGen  id.Generator
	store  extractionout.ExtractionStore
	topics extractionout.TopicGateway
	txm    tx.Manager
	bus    *events.Bus
	logger *zap.Logger
}

func NewService(
	idGen id.Generator,
	store extractionout.ExtractionStore,
	topics extractionout.TopicGateway,
	txm tx.Manager,
	bus *events.Bus,
	logger *zap.Logger,
) *Service {
	return &Service{
		idGen:  idGen,
		store:  store,
		topics: topics,
		txm:    txm,
		bus:    bus,
		logger: logging.OrNop(logger),
	}
}

// Create records the provenance link and bumps the parent's updated_at in the
// same transaction. Both topics must already exist; a missing one is reported
// as an integrity error naming the id.
func (s *Service) Create(ctx context.Context, parentTopicID, childTopicID string, startChar, endChar int) (domain.Extraction, error) {
	extraction := domain.Extraction{
		ID:            s.idGen.New(),
		ParentTopicID: parentTopicID,
		ChildTopicID:  childTopicID,
		StartChar:     startChar,
		EndChar:       endChar,
	}
	if err := extraction.Validate(); err != nil {
		return domain.Extraction{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}

	err := s.txm.Within(ctx, func(ctx context.Context) error {
		for _, topicID := range []string{parentTopicID, childTopicID} {
			ok, err := s.topics.Exists(ctx, topicID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: extraction references missing topic %s", apperrors.ErrIntegrity, topicID)
			}
		}
		if err := s.store.Insert(ctx, extraction); err != nil {
			return err
		}
		return s.topics.Touch(ctx, parentTopicID)
	})
	if err != nil {
		return domain.Extraction{}, err
	}

	s.publishCreated(extraction)
	return extraction, nil
}

// Restore reinserts a previously removed extraction with its original id.
// Used by undo of delete and redo of extract.
func (s *Service) Restore(ctx context.Context, extraction domain.Extraction) error {
	if err := s.txm.Within(ctx, func(ctx context.Context) error {
		return s.store.Insert(ctx, extraction)
	}); err != nil {
		return err
	}
	s.publishCreated(extraction)
	return nil
}

// RestoreRemoved reinserts the extraction records captured by a cascading
// topic delete, after the topics themselves have been restored.
func (s *Service) RestoreRemoved(ctx context.Context, removed []topicout.RemovedExtraction) error {
	return s.txm.Within(ctx, func(ctx context.Context) error {
		for _, r := range removed {
			extraction := domain.Extraction{
				ID:            r.ID,
				ParentTopicID: r.ParentTopicID,
				ChildTopicID:  r.ChildTopicID,
				StartChar:     r.StartChar,
				EndChar:       r.EndChar,
			}
			if err := s.store.Insert(ctx, extraction); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) Get(ctx context.Context, extractionID string) (domain.Extraction, error) {
	return s.store.Get(ctx, extractionID)
}

// Delete removes the provenance record only. The child topic stays in place.
func (s *Service) Delete(ctx context.Context, extractionID string) (domain.Extraction, error) {
	var removed domain.Extraction
	err := s.txm.Within(ctx, func(ctx context.Context) error {
		extraction, err := s.store.Get(ctx, extractionID)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, extractionID); err != nil {
			return err
		}
		removed = extraction
		return nil
	})
	if err != nil {
		return domain.Extraction{}, err
	}

	s.bus.Publish(events.Event{
		Type:         events.ExtractionDeleted,
		ExtractionID: removed.ID,
		TopicID:      removed.ParentTopicID,
	})
	return removed, nil
}

// ListForParent returns the parent's extractions ordered by start char.
// Offsets reflect the body as it was at extraction time.
func (s *Service) ListForParent(ctx context.Context, parentTopicID string) ([]domain.Extraction, error) {
	return s.store.ListForParent(ctx, parentTopicID)
}

func (s *Service) publishCreated(extraction domain.Extraction) {
	s.bus.Publish(events.Event{
		Type:         events.ExtractionCreated,
		ExtractionID: extraction.ID,
		TopicID:      extraction.ParentTopicID,
		StartChar:    extraction.StartChar,
		EndChar:      extraction.EndChar,
	})
}
