package service

import (
	"context"
	"fmt"

	extractiondomain "iromo/internal/modules/extraction/domain"
	extractionservice "iromo/internal/modules/extraction/service"
	topicdomain "iromo/internal/modules/topic/domain"
	topicservice "iromo/internal/modules/topic/service"
	apperrors "iromo/internal/platform/errors"
)

// ExtractTextCommand carves the span [startChar, endChar] (inclusive, rune
// offsets) out of a parent topic's body into a new child topic and records
// the provenance link. When text is empty the extracted content is read from
// the parent body at execute time.
//
// If recording the link fails the freshly created child is removed again so
// a child never exists without its extraction.
type ExtractTextCommand struct {
	topics      *topicservice.Service
	extractions *extractionservice.Service
	parentID    string
	startChar   int
	endChar     int
	text        string

	child      topicdomain.Topic
	childBody  string
	extraction extractiondomain.Extraction
}

func NewExtractTextCommand(
	topics *topicservice.Service,
	extractions *extractionservice.Service,
	parentID string,
	startChar, endChar int,
	text string,
) *ExtractTextCommand {
	return &ExtractTextCommand{
		topics:      topics,
		extractions: extractions,
		parentID:    parentID,
		startChar:   startChar,
		endChar:     endChar,
		text:        text,
	}
}

func (c *ExtractTextCommand) Execute(ctx context.Context) error {
	body := c.text
	if body == "" {
		parentBody, err := c.topics.GetBody(ctx, c.parentID)
		if err != nil {
			return err
		}
		runes := []rune(parentBody)
		if c.startChar < 0 || c.endChar < c.startChar || c.endChar >= len(runes) {
			return fmt.Errorf("%w: span [%d, %d] out of range for body of %d chars",
				apperrors.ErrInvalidInput, c.startChar, c.endChar, len(runes))
		}
		body = string(runes[c.startChar : c.endChar+1])
	}

	child, err := c.topics.Create(ctx, body, &c.parentID, "")
	if err != nil {
		return err
	}
	extraction, err := c.extractions.Create(ctx, c.parentID, child.ID, c.startChar, c.endChar)
	if err != nil {
		if _, _, cleanupErr := c.topics.Delete(ctx, child.ID); cleanupErr != nil {
			return fmt.Errorf("record extraction: %w (orphaned child %s not removed: %v)",
				err, child.ID, cleanupErr)
		}
		return err
	}

	c.child = child
	c.childBody = body
	c.extraction = extraction
	return nil
}

// Undo deletes the child topic; the cascade removes the extraction record
// with it.
func (c *ExtractTextCommand) Undo(ctx context.Context) error {
	_, _, err := c.topics.Delete(ctx, c.child.ID)
	return err
}

func (c *ExtractTextCommand) Redo(ctx context.Context) error {
	if err := c.topics.Restore(ctx, c.child, c.childBody); err != nil {
		return err
	}
	return c.extractions.Restore(ctx, c.extraction)
}

func (c *ExtractTextCommand) Description() string {
	return fmt.Sprintf("extract %q", c.child.Title)
}

// Extraction exposes the record created by Execute.
func (c *ExtractTextCommand) Extraction() extractiondomain.Extraction {
	return c.extraction
}

// ChildTopic exposes the child topic created by Execute.
func (c *ExtractTextCommand) ChildTopic() topicdomain.Topic {
	return c.child
}

// DeleteExtractionCommand removes a provenance record; the child topic it
// pointed at is untouched.
type DeleteExtractionCommand struct {
	extractions  *extractionservice.Service
	extractionID string

	removed extractiondomain.Extraction
}

func NewDeleteExtractionCommand(extractions *extractionservice.Service, extractionID string) *DeleteExtractionCommand {
	return &DeleteExtractionCommand{extractions: extractions, extractionID: extractionID}
}

func (c *DeleteExtractionCommand) Execute(ctx context.Context) error {
	removed, err := c.extractions.Delete(ctx, c.extractionID)
	if err != nil {
		return err
	}
	c.removed = removed
	return nil
}

func (c *DeleteExtractionCommand) Undo(ctx context.Context) error {
	return c.extractions.Restore(ctx, c.removed)
}

func (c *DeleteExtractionCommand) Description() string {
	return "delete extraction"
}
