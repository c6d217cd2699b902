package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"iromo/internal/modules/extraction/domain"
	extractionout "iromo/internal/modules/extraction/port/out"
	topicout "iromo/internal/modules/topic/port/out"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/tx"
)

const extractionColumns = `id, parent_topic_id, child_topic_id, parent_text_start_char, parent_text_end_char`

// SQLiteExtractionStore persists extraction records. It also implements the
// topic module's ExtractionPurger so the cascading delete can capture and
// remove every record touching a subtree inside the same transaction.
type SQLiteExtractionStore struct {
	db *sql.DB
}

func NewSQLiteExtractionStore(db *sql.DB) *SQLiteExtractionStore {
	return &SQLiteExtractionStore{db: db}
}

var (
	_ extractionout.ExtractionStore = (*SQLiteExtractionStore)(nil)
	_ topicout.ExtractionPurger     = (*SQLiteExtractionStore)(nil)
)

func (s *SQLiteExtractionStore) Insert(ctx context.Context, extraction domain.Extraction) error {
	if err := extraction.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
INSERT INTO extractions (id, parent_topic_id, child_topic_id, parent_text_start_char, parent_text_end_char)
VALUES (?, ?, ?, ?, ?)`,
		extraction.ID,
		extraction.ParentTopicID,
		extraction.ChildTopicID,
		extraction.StartChar,
		extraction.EndChar,
	)
	if err != nil {
		return fmt.Errorf("insert extraction %s: %w", extraction.ID, err)
	}
	return nil
}

func (s *SQLiteExtractionStore) Get(ctx context.Context, id string) (domain.Extraction, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+extractionColumns+` FROM extractions WHERE id = ?`, id)
	var e domain.Extraction
	err := row.Scan(&e.ID, &e.ParentTopicID, &e.ChildTopicID, &e.StartChar, &e.EndChar)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Extraction{}, fmt.Errorf("extraction %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("get extraction %s: %w", id, err)
	}
	return e, nil
}

func (s *SQLiteExtractionStore) Delete(ctx context.Context, id string) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx, `DELETE FROM extractions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete extraction %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("extraction %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// ListForParent returns extractions ordered by start char so a consumer can
// apply highlights left to right without re-sorting.
func (s *SQLiteExtractionStore) ListForParent(ctx context.Context, parentTopicID string) ([]domain.Extraction, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+extractionColumns+` FROM extractions
WHERE parent_topic_id = ? ORDER BY parent_text_start_char`, parentTopicID)
	if err != nil {
		return nil, fmt.Errorf("list extractions for %s: %w", parentTopicID, err)
	}
	defer rows.Close()

	var out []domain.Extraction
	for rows.Next() {
		var e domain.Extraction
		if err := rows.Scan(&e.ID, &e.ParentTopicID, &e.ChildTopicID, &e.StartChar, &e.EndChar); err != nil {
			return nil, fmt.Errorf("scan extraction row: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteExtractionStore) ListTouching(ctx context.Context, topicIDs []string) ([]topicout.RemovedExtraction, error) {
	if len(topicIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(topicIDs)
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+extractionColumns+` FROM extractions
WHERE parent_topic_id IN (`+placeholders+`) OR child_topic_id IN (`+placeholders+`)`,
		append(args, args...)...)
	if err != nil {
		return nil, fmt.Errorf("list touching extractions: %w", err)
	}
	defer rows.Close()

	var out []topicout.RemovedExtraction
	for rows.Next() {
		var e topicout.RemovedExtraction
		if err := rows.Scan(&e.ID, &e.ParentTopicID, &e.ChildTopicID, &e.StartChar, &e.EndChar); err != nil {
			return nil, fmt.Errorf("scan touching extraction: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate touching extractions: %w", err)
	}
	return out, nil
}

func (s *SQLiteExtractionStore) DeleteTouching(ctx context.Context, topicIDs []string) error {
	if len(topicIDs) == 0 {
		return nil
	}
	placeholders, args := inClause(topicIDs)
	_, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`DELETE FROM extractions
WHERE parent_topic_id IN (`+placeholders+`) OR child_topic_id IN (`+placeholders+`)`,
		append(args, args...)...)
	if err != nil {
		return fmt.Errorf("delete touching extractions: %w", err)
	}
	return nil
}

func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}
