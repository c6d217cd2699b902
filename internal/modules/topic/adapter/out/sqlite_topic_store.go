package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"iromo/internal/modules/topic/domain"
	topicout "iromo/internal/modules/topic/port/out"
	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/tx"
)

const timeLayout = time.RFC3339Nano

const topicColumns = `id, parent_id, title, text_file_uuid, created_at, updated_at, display_order`

type SQLiteTopicStore struct {
	db *sql.DB
}

func NewSQLiteTopicStore(db *sql.DB) topicout.TopicStore {
	return &SQLiteTopicStore{db: db}
}

func (s *SQLiteTopicStore) Insert(ctx context.Context, topic domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	_, err := tx.Q(ctx, s.db).ExecContext(ctx, `
INSERT INTO topics (id, parent_id, title, text_file_uuid, created_at, updated_at, display_order)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		topic.ID,
		nullable(topic.ParentID),
		topic.Title,
		topic.BodyRef,
		topic.CreatedAt.Format(timeLayout),
		topic.UpdatedAt.Format(timeLayout),
		topic.DisplayOrder,
	)
	if err != nil {
		return fmt.Errorf("insert topic %s: %w", topic.ID, err)
	}
	return nil
}

func (s *SQLiteTopicStore) Get(ctx context.Context, id string) (domain.Topic, error) {
	row := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE id = ?`, id)
	topic, err := scanTopic(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Topic{}, fmt.Errorf("topic %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return domain.Topic{}, fmt.Errorf("get topic %s: %w", id, err)
	}
	return topic, nil
}

func (s *SQLiteTopicStore) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT 1 FROM topics WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check topic %s: %w", id, err)
	}
	return true, nil
}

func (s *SQLiteTopicStore) UpdateTitle(ctx context.Context, id, title string, updatedAt time.Time) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE topics SET title = ?, updated_at = ? WHERE id = ?`,
		title, updatedAt.Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("update title of %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *SQLiteTopicStore) Touch(ctx context.Context, id string, updatedAt time.Time) error {
	res, err := tx.Q(ctx, s.db).ExecContext(ctx,
		`UPDATE topics SET updated_at = ? WHERE id = ?`,
		updatedAt.Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("touch topic %s: %w", id, err)
	}
	return requireRow(res, id)
}

func (s *SQLiteTopicStore) Children(ctx context.Context, parentID *string) ([]domain.Topic, error) {
	where, args := parentClause(parentID)
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+topicColumns+` FROM topics WHERE `+where+
			` ORDER BY display_order, created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	return collectTopics(rows)
}

func (s *SQLiteTopicStore) Hierarchy(ctx context.Context) ([]domain.Topic, error) {
	rows, err := tx.Q(ctx, s.db).QueryContext(ctx,
		`SELECT `+topicColumns+` FROM topics ORDER BY parent_id, display_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list hierarchy: %w", err)
	}
	return collectTopics(rows)
}

// Subtree returns the topic and every descendant in pre-order: a node always
// precedes its descendants. The traversal is an explicit worklist so depth
// is bounded by the heap, not the call stack.
func (s *SQLiteTopicStore) Subtree(ctx context.Context, id string) ([]domain.Topic, error) {
	root, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var ordered []domain.Topic
	stack := []domain.Topic{root}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ordered = append(ordered, current)

		children, err := s.Children(ctx, &current.ID)
		if err != nil {
			return nil, err
		}
		// Push in reverse so the first sibling is popped first.
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return ordered, nil
}

func (s *SQLiteTopicStore) NextDisplayOrder(ctx context.Context, parentID *string) (int, error) {
	where, args := parentClause(parentID)
	var next int
	err := tx.Q(ctx, s.db).QueryRowContext(ctx,
		`SELECT COALESCE(MAX(display_order) + 1, 0) FROM topics WHERE `+where, args...).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next display order: %w", err)
	}
	return next, nil
}

// Move reparents/reorders one topic and renumbers both sibling groups so
// display_order stays a gap-free total order under each parent. Callers wrap
// it in a transaction together with the cycle check.
func (s *SQLiteTopicStore) Move(ctx context.Context, id string, newParentID *string, newOrder int, updatedAt time.Time) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	q := tx.Q(ctx, s.db)

	// Close the gap the topic leaves among its old siblings.
	oldWhere, oldArgs := parentClause(current.ParentID)
	if _, err := q.ExecContext(ctx,
		`UPDATE topics SET display_order = display_order - 1 WHERE `+oldWhere+` AND display_order > ?`,
		append(oldArgs, current.DisplayOrder)...); err != nil {
		return fmt.Errorf("close sibling gap for %s: %w", id, err)
	}

	newWhere, newArgs := parentClause(newParentID)
	var siblingCount int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM topics WHERE `+newWhere+` AND id != ?`,
		append(newArgs, id)...).Scan(&siblingCount); err != nil {
		return fmt.Errorf("count siblings for %s: %w", id, err)
	}
	if newOrder < 0 {
		newOrder = 0
	}
	if newOrder > siblingCount {
		newOrder = siblingCount
	}

	// Open a slot among the new siblings.
	if _, err := q.ExecContext(ctx,
		`UPDATE topics SET display_order = display_order + 1 WHERE `+newWhere+` AND display_order >= ? AND id != ?`,
		append(newArgs, newOrder, id)...); err != nil {
		return fmt.Errorf("open sibling slot for %s: %w", id, err)
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE topics SET parent_id = ?, display_order = ?, updated_at = ? WHERE id = ?`,
		nullable(newParentID), newOrder, updatedAt.Format(timeLayout), id); err != nil {
		return fmt.Errorf("move topic %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes the given rows. Callers pass children before parents so
// the parent_id foreign key never dangles mid-transaction.
func (s *SQLiteTopicStore) DeleteAll(ctx context.Context, ids []string) error {
	q := tx.Q(ctx, s.db)
	for _, id := range ids {
		if _, err := q.ExecContext(ctx, `DELETE FROM topics WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete topic %s: %w", id, err)
		}
	}
	return nil
}

func parentClause(parentID *string) (string, []any) {
	if parentID == nil {
		return "parent_id IS NULL", nil
	}
	return "parent_id = ?", []any{*parentID}
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("topic %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTopic(row rowScanner) (domain.Topic, error) {
	var (
		topic     domain.Topic
		parentID  sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&topic.ID, &parentID, &topic.Title, &topic.BodyRef,
		&createdAt, &updatedAt, &topic.DisplayOrder); err != nil {
		return domain.Topic{}, err
	}
	if parentID.Valid {
		topic.ParentID = &parentID.String
	}
	var err error
	if topic.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return domain.Topic{}, fmt.Errorf("parse created_at: %w", err)
	}
	if topic.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return domain.Topic{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return topic, nil
}

func collectTopics(rows *sql.Rows) ([]domain.Topic, error) {
	defer rows.Close()
	var out []domain.Topic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic row: %w", err)
		}
		out = append(out, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topic rows: %w", err)
	}
	return out, nil
}
