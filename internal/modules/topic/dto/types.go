package dto

import "time"

type CreateTopicInput struct {
	Body     string
	ParentID *string
	Title    string
}

type RenameTopicInput struct {
	TopicID  string
	NewTitle string
}

type SaveBodyInput struct {
	TopicID string
	Body    string
}

type MoveTopicInput struct {
	TopicID     string
	NewParentID *string
	NewOrder    int
}

type DeleteTopicsInput struct {
	TopicIDs []string
}

type TopicOutput struct {
	ID           string
	ParentID     *string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DisplayOrder int
}

type TopicDetailOutput struct {
	TopicOutput
	Body string
}
