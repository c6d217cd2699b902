package dto

type ExtractInput struct {
	ParentTopicID string
	StartChar     int
	EndChar       int
	// Text overrides the span read from the parent body when non-empty,
	// which matters when the caller holds unsaved edits.
	Text string
}

type ExtractOutput struct {
	ExtractionID string
	ChildTopicID string
	ChildTitle   string
}

type ExtractionOutput struct {
	ID            string
	ParentTopicID string
	ChildTopicID  string
	StartChar     int
	EndChar       int
}
