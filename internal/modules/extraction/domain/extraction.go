package domain

import (
	"fmt"
	"strings"
)

// Extraction links the character span [StartChar, EndChar] (inclusive) of a
// parent topic's body, as it existed at extraction time, to the child topic
// derived from it. Offsets are never revalidated or shifted when the parent
// body is edited later; stale spans are an accepted limitation.
type Extraction struct {
	ID            string
	ParentTopicID string
	ChildTopicID  string
	StartChar     int
	EndChar       int
}

func (e Extraction) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(e.ParentTopicID) == "" {
		return fmt.Errorf("parent topic id is required")
	}
	if strings.TrimSpace(e.ChildTopicID) == "" {
		return fmt.Errorf("child topic id is required")
	}
	if e.StartChar < 0 {
		return fmt.Errorf("start char %d is negative", e.StartChar)
	}
	if e.EndChar < e.StartChar {
		return fmt.Errorf("end char %d precedes start char %d", e.EndChar, e.StartChar)
	}
	return nil
}
