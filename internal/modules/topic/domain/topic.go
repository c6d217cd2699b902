package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxDerivedTitleLen caps titles derived from body text, in runes.
const MaxDerivedTitleLen = 70

const untitled = "Untitled Topic"

// Topic is one node of the knowledge tree. BodyRef names the file under the
// collection's bodies directory holding the raw text.
type Topic struct {
	ID           string
	ParentID     *string
	Title        string
	BodyRef      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DisplayOrder int
}

func (t Topic) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(t.BodyRef) == "" {
		return fmt.Errorf("body ref is required")
	}
	return nil
}

// Detail pairs a topic with its body text, as needed for delete snapshots.
type Detail struct {
	Topic
	Body string
}

// DeriveTitle builds a default title from the first non-blank line of the
// body, truncated to MaxDerivedTitleLen runes.
func DeriveTitle(body string) string {
	if body == "" {
		return untitled
	}
	line := body
	for _, candidate := range strings.Split(body, "\n") {
		if strings.TrimSpace(candidate) != "" {
			line = candidate
			break
		}
	}
	runes := []rune(line)
	if len(runes) > MaxDerivedTitleLen {
		return string(runes[:MaxDerivedTitleLen]) + "..."
	}
	if strings.TrimSpace(line) == "" {
		return untitled
	}
	return line
}
