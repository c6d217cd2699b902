package out

import (
	"context"

	extractionout "iromo/internal/modules/extraction/port/out"
	topicservice "iromo/internal/modules/topic/service"
)

// TopicServiceGateway adapts the topic repository to the narrow view the
// extraction tracker needs.
type TopicServiceGateway struct {
	topics *topicservice.Service
}

func NewTopicServiceGateway(topics *topicservice.Service) *TopicServiceGateway {
	return &TopicServiceGateway{topics: topics}
}

var _ extractionout.TopicGateway = (*TopicServiceGateway)(nil)

func (g *TopicServiceGateway) Exists(ctx context.Context, topicID string) (bool, error) {
	return g.topics.Exists(ctx, topicID)
}

func (g *TopicServiceGateway) Touch(ctx context.Context, topicID string) error {
	return g.topics.Touch(ctx, topicID)
}
