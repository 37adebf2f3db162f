package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
)

// Publisher publishes jobs to the worker topic.
type Publisher struct {
	publisher *pubsub.Publisher
}

// NewPublisher creates a publisher for topic on client.
func NewPublisher(client *pubsub.Client, topic string) *Publisher {
	return &Publisher{publisher: client.Publisher(topic)}
}

// PublishJob publishes msg and waits for the server-assigned message ID.
func (p *Publisher) PublishJob(ctx context.Context, msg JobMessage) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encoding job message: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"job_type": msg.JobType,
			"job_id":   msg.JobID,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing %s job: %w", msg.JobType, err)
	}
	return id, nil
}

// Stop flushes pending messages and stops the publisher.
func (p *Publisher) Stop() {
	p.publisher.Stop()
}
