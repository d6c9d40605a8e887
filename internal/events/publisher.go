package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/model"
)

const (
	// StreamName is the name of the console transcript stream.
	StreamName = "ANALYTICS_TRANSCRIPT"

	// SubjectPrefix is the prefix for all transcript subjects.
	SubjectPrefix = "analytics"
)

// TurnPublisher mirrors finalized turns onto a JetStream stream.
type TurnPublisher struct {
	client *Client
}

// NewTurnPublisher creates a publisher over an established client.
func NewTurnPublisher(client *Client) *TurnPublisher {
	return &TurnPublisher{client: client}
}

// EnsureStream ensures the transcript stream exists.
func (p *TurnPublisher) EnsureStream(ctx context.Context) error {
	js := p.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      30 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Description: "Finalized analytics console turns",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	return nil
}

// TurnSubject returns the subject a turn is published on.
func TurnSubject(conversationID string, role model.Role) string {
	return fmt.Sprintf("%s.%s.turn.%s", SubjectPrefix, conversationID, role)
}

// PublishTurn publishes one finalized turn. Publish failures are logged, not
// propagated; the transcript is the source of truth and must not depend on
// the event tap.
func (p *TurnPublisher) PublishTurn(ctx context.Context, conversationID string, turn model.Turn) {
	data, err := json.Marshal(turn)
	if err != nil {
		p.client.logger.Warn("failed to marshal turn", zap.Error(err))
		return
	}

	subject := TurnSubject(conversationID, turn.Role)
	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		p.client.logger.Warn("failed to publish turn",
			zap.String("subject", subject), zap.Error(err))
	}
}
