package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ElHadji11/farmconnect-backend/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher emits integration events to NATS as JSON payloads.
type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
}

func NewPublisher(natsURL string, log *logger.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}
	log.Info("Connected to NATS", zap.String("url", natsURL))
	return &Publisher{
		conn:   conn,
		logger: log.Named("NATSPublisher"),
	}, nil
}

// Publish marshals the payload and publishes it on the subject.
func (p *Publisher) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event for subject %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		p.logger.Error("Failed to publish event", zap.String("subject", subject), zap.Error(err))
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	p.logger.Debug("Event published", zap.String("subject", subject))
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
