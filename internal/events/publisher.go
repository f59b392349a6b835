package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	// TypeStateRefreshed is emitted after a full state refresh has been persisted.
	TypeStateRefreshed = "platform.state.refreshed"
	// TypeMutationApplied is emitted after the backend confirmed a mutation.
	TypeMutationApplied = "platform.mutation.applied"
)

// Event announces a change in the dashboard snapshot to other listeners.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Operation  string    `json:"operation"`
	ResourceID string    `json:"resource_id,omitempty"`
	Projects   int       `json:"projects"`
	Reviews    int       `json:"reviews"`
	Warning    string    `json:"warning,omitempty"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers sync events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes events as JSON on a single subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	source  string
	logger  zerolog.Logger
}

// NewNATSPublisher builds a publisher on an established connection.
func NewNATSPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) (*NATSPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("nats connection is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		source:  uuid.NewString(),
		logger:  logger.With().Str("component", "nats_publisher").Logger(),
	}, nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := Encode(Stamp(event, p.source))
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("subject", p.subject).Str("type", event.Type).Msg("failed to publish sync event")
		return fmt.Errorf("publish sync event: %w", err)
	}
	return nil
}

// Close drains the underlying connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Stamp fills the identifying fields of an event that callers leave blank.
func Stamp(event Event, source string) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Source == "" {
		event.Source = source
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return event
}

// Encode serializes an event for the wire.
func Encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode sync event: %w", err)
	}
	return payload, nil
}

// Connect dials NATS with the reconnect behaviour used by the service.
func Connect(url string, logger zerolog.Logger) (*nats.Conn, error) {
	log := logger.With().Str("component", "nats").Logger()
	return nats.Connect(url,
		nats.Name("peer-review-dashboard"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info().Str("url", conn.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
}
