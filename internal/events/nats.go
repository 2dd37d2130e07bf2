package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher publishes events as JSON on <prefix>.<type>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger zerolog.Logger
}

// Connect dials NATS with unlimited reconnects.
func Connect(url, prefix string, logger zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("sceneforge"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return NewNATSPublisher(nc, prefix, logger), nil
}

func NewNATSPublisher(nc *nats.Conn, prefix string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		nc:     nc,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: logger.With().Str("component", "events").Logger(),
	}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t Type) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.nc.Publish(p.Subject(ev.Type), b); err != nil {
		p.logger.Warn().Err(err).Str("type", string(ev.Type)).Str("job_id", ev.JobID).Msg("events: publish failed")
		return err
	}
	return nil
}

// Close drains pending messages before closing the connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

var _ Publisher = (*NATSPublisher)(nil)
