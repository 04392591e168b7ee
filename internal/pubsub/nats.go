package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/logger"
)

// DefaultStreamName is the JetStream stream holding score events.
const DefaultStreamName = "SCORES_EVENTS"

// NATSOptions configures a connection to an external NATS server
type NATSOptions struct {
	URL        string
	Subject    string
	StreamName string
	MaxAge     time.Duration // 0 keeps events indefinitely
}

// NATSPubSub implements pub/sub using NATS JetStream
type NATSPubSub struct {
	fanout
	nc      *nats.Conn
	js      nats.JetStreamContext
	sub     *nats.Subscription
	subject string
}

// NewNATSPubSub connects to NATS, ensures the stream exists and starts
// relaying stream messages to local subscribers.
func NewNATSPubSub(opts NATSOptions) (*NATSPubSub, error) {
	nc, err := nats.Connect(opts.URL,
		nats.Name("picklewickel-scores"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	streamName := opts.StreamName
	if streamName == "" {
		streamName = DefaultStreamName
	}
	if _, err := js.StreamInfo(streamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{opts.Subject},
			Storage:  nats.FileStorage,
			MaxAge:   opts.MaxAge,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
		logger.Info("JetStream stream created", "stream", streamName, "subject", opts.Subject)
	}

	p := &NATSPubSub{
		fanout:  fanout{buffer: 100, name: "NATS"},
		nc:      nc,
		js:      js,
		subject: opts.Subject,
	}

	// DeliverNew: SSE clients only care about events from now on.
	p.sub, err = js.Subscribe(opts.Subject, p.relay, nats.ManualAck(), nats.DeliverNew())
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", opts.Subject, err)
	}

	return p, nil
}

func (p *NATSPubSub) relay(msg *nats.Msg) {
	event, err := decodeEvent(msg.Data)
	if err != nil {
		logger.Error("Failed to unmarshal event from JetStream", "error", err)
		msg.Nak()
		return
	}
	p.broadcast(event)
	msg.Ack()
}

func decodeEvent(data []byte) (Event, error) {
	var event Event
	err := json.Unmarshal(data, &event)
	return event, err
}

// Publish publishes an event to NATS JetStream
func (p *NATSPubSub) Publish(event Event) {
	publishJetStream(p.js, p.subject, event, "NATS")
}

func publishJetStream(js nats.JetStreamContext, subject string, event Event, name string) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", "error", err, "event_type", event.Type)
		return
	}
	if _, err := js.Publish(subject, data); err != nil {
		logger.Error("Failed to publish to "+name, "error", err, "subject", subject, "event_type", event.Type)
		return
	}
	logger.Debug("Published event to "+name, "event_type", event.Type, "subject", subject)
}

// Subscribe creates a subscription channel for events
func (p *NATSPubSub) Subscribe() chan Event { return p.subscribe() }

// Unsubscribe removes a subscription channel
func (p *NATSPubSub) Unsubscribe(ch chan Event) { p.unsubscribe(ch) }

// Connected reports whether the NATS connection is up.
func (p *NATSPubSub) Connected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close closes the NATS connection
func (p *NATSPubSub) Close() {
	if p.sub != nil {
		_ = p.sub.Unsubscribe()
	}
	p.closeAll()
	if p.nc != nil {
		p.nc.Close()
	}
}
