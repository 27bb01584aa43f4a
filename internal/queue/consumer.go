package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/charstudio/internal/models"
)

// LibraryEventHandler processes one decoded library event.
type LibraryEventHandler func(ctx context.Context, evt models.LibraryEvent) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeLibraryEvents pulls library events and hands them to handler until ctx is done.
// Undecodable messages are terminated rather than redelivered.
func (c *Consumer) ConsumeLibraryEvents(ctx context.Context, consumerName string, handler LibraryEventHandler) error {
	stream, err := c.js.Stream(ctx, LibraryStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", LibraryStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, libraryConsumerConfig(consumerName))
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler)
			}
		}
	}()

	slog.Info("library event consumer started", "consumer", consumerName)
	return nil
}

// ConsumerInactiveThreshold is how long the server keeps a library consumer
// with no pull activity. Consumers are named per host; those left by replaced
// replicas are removed after this.
const ConsumerInactiveThreshold = 5 * time.Minute

func libraryConsumerConfig(name string) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Name:              name,
		Durable:           name,
		AckPolicy:         jetstream.AckExplicitPolicy,
		AckWait:           10 * time.Second,
		MaxDeliver:        3,
		FilterSubject:     LibrarySubjectBase + ".>",
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: ConsumerInactiveThreshold,
	}
}

// ackMsg is the part of jetstream.Msg the dispatch logic needs.
type ackMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

func handleMessage(ctx context.Context, msg ackMsg, handler LibraryEventHandler) {
	var evt models.LibraryEvent
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		slog.Error("decode library event", "subject", msg.Subject(), "error", err)
		_ = msg.Term()
		return
	}
	if err := handler(ctx, evt); err != nil {
		slog.Error("process library event", "subject", msg.Subject(), "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (c *Consumer) Close() {
	c.nc.Close()
}
