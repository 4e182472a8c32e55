package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type LeadEventHandler interface {
	HandleLeadEvent(ctx context.Context, event LeadEvent) error
}

// Consumer is the part of *amqp.Channel the worker reads from.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Handler LeadEventHandler
	Logger  *slog.Logger
}

func NewWorker(ch Consumer, handler LeadEventHandler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{Channel: ch, Handler: handler, Logger: logger}
}

// Start consumes queueName until ctx is done or the delivery channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("register consumer on %s: %w", queueName, err)
	}

	w.Logger.Info("lead event worker started", "queue", queueName)
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.process(ctx, d)
		}
	}
}

// process acks handled messages and dead-letters the rest. Nothing is
// requeued: a bad message would otherwise loop forever.
func (w *Worker) process(ctx context.Context, d amqp.Delivery) {
	var event LeadEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.Logger.Error("malformed lead event", "error", err)
		d.Nack(false, false)
		return
	}

	if err := w.Handler.HandleLeadEvent(ctx, event); err != nil {
		w.Logger.Error("lead event failed", "type", event.Type, "lead_id", event.LeadID, "error", err)
		d.Nack(false, false)
		return
	}

	d.Ack(false)
}
