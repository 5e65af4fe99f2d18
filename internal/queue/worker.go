package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/processor"
)

// Worker consumes tickets from the queue and applies them to the ledger
type Worker struct {
	client    *redis.Client
	processor *processor.TransferProcessor
	log       *slog.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewWorker creates a new Worker
func NewWorker(client *redis.Client, proc *processor.TransferProcessor, log *slog.Logger) *Worker {
	return &Worker{
		client:    client,
		processor: proc,
		log:       log,
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start consumes tickets until ctx is cancelled or Stop is called
func (w *Worker) Start(ctx context.Context) {
	w.log.Info("pix worker started", "queue", QueueName)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("pix worker stopping", "reason", "context cancelled")
			return
		case <-w.stopCh:
			w.log.Info("pix worker stopping", "reason", "stop signal")
			return
		default:
			// BLPOP waits up to 5 seconds, then loops to check for stop signal
			result, err := w.client.BLPop(ctx, 5*time.Second, QueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				w.log.Error("failed to read from queue", "error", err)
				time.Sleep(1 * time.Second)
				continue
			}

			// result[0] is the queue name, result[1] is the message
			if len(result) < 2 {
				continue
			}

			w.processMessage(ctx, result[1])
		}
	}
}

// Stop signals the worker to stop processing
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// ProcessOne processes a single ticket if one is queued
func (w *Worker) ProcessOne(ctx context.Context) error {
	result, err := w.client.LPop(ctx, QueueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}

	w.processMessage(ctx, result)
	return nil
}

func (w *Worker) processMessage(ctx context.Context, data string) {
	var ticket model.PixTicket
	if err := json.Unmarshal([]byte(data), &ticket); err != nil {
		w.log.Error("failed to unmarshal ticket", "error", err)
		return
	}

	log := w.log.With("ticket_id", ticket.ID, "source_id", ticket.SourceID, "destination_id", ticket.DestinationID)
	log.Info("processing pix ticket", "amount", ticket.Amount.String())

	result, err := w.processor.Process(ctx, ticket)
	if err != nil {
		if ctx.Err() != nil {
			w.requeue(ctx, log, data)
			return
		}
		log.Error("pix ticket not processed", "error", err)
		return
	}

	processedAt := w.now().UTC()
	ticket.ProcessedAt = &processedAt
	if result.Success {
		ticket.Status = model.TicketStatusCompleted
		log.Info("pix ticket completed")
	} else {
		ticket.Status = model.TicketStatusFailed
		ticket.ErrorMessage = result.ErrorMessage
		log.Warn("pix ticket failed", "reason", result.ErrorMessage)
	}

	if err := w.save(ctx, ticket); err != nil {
		log.Error("failed to store ticket result", "error", err)
	}
}

// requeue puts a popped ticket back at the head of the queue. The push
// outlives ctx so a shutdown does not strand the ticket as pending.
func (w *Worker) requeue(ctx context.Context, log *slog.Logger, data string) {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := w.client.LPush(pushCtx, QueueName, data).Err(); err != nil {
		log.Error("failed to requeue pix ticket", "error", err)
		return
	}
	log.Info("pix ticket requeued", "reason", ctx.Err())
}

func (w *Worker) save(ctx context.Context, ticket model.PixTicket) error {
	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket: %w", err)
	}
	return w.client.Set(ctx, ticketKey(ticket.ID), data, TicketTTL).Err()
}
