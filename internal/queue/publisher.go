package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/simonkvalheim/pix-ledger/internal/model"
)

const (
	// QueueName is the Redis list key for pending PIX tickets
	QueueName = "pix:pending"

	// TicketTTL bounds how long tickets and idempotency keys are kept
	TicketTTL = 24 * time.Hour

	ticketKeyPrefix      = "pix:ticket:"
	idempotencyKeyPrefix = "pix:idempotency:"
)

var errIncompleteRequest = errors.New("pix request is missing fields")

func ticketKey(id uuid.UUID) string {
	return ticketKeyPrefix + id.String()
}

func idempotencyKey(key string) string {
	return idempotencyKeyPrefix + key
}

// Publisher handles publishing PIX tickets to Redis
type Publisher struct {
	client *redis.Client
	now    func() time.Time
}

// NewPublisher creates a new Publisher
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, now: time.Now}
}

// Publish records a pending ticket for req and pushes it onto the queue.
// A key that was already used returns the first ticket and false.
func (p *Publisher) Publish(ctx context.Context, key string, req model.PixRequest) (model.PixTicket, bool, error) {
	if req.SourceID == nil || req.DestinationID == nil || req.Amount == nil {
		return model.PixTicket{}, false, errIncompleteRequest
	}

	ticket := model.PixTicket{
		ID:             uuid.New(),
		IdempotencyKey: key,
		SourceID:       *req.SourceID,
		DestinationID:  *req.DestinationID,
		Amount:         *req.Amount,
		Status:         model.TicketStatusPending,
		SubmittedAt:    p.now().UTC(),
	}

	data, err := json.Marshal(ticket)
	if err != nil {
		return model.PixTicket{}, false, fmt.Errorf("failed to marshal ticket: %w", err)
	}

	// The ticket is stored before the key is claimed so a replay that wins
	// the key lookup can always read it back.
	if err := p.client.Set(ctx, ticketKey(ticket.ID), data, TicketTTL).Err(); err != nil {
		return model.PixTicket{}, false, fmt.Errorf("failed to store ticket: %w", err)
	}

	claimed, err := p.client.SetNX(ctx, idempotencyKey(key), ticket.ID.String(), TicketTTL).Result()
	if err != nil {
		p.client.Del(ctx, ticketKey(ticket.ID))
		return model.PixTicket{}, false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		p.client.Del(ctx, ticketKey(ticket.ID))
		existing, err := p.existing(ctx, key)
		return existing, false, err
	}

	// Use RPUSH to add to the end of the list (FIFO queue)
	if err := p.client.RPush(ctx, QueueName, data).Err(); err != nil {
		// Release the key so the client can retry with it
		p.client.Del(ctx, idempotencyKey(key), ticketKey(ticket.ID))
		return model.PixTicket{}, false, fmt.Errorf("failed to publish to queue: %w", err)
	}

	return ticket, true, nil
}

// existing returns the ticket that claimed key. A claimed key whose ticket is
// not readable yet is reported as pending.
func (p *Publisher) existing(ctx context.Context, key string) (model.PixTicket, error) {
	raw, err := p.client.Get(ctx, idempotencyKey(key)).Result()
	if err != nil {
		return model.PixTicket{}, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return model.PixTicket{}, fmt.Errorf("corrupt idempotency key %q: %w", key, err)
	}

	ticket, err := p.Ticket(ctx, id)
	if errors.Is(err, model.ErrTicketNotFound) {
		return model.PixTicket{ID: id, IdempotencyKey: key, Status: model.TicketStatusPending}, nil
	}
	return ticket, err
}

// Ticket returns the current state of a ticket
func (p *Publisher) Ticket(ctx context.Context, id uuid.UUID) (model.PixTicket, error) {
	data, err := p.client.Get(ctx, ticketKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.PixTicket{}, fmt.Errorf("%w: %s", model.ErrTicketNotFound, id)
		}
		return model.PixTicket{}, fmt.Errorf("failed to get ticket: %w", err)
	}

	var ticket model.PixTicket
	if err := json.Unmarshal(data, &ticket); err != nil {
		return model.PixTicket{}, fmt.Errorf("failed to unmarshal ticket: %w", err)
	}
	return ticket, nil
}

// QueueLength returns the current number of tickets in the queue
func (p *Publisher) QueueLength(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, QueueName).Result()
}

// Ping checks the Redis connection
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
