package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonkvalheim/pix-ledger/internal/logger"
	"github.com/simonkvalheim/pix-ledger/internal/model"
	"github.com/simonkvalheim/pix-ledger/internal/processor"
	"github.com/simonkvalheim/pix-ledger/internal/repository"
)

type fixture struct {
	ledger    *repository.Ledger
	publisher *Publisher
	worker    *Worker
	source    model.Account
	dest      model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ledger := repository.NewLedger()
	source, err := ledger.OpenAccount(model.OpenAccountRequest{HolderName: "Ana", HolderDocument: "1", InitialBalance: decimal.NewFromInt(100), Kind: "corrente"})
	require.NoError(t, err)
	dest, err := ledger.OpenAccount(model.OpenAccountRequest{HolderName: "Bruno", HolderDocument: "2", InitialBalance: decimal.NewFromInt(10), Kind: "poupança"})
	require.NoError(t, err)

	return &fixture{
		ledger:    ledger,
		publisher: NewPublisher(client),
		worker:    NewWorker(client, processor.NewTransferProcessor(ledger), logger.Discard()),
		source:    source,
		dest:      dest,
	}
}

func pixRequest(src, dst uuid.UUID, amount string) model.PixRequest {
	a := decimal.RequireFromString(amount)
	return model.PixRequest{SourceID: &src, DestinationID: &dst, Amount: &a}
}

func TestPublishAndProcess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ticket, created, err := f.publisher.Publish(ctx, "key-1", pixRequest(f.source.ID, f.dest.ID, "60"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.TicketStatusPending, ticket.Status)

	n, err := f.publisher.QueueLength(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, f.worker.ProcessOne(ctx))

	stored, err := f.publisher.Ticket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusCompleted, stored.Status)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Empty(t, stored.ErrorMessage)

	src, err := f.ledger.FindByID(f.source.ID)
	require.NoError(t, err)
	assert.True(t, src.Balance.Equal(decimal.NewFromInt(40)))
	dst, err := f.ledger.FindByID(f.dest.ID)
	require.NoError(t, err)
	assert.True(t, dst.Balance.Equal(decimal.NewFromInt(70)))

	n, err = f.publisher.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcess_FailedTransferIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ticket, _, err := f.publisher.Publish(ctx, "key-2", pixRequest(f.source.ID, f.dest.ID, "1000"))
	require.NoError(t, err)
	require.NoError(t, f.worker.ProcessOne(ctx))

	stored, err := f.publisher.Ticket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusFailed, stored.Status)
	assert.Equal(t, model.ErrInsufficientFunds.Error(), stored.ErrorMessage)

	src, err := f.ledger.FindByID(f.source.ID)
	require.NoError(t, err)
	assert.True(t, src.Balance.Equal(decimal.NewFromInt(100)))
}

func TestPublish_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, created, err := f.publisher.Publish(ctx, "same-key", pixRequest(f.source.ID, f.dest.ID, "5"))
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.publisher.Publish(ctx, "same-key", pixRequest(f.source.ID, f.dest.ID, "5"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	n, err := f.publisher.QueueLength(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPublish_KeyClaimedBeforeTicketIsReadable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	claimedID := uuid.New()
	require.NoError(t, f.publisher.client.Set(ctx, idempotencyKey("in-flight"), claimedID.String(), TicketTTL).Err())

	ticket, created, err := f.publisher.Publish(ctx, "in-flight", pixRequest(f.source.ID, f.dest.ID, "5"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, claimedID, ticket.ID)
	assert.Equal(t, model.TicketStatusPending, ticket.Status)

	n, err := f.publisher.QueueLength(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublish_ReplayLeavesNoExtraTicket(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, _, err := f.publisher.Publish(ctx, "k", pixRequest(f.source.ID, f.dest.ID, "5"))
	require.NoError(t, err)
	_, _, err = f.publisher.Publish(ctx, "k", pixRequest(f.source.ID, f.dest.ID, "5"))
	require.NoError(t, err)

	keys, err := f.publisher.client.Keys(ctx, ticketKeyPrefix+"*").Result()
	require.NoError(t, err)
	assert.Equal(t, []string{ticketKey(first.ID)}, keys)
}

func TestWorker_RequeuesTicketWhenCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ticket, _, err := f.publisher.Publish(ctx, "k", pixRequest(f.source.ID, f.dest.ID, "60"))
	require.NoError(t, err)

	data, err := f.publisher.client.LPop(ctx, QueueName).Result()
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	f.worker.processMessage(cancelled, data)

	n, err := f.publisher.QueueLength(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	stored, err := f.publisher.Ticket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusPending, stored.Status)

	require.NoError(t, f.worker.ProcessOne(ctx))
	stored, err = f.publisher.Ticket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TicketStatusCompleted, stored.Status)
}

func TestTicket_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.publisher.Ticket(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrTicketNotFound)
}

func TestProcessOne_EmptyQueue(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.worker.ProcessOne(context.Background()))
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	f := newFixture(t)

	f.worker.Stop()
	f.worker.Stop()

	done := make(chan struct{})
	go func() {
		f.worker.Start(context.Background())
		close(done)
	}()
	<-done
}
