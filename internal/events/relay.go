package events

import (
	"context"
	"sync"

	"bitcoin-node-sim/internal/interfaces"
	"bitcoin-node-sim/internal/models"

	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog"
)

// Source publishes node events.
type Source interface {
	SubscribeEvents(ch chan<- models.NodeEvent) event.Subscription
}

// DefaultQueueSize is how many transaction events may wait for the emitter.
const DefaultQueueSize = 256

// Relay forwards ledger appends from a Source to an EventEmitter. Other
// node events are only logged. Emitting happens on a separate worker, and
// events beyond the queue are dropped so the source is never held up.
type Relay struct {
	source    Source
	emitter   interfaces.EventEmitter
	logger    *zerolog.Logger
	queueSize int
}

func NewRelay(source Source, emitter interfaces.EventEmitter, logger *zerolog.Logger) *Relay {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{source: source, emitter: emitter, logger: logger, queueSize: DefaultQueueSize}
}

// Run blocks until ctx is done or the subscription fails. Emitter errors
// are logged and do not stop the relay. Queued events are emitted before
// Run returns.
func (r *Relay) Run(ctx context.Context) error {
	ch := make(chan models.NodeEvent, 64)
	sub := r.source.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	queue := make(chan models.TransactionEvent, r.queueSize)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range queue {
			r.emit(ev)
		}
	}()
	defer func() {
		close(queue)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			return err
		case ev := <-ch:
			r.handle(ev, queue)
		}
	}
}

func (r *Relay) handle(ev models.NodeEvent, queue chan<- models.TransactionEvent) {
	if ev.Kind != models.EventTransactionNew || ev.Transaction == nil {
		r.logger.Debug().
			Str("kind", string(ev.Kind)).
			Str("network", ev.Network.String()).
			Str("message", ev.Message).
			Msg("Node event")
		return
	}

	select {
	case queue <- models.TransactionEvent{
		Network:     ev.Network,
		Wallet:      ev.Address,
		Transaction: *ev.Transaction,
		Timestamp:   ev.Timestamp,
	}:
	default:
		r.logger.Warn().
			Str("txid", ev.Transaction.ID).
			Int("queue", r.queueSize).
			Msg("Emitter queue full, dropping transaction event")
	}
}

func (r *Relay) emit(ev models.TransactionEvent) {
	if err := r.emitter.EmitEvent(ev); err != nil {
		r.logger.Error().
			Err(err).
			Str("txid", ev.Transaction.ID).
			Msg("Failed to emit transaction event")
	}
}
