package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"bitcoin-node-sim/internal/models"

	"github.com/ethereum/go-ethereum/event"
	"github.com/shopspring/decimal"
)

// MockEventEmitter records emitted events
type MockEventEmitter struct {
	emittedEvents []models.TransactionEvent
	emitError     error
	closed        bool
	mu            sync.Mutex
}

func (m *MockEventEmitter) EmitEvent(event models.TransactionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.emitError != nil {
		return m.emitError
	}
	m.emittedEvents = append(m.emittedEvents, event)
	return nil
}

func (m *MockEventEmitter) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockEventEmitter) GetEmittedEvents() []models.TransactionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	events := make([]models.TransactionEvent, len(m.emittedEvents))
	copy(events, m.emittedEvents)
	return events
}

type feedSource struct {
	feed event.Feed
}

func (s *feedSource) SubscribeEvents(ch chan<- models.NodeEvent) event.Subscription {
	return s.feed.Subscribe(ch)
}

// send retries until the relay has subscribed.
func (s *feedSource) send(t *testing.T, ev models.NodeEvent) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for s.feed.Send(ev) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("relay never subscribed")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRelay_ForwardsTransactions(t *testing.T) {
	source := &feedSource{}
	emitter := &MockEventEmitter{}
	relay := NewRelay(source, emitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	source.send(t, models.NodeEvent{Kind: models.EventStartupLog, Message: "init message: Done loading"})
	source.send(t, models.NodeEvent{
		Kind:    models.EventTransactionNew,
		Network: models.Testnet,
		Address: "tb1qwallet",
		Transaction: &models.Transaction{
			ID:     "abc",
			Type:   models.Send,
			Amount: decimal.RequireFromString("1"),
		},
		Timestamp: ts,
	})

	waitFor(t, func() bool { return len(emitter.GetEmittedEvents()) == 1 })
	got := emitter.GetEmittedEvents()[0]
	if got.Wallet != "tb1qwallet" || got.Network != models.Testnet || got.Transaction.ID != "abc" || !got.Timestamp.Equal(ts) {
		t.Errorf("emitted event = %+v", got)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelay_EmitterErrorDoesNotStop(t *testing.T) {
	source := &feedSource{}
	emitter := &MockEventEmitter{emitError: errors.New("broker down")}
	relay := NewRelay(source, emitter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	tx := &models.Transaction{ID: "x"}
	source.send(t, models.NodeEvent{Kind: models.EventTransactionNew, Transaction: tx})
	source.send(t, models.NodeEvent{Kind: models.EventTransactionNew, Transaction: tx})

	select {
	case err := <-done:
		t.Fatalf("relay stopped early: %v", err)
	default:
	}
}

func TestLogEmitter(t *testing.T) {
	wrapped := &MockEventEmitter{}
	e := &LogEmitter{WrappedEmitter: wrapped}

	if err := e.EmitEvent(models.TransactionEvent{Network: models.Mainnet}); err != nil {
		t.Fatalf("EmitEvent: %v", err)
	}
	if len(wrapped.GetEmittedEvents()) != 1 {
		t.Error("event not forwarded to wrapped emitter")
	}
	if err := e.Close(); err != nil || !wrapped.closed {
		t.Errorf("Close did not reach wrapped emitter: %v", err)
	}

	bare := &LogEmitter{}
	if err := bare.EmitEvent(models.TransactionEvent{}); err != nil {
		t.Errorf("bare emitter: %v", err)
	}
}

func TestExplorerURL(t *testing.T) {
	tests := []struct {
		network models.Network
		want    string
	}{
		{models.Mainnet, "https://mempool.space/tx/ff"},
		{models.Testnet, "https://mempool.space/testnet/tx/ff"},
	}
	for _, tt := range tests {
		if got := ExplorerURL(tt.network, "ff"); got != tt.want {
			t.Errorf("ExplorerURL(%s) = %s, want %s", tt.network, got, tt.want)
		}
	}
}

// gatedEmitter blocks every EmitEvent until release is closed.
type gatedEmitter struct {
	MockEventEmitter
	release chan struct{}
}

func (g *gatedEmitter) EmitEvent(event models.TransactionEvent) error {
	<-g.release
	return g.MockEventEmitter.EmitEvent(event)
}

func TestRelay_SlowEmitterDoesNotBlockSource(t *testing.T) {
	source := &feedSource{}
	emitter := &gatedEmitter{release: make(chan struct{})}
	relay := NewRelay(source, emitter, nil)
	relay.queueSize = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	start := time.Now()
	for i := 0; i < 20; i++ {
		source.send(t, models.NodeEvent{
			Kind:        models.EventTransactionNew,
			Transaction: &models.Transaction{ID: fmt.Sprintf("tx%d", i)},
		})
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("publishing took %s behind a stalled emitter", elapsed)
	}

	close(emitter.release)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}

	got := emitter.GetEmittedEvents()
	if len(got) == 0 || len(got) >= 20 {
		t.Fatalf("emitted %d events, want the in-flight and queued ones only", len(got))
	}
	if got[0].Transaction.ID != "tx0" {
		t.Errorf("first emitted = %s, want tx0", got[0].Transaction.ID)
	}
}
