package exec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"exsim-maker-bot/internal/exsim"
	"exsim-maker-bot/internal/metrics"
	"exsim-maker-bot/internal/state"

	"go.uber.org/zap"
)

const sendTimeout = 2 * time.Second

// Transport carries encoded command frames to the venue.
type Transport interface {
	Send(ctx context.Context, cmd exsim.Command) error
}

// Notifier receives human-facing notices for notable commands.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// journalEntry is what gets persisted per outgoing command, for
// post-mortem reconstruction of what was sent and when.
type journalEntry struct {
	Kind     string `json:"kind"`
	Side     string `json:"side,omitempty"`
	Price    uint64 `json:"price,omitempty"`
	Volume   uint64 `json:"volume,omitempty"`
	Lifespan string `json:"lifespan,omitempty"`
	SentMS   int64  `json:"sent_ms"`
}

// Executor turns strategy commands into venue sends. Sends are
// fire-and-forget: a failure is logged and counted, never retried here —
// the venue's status and error callbacks are the reconciliation path.
type Executor struct {
	transport Transport
	store     state.Store
	metrics   *metrics.Metrics
	notifier  Notifier
	log       *zap.Logger
}

func New(transport Transport, store state.Store, m *metrics.Metrics, notifier Notifier, log *zap.Logger) *Executor {
	if m == nil {
		m = metrics.NewNoop()
	}
	return &Executor{
		transport: transport,
		store:     store,
		metrics:   m,
		notifier:  notifier,
		log:       log,
	}
}

func (e *Executor) InsertOrder(id uint64, side exsim.Side, price, volume uint64, lifespan exsim.Lifespan) {
	lifespanName := "good_for_day"
	if lifespan == exsim.LifespanFillAndKill {
		lifespanName = "fill_and_kill"
	}
	e.journal(id, journalEntry{
		Kind:     "insert",
		Side:     side.String(),
		Price:    price,
		Volume:   volume,
		Lifespan: lifespanName,
		SentMS:   time.Now().UnixMilli(),
	})
	e.send(exsim.InsertOrder{OrderID: id, Side: side, Price: price, Volume: volume, Lifespan: lifespan}, id)
	e.metrics.QuotesInserted.Inc()
}

func (e *Executor) CancelOrder(id uint64) {
	e.journal(id, journalEntry{Kind: "cancel", SentMS: time.Now().UnixMilli()})
	e.send(exsim.CancelOrder{OrderID: id}, id)
	e.metrics.QuotesCancelled.Inc()
}

func (e *Executor) HedgeOrder(id uint64, side exsim.Side, price, volume uint64) {
	e.journal(id, journalEntry{
		Kind:   "hedge",
		Side:   side.String(),
		Price:  price,
		Volume: volume,
		SentMS: time.Now().UnixMilli(),
	})
	e.send(exsim.HedgeOrder{OrderID: id, Side: side, Price: price, Volume: volume}, id)
	e.metrics.HedgesFired.Inc()
	e.notify(fmt.Sprintf("Hedge %s %d lots at %d (order %d)", side, volume, price, id))
}

func (e *Executor) send(cmd exsim.Command, id uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	if err := e.transport.Send(ctx, cmd); err != nil {
		e.metrics.SendFailures.Inc()
		e.log.Warn("command send failed", zap.Uint64("order_id", id), zap.Error(err))
	}
}

func (e *Executor) journal(id uint64, entry journalEntry) {
	if e.store == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	key := fmt.Sprintf("journal:%s:%d", entry.Kind, id)
	if err := e.store.Set(ctx, key, string(payload)); err != nil {
		e.log.Warn("command journal write failed", zap.Uint64("order_id", id), zap.Error(err))
	}
}

func (e *Executor) notify(message string) {
	if e.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.notifier.Send(ctx, message); err != nil {
			e.log.Warn("alert send failed", zap.Error(err))
		}
	}()
}
