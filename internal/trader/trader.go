package trader

import (
	"time"

	"exsim-maker-bot/internal/exsim"

	"go.uber.org/zap"
)

// CommandSender carries outgoing commands to the venue. Sends are
// asynchronous and never fail from the strategy's point of view; rejects
// come back later through the error event.
type CommandSender interface {
	InsertOrder(id uint64, side exsim.Side, price, volume uint64, lifespan exsim.Lifespan)
	CancelOrder(id uint64)
	HedgeOrder(id uint64, side exsim.Side, price, volume uint64)
}

// quote is a resting order as last acknowledged by us: id and price.
// A nil quote means no resting order on that side.
type quote struct {
	id    uint64
	price uint64
}

// quoteSide is one side's slot. openVolume is the lots still working at
// the venue for this side; it deliberately outlives a cancel send (the
// cancelled order can fill until the venue confirms) and is only released
// by the terminal status for the order or overwritten by the next insert.
type quoteSide struct {
	live       *quote
	openVolume int64
}

// Trader is the whole strategy state. It is owned by the session's event
// loop: exactly one handler runs at a time, so no locking is needed.
type Trader struct {
	sender CommandSender
	clock  func() time.Time
	log    *zap.Logger

	nextID        uint64
	sides         map[uint64]exsim.Side
	bid           quoteSide
	ask           quoteSide
	position      int64
	hedgePosition int64
	exposureSince time.Time
	nextBidVolume int64
	nextAskVolume int64
}

func New(sender CommandSender, clock func() time.Time, log *zap.Logger) *Trader {
	if clock == nil {
		clock = time.Now
	}
	return &Trader{
		sender:        sender,
		clock:         clock,
		log:           log,
		nextID:        1,
		sides:         make(map[uint64]exsim.Side),
		exposureSince: clock(),
		nextBidVolume: PositionLimit / 2,
		nextAskVolume: PositionLimit - PositionLimit/2,
	}
}

// Dispatch routes one inbound event to its handler.
func (t *Trader) Dispatch(ev exsim.Event) {
	switch e := ev.(type) {
	case exsim.OrderBook:
		t.HandleOrderBook(e)
	case exsim.TradeTicks:
		t.HandleTradeTicks(e)
	case exsim.OrderFilled:
		t.HandleOrderFilled(e)
	case exsim.HedgeFilled:
		t.HandleHedgeFilled(e)
	case exsim.OrderStatus:
		t.HandleOrderStatus(e)
	case exsim.OrderError:
		t.HandleError(e)
	}
}

func (t *Trader) allocateID() uint64 {
	id := t.nextID
	t.nextID++
	return id
}

// SideOf reports which side an order id was sent as, if it is still
// tracked. Hedge orders are never tracked here.
func (t *Trader) SideOf(id uint64) (exsim.Side, bool) {
	side, ok := t.sides[id]
	return side, ok
}

// HandleOrderStatus reconciles a slot against the venue's view. A zero
// remaining volume is terminal whatever the cause: full fill, cancel, or
// an error-forced cancel.
func (t *Trader) HandleOrderStatus(status exsim.OrderStatus) {
	t.log.Debug("order status",
		zap.Uint64("order_id", status.OrderID),
		zap.Uint64("fill_volume", status.FillVolume),
		zap.Uint64("remaining_volume", status.RemainingVolume),
		zap.Int64("fees", status.Fees),
	)
	if status.RemainingVolume == 0 {
		if t.bid.live != nil && t.bid.live.id == status.OrderID {
			t.bid.live = nil
			t.bid.openVolume = 0
		} else if t.ask.live != nil && t.ask.live.id == status.OrderID {
			t.ask.live = nil
			t.ask.openVolume = 0
		}
		delete(t.sides, status.OrderID)
		return
	}
	if status.FillVolume > 0 {
		if t.bid.live != nil && t.bid.live.id == status.OrderID {
			t.bid.openVolume = max64(t.bid.openVolume-int64(status.FillVolume), 0)
		} else if t.ask.live != nil && t.ask.live.id == status.OrderID {
			t.ask.openVolume = max64(t.ask.openVolume-int64(status.FillVolume), 0)
		}
	}
}

// HandleError treats a venue error on a tracked quote exactly like a
// cancel: a zero-remaining-volume status. Errors on unknown ids (hedge
// orders included) are logged and ignored.
func (t *Trader) HandleError(e exsim.OrderError) {
	t.log.Warn("venue error", zap.Uint64("order_id", e.OrderID), zap.String("message", e.Message))
	if e.OrderID == 0 {
		return
	}
	if _, ok := t.sides[e.OrderID]; ok {
		t.HandleOrderStatus(exsim.OrderStatus{OrderID: e.OrderID})
	}
}

// HandleHedgeFilled only reports; hedge_position already moved when the
// hedge order was sent.
func (t *Trader) HandleHedgeFilled(fill exsim.HedgeFilled) {
	t.log.Info("hedge order filled",
		zap.Uint64("order_id", fill.OrderID),
		zap.Uint64("avg_price", fill.Price),
		zap.Uint64("volume", fill.Volume),
	)
}

func (t *Trader) HandleTradeTicks(ticks exsim.TradeTicks) {
	t.log.Debug("trade ticks",
		zap.Uint8("instrument", uint8(ticks.Instrument)),
		zap.Uint32("sequence", ticks.Sequence),
	)
}

// Snapshot is the persistable part of the strategy state: enough to keep
// order ids unique and positions correct across a restart.
type Snapshot struct {
	NextOrderID   uint64
	Position      int64
	HedgePosition int64
	NextBidVolume int64
	NextAskVolume int64
}

func (t *Trader) Snapshot() Snapshot {
	return Snapshot{
		NextOrderID:   t.nextID,
		Position:      t.position,
		HedgePosition: t.hedgePosition,
		NextBidVolume: t.nextBidVolume,
		NextAskVolume: t.nextAskVolume,
	}
}

// Restore seeds the trader from a persisted snapshot. The id counter only
// moves forward so uniqueness holds even against a stale snapshot.
func (t *Trader) Restore(snap Snapshot) {
	if snap.NextOrderID > t.nextID {
		t.nextID = snap.NextOrderID
	}
	t.position = snap.Position
	t.hedgePosition = snap.HedgePosition
	if snap.NextBidVolume != 0 || snap.NextAskVolume != 0 {
		t.nextBidVolume = snap.NextBidVolume
		t.nextAskVolume = snap.NextAskVolume
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
