package exsim

// Instrument identifies a tradable product on the venue.
type Instrument uint8

const (
	InstrumentFuture Instrument = 0
	InstrumentETF    Instrument = 1
)

type Side uint8

const (
	SideSell Side = 0
	SideBuy  Side = 1

	// Hedge orders are addressed by the book side they hit.
	SideAsk = SideSell
	SideBid = SideBuy
)

func (s Side) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

type Lifespan uint8

const (
	LifespanFillAndKill Lifespan = 0
	LifespanGoodForDay  Lifespan = 1
)

// TopLevelCount is the book depth reported in every order book and
// trade ticks event. Levels beyond the available depth are zero.
const TopLevelCount = 5

// Event is one inbound venue callback. The session delivers events to
// its handler one at a time, in arrival order.
type Event interface {
	event()
}

type OrderBook struct {
	Instrument Instrument
	Sequence   uint32
	AskPrices  [TopLevelCount]uint64
	AskVolumes [TopLevelCount]uint64
	BidPrices  [TopLevelCount]uint64
	BidVolumes [TopLevelCount]uint64
}

type TradeTicks struct {
	Instrument Instrument
	Sequence   uint32
	AskPrices  [TopLevelCount]uint64
	AskVolumes [TopLevelCount]uint64
	BidPrices  [TopLevelCount]uint64
	BidVolumes [TopLevelCount]uint64
}

type OrderFilled struct {
	OrderID uint64
	Price   uint64
	Volume  uint64
}

type HedgeFilled struct {
	OrderID uint64
	Price   uint64
	Volume  uint64
}

type OrderStatus struct {
	OrderID         uint64
	FillVolume      uint64
	RemainingVolume uint64
	Fees            int64
}

// OrderError reports a rejected or errored command. OrderID is zero when
// the error does not pertain to a particular order.
type OrderError struct {
	OrderID uint64
	Message string
}

func (OrderBook) event()   {}
func (TradeTicks) event()  {}
func (OrderFilled) event() {}
func (HedgeFilled) event() {}
func (OrderStatus) event() {}
func (OrderError) event()  {}

// Command is one outbound frame sent to the venue.
type Command interface {
	command()
}

type Login struct {
	Team   string
	Secret string
}

type InsertOrder struct {
	OrderID  uint64
	Side     Side
	Price    uint64
	Volume   uint64
	Lifespan Lifespan
}

type CancelOrder struct {
	OrderID uint64
}

type HedgeOrder struct {
	OrderID uint64
	Side    Side
	Price   uint64
	Volume  uint64
}

func (Login) command()       {}
func (InsertOrder) command() {}
func (CancelOrder) command() {}
func (HedgeOrder) command()  {}
