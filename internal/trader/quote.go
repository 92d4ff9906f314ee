package trader

import (
	"exsim-maker-bot/internal/exsim"

	"go.uber.org/zap"
)

// HandleOrderBook re-quotes both sides at the new best prices and then
// runs the hedge check. Only the future book drives quoting.
func (t *Trader) HandleOrderBook(book exsim.OrderBook) {
	t.log.Debug("order book",
		zap.Uint8("instrument", uint8(book.Instrument)),
		zap.Uint32("sequence", book.Sequence),
		zap.Uint64("best_bid", book.BidPrices[0]),
		zap.Uint64("best_ask", book.AskPrices[0]),
	)
	if book.Instrument != exsim.InstrumentFuture {
		return
	}
	newBidPrice := book.BidPrices[0]
	newAskPrice := book.AskPrices[0]

	t.cancelQuote(&t.bid, newBidPrice)
	t.insertBid(newBidPrice, t.nextBidVolume)

	t.cancelQuote(&t.ask, newAskPrice)
	t.insertAsk(newAskPrice, t.nextAskVolume)

	t.checkHedge()
}

// cancelQuote pulls the side's resting order when the best price moved.
// A zero candidate means no depth on that side: keep resting. The slot is
// cleared optimistically; openVolume stays tracked until the venue
// confirms or the next insert replaces it.
func (t *Trader) cancelQuote(side *quoteSide, newPrice uint64) {
	if side.live != nil && newPrice != 0 && newPrice != side.live.price {
		t.sender.CancelOrder(side.live.id)
		side.live = nil
	}
}

// insertBid rests a buy at price if the slot is free. The volume is capped
// so the bid filling in full cannot push the position past +PositionLimit
// even with the side's open volume already working.
func (t *Trader) insertBid(price uint64, requested int64) {
	volume := min64(PositionLimit-t.position-t.bid.openVolume, requested)
	if t.bid.live != nil || price == 0 || volume <= 0 {
		return
	}
	id := t.allocateID()
	t.bid.live = &quote{id: id, price: price}
	t.bid.openVolume = volume
	t.sides[id] = exsim.SideBuy
	t.sender.InsertOrder(id, exsim.SideBuy, price, uint64(volume), exsim.LifespanGoodForDay)
}

// insertAsk mirrors insertBid for the sell side against -PositionLimit.
func (t *Trader) insertAsk(price uint64, requested int64) {
	volume := min64(t.position+PositionLimit-t.ask.openVolume, requested)
	if t.ask.live != nil || price == 0 || volume <= 0 {
		return
	}
	id := t.allocateID()
	t.ask.live = &quote{id: id, price: price}
	t.ask.openVolume = volume
	t.sides[id] = exsim.SideSell
	t.sender.InsertOrder(id, exsim.SideSell, price, uint64(volume), exsim.LifespanGoodForDay)
}
