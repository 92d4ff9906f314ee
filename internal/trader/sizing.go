package trader

import (
	"exsim-maker-bot/internal/exsim"

	"go.uber.org/zap"
)

// HandleOrderFilled books the fill into the net position and resizes the
// next quotes. Fill events never clear slots; the matching order status
// event does that.
func (t *Trader) HandleOrderFilled(fill exsim.OrderFilled) {
	t.log.Info("order filled",
		zap.Uint64("order_id", fill.OrderID),
		zap.Uint64("price", fill.Price),
		zap.Uint64("volume", fill.Volume),
	)
	if side, ok := t.sides[fill.OrderID]; ok {
		if side == exsim.SideBuy {
			t.position += int64(fill.Volume)
		} else {
			t.position -= int64(fill.Volume)
		}
	}
	t.resizeQuotes()
}

// resizeQuotes splits the remaining headroom to the limit evenly between
// the two sides, always summing to PositionLimit. A short position rounds
// the bid up so the next cycle leans back toward flat.
func (t *Trader) resizeQuotes() {
	headroom := PositionLimit - t.position
	if t.position < 0 {
		t.nextBidVolume = (headroom + 1) >> 1 // ceil
	} else {
		t.nextBidVolume = headroom >> 1 // floor, also for overfilled headroom < 0
	}
	t.nextAskVolume = PositionLimit - t.nextBidVolume
}
