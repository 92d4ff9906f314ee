package trader

import (
	"exsim-maker-bot/internal/exsim"

	"go.uber.org/zap"
)

// checkHedge runs on every future book update. While the unhedged
// exposure sits inside the threshold the timer tracks "now"; once it has
// been outside for UnhedgedTimeLimit a hedge order brings it back to the
// threshold edge and the timer restarts.
func (t *Trader) checkHedge() {
	exposure := t.position + t.hedgePosition
	now := t.clock()
	if abs64(exposure) <= MaxUnhedgedLots {
		t.exposureSince = now
		return
	}
	if now.Sub(t.exposureSince) < UnhedgedTimeLimit {
		return
	}
	t.fireHedge(exposure)
	t.exposureSince = now
}

// fireHedge offsets the excess over the threshold with an aggressively
// priced order on the hedge venue. hedge_position moves at send time;
// the hedge fill event is informational.
func (t *Trader) fireHedge(exposure int64) {
	if exposure > MaxUnhedgedLots {
		volume := exposure - MaxUnhedgedLots
		id := t.allocateID()
		t.sender.HedgeOrder(id, exsim.SideAsk, MinBidNearestTick, uint64(volume))
		t.hedgePosition -= volume
		t.log.Info("hedge sell sent", zap.Uint64("order_id", id), zap.Int64("volume", volume), zap.Int64("exposure", exposure))
		return
	}
	if exposure < -MaxUnhedgedLots {
		volume := -(exposure + MaxUnhedgedLots)
		id := t.allocateID()
		t.sender.HedgeOrder(id, exsim.SideBid, MaxAskNearestTick, uint64(volume))
		t.hedgePosition += volume
		t.log.Info("hedge buy sent", zap.Uint64("order_id", id), zap.Int64("volume", volume), zap.Int64("exposure", exposure))
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
