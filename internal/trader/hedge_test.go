package trader

import (
	"testing"
	"time"

	"exsim-maker-bot/internal/exsim"
)

// emptyBook drives the hedge check without touching the quotes.
func emptyBook() exsim.OrderBook {
	return exsim.OrderBook{Instrument: exsim.InstrumentFuture}
}

func TestHedgeSellFiresAfterDeadline(t *testing.T) {
	tr, sender, clock := newTestTrader()
	tr.position = 15

	clock.advance(UnhedgedTimeLimit - time.Second)
	tr.HandleOrderBook(emptyBook())
	if len(sender.ofKind("hedge")) != 0 {
		t.Fatalf("hedge fired before the deadline: %+v", sender.commands)
	}

	clock.advance(time.Second)
	tr.HandleOrderBook(emptyBook())
	hedges := sender.ofKind("hedge")
	if len(hedges) != 1 {
		t.Fatalf("expected 1 hedge order, got %+v", sender.commands)
	}
	h := hedges[0]
	if h.side != exsim.SideAsk || h.price != MinBidNearestTick || h.volume != 5 {
		t.Fatalf("expected sell of 5 lots at %d, got %+v", uint64(MinBidNearestTick), h)
	}
	if got := tr.Snapshot().HedgePosition; got != -5 {
		t.Fatalf("expected hedge position -5, got %d", got)
	}
}

func TestHedgeBuyWhenShort(t *testing.T) {
	tr, sender, clock := newTestTrader()
	tr.position = -23

	clock.advance(UnhedgedTimeLimit)
	tr.HandleOrderBook(emptyBook())
	hedges := sender.ofKind("hedge")
	if len(hedges) != 1 {
		t.Fatalf("expected 1 hedge order, got %+v", sender.commands)
	}
	h := hedges[0]
	if h.side != exsim.SideBid || h.price != MaxAskNearestTick || h.volume != 13 {
		t.Fatalf("expected buy of 13 lots at %d, got %+v", uint64(MaxAskNearestTick), h)
	}
	if got := tr.Snapshot().HedgePosition; got != 13 {
		t.Fatalf("expected hedge position +13, got %d", got)
	}
}

func TestTimerResetsWhileExposureInsideThreshold(t *testing.T) {
	tr, sender, clock := newTestTrader()
	tr.position = MaxUnhedgedLots // exactly at the edge: still inside

	// Stay inside long past the deadline, then step outside: the clock
	// only starts counting from that moment.
	clock.advance(10 * UnhedgedTimeLimit)
	tr.HandleOrderBook(emptyBook())

	tr.position = MaxUnhedgedLots + 1
	clock.advance(UnhedgedTimeLimit - time.Millisecond)
	tr.HandleOrderBook(emptyBook())
	if len(sender.ofKind("hedge")) != 0 {
		t.Fatalf("hedge fired before a full deadline outside the threshold: %+v", sender.commands)
	}

	clock.advance(time.Millisecond)
	tr.HandleOrderBook(emptyBook())
	if len(sender.ofKind("hedge")) != 1 {
		t.Fatalf("expected hedge after a full deadline, got %+v", sender.commands)
	}
}

func TestHedgeBringsExposureBackToThreshold(t *testing.T) {
	tr, sender, clock := newTestTrader()
	tr.position = 40

	clock.advance(UnhedgedTimeLimit)
	tr.HandleOrderBook(emptyBook())
	if len(sender.ofKind("hedge")) != 1 {
		t.Fatalf("expected first hedge, got %+v", sender.commands)
	}
	snap := tr.Snapshot()
	if snap.Position+snap.HedgePosition != MaxUnhedgedLots {
		t.Fatalf("expected exposure back at %d, got %d", MaxUnhedgedLots, snap.Position+snap.HedgePosition)
	}

	// Immediately after the hedge the exposure sits at the edge; nothing
	// more fires, the timer just tracks now again.
	tr.HandleOrderBook(emptyBook())
	clock.advance(UnhedgedTimeLimit)
	tr.HandleOrderBook(emptyBook())
	if len(sender.ofKind("hedge")) != 1 {
		t.Fatalf("expected no second hedge, got %+v", sender.commands)
	}
}
