package trader

import (
	"testing"

	"exsim-maker-bot/internal/exsim"
)

func TestFreshBookQuotesBothSides(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(1000, 1100))

	if len(sender.commands) != 2 {
		t.Fatalf("expected 2 commands, got %+v", sender.commands)
	}
	bid := sender.commands[0]
	if bid.kind != "insert" || bid.id != 1 || bid.side != exsim.SideBuy || bid.price != 1000 || bid.volume != 50 || bid.lifespan != exsim.LifespanGoodForDay {
		t.Fatalf("unexpected bid insert: %+v", bid)
	}
	ask := sender.commands[1]
	if ask.kind != "insert" || ask.id != 2 || ask.side != exsim.SideSell || ask.price != 1100 || ask.volume != 50 || ask.lifespan != exsim.LifespanGoodForDay {
		t.Fatalf("unexpected ask insert: %+v", ask)
	}
}

func TestUnchangedBookSendsNothing(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(1000, 1100))
	sender.reset()

	for i := 0; i < 3; i++ {
		tr.HandleOrderBook(futureBook(1000, 1100))
	}
	if len(sender.commands) != 0 {
		t.Fatalf("expected no commands on unchanged best prices, got %+v", sender.commands)
	}
}

func TestBestPriceMoveCancelsAndReplaces(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(1000, 1100))
	sender.reset()

	tr.HandleOrderBook(futureBook(900, 1200))
	if len(sender.commands) != 4 {
		t.Fatalf("expected cancel+insert per side, got %+v", sender.commands)
	}
	if sender.commands[0].kind != "cancel" || sender.commands[0].id != 1 {
		t.Fatalf("expected bid cancel first, got %+v", sender.commands[0])
	}
	if sender.commands[1].kind != "insert" || sender.commands[1].price != 900 || sender.commands[1].id != 3 {
		t.Fatalf("expected bid replacement at 900, got %+v", sender.commands[1])
	}
	if sender.commands[2].kind != "cancel" || sender.commands[2].id != 2 {
		t.Fatalf("expected ask cancel, got %+v", sender.commands[2])
	}
	if sender.commands[3].kind != "insert" || sender.commands[3].price != 1200 || sender.commands[3].id != 4 {
		t.Fatalf("expected ask replacement at 1200, got %+v", sender.commands[3])
	}
}

func TestEmptyBookSideKeepsRestingOrder(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(1000, 1100))
	sender.reset()

	// Bid depth vanished: the resting bid stays, the ask follows the move.
	tr.HandleOrderBook(futureBook(0, 1200))
	cancels := sender.ofKind("cancel")
	if len(cancels) != 1 || cancels[0].id != 2 {
		t.Fatalf("expected only the ask to be cancelled, got %+v", cancels)
	}
	inserts := sender.ofKind("insert")
	if len(inserts) != 1 || inserts[0].side != exsim.SideSell {
		t.Fatalf("expected only an ask insert, got %+v", inserts)
	}
}

func TestNoQuotesOnEmptyBook(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(0, 0))
	if len(sender.commands) != 0 {
		t.Fatalf("expected no commands on an empty book, got %+v", sender.commands)
	}
}

func TestInsertSkippedWhenPositionCapExhausted(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.position = PositionLimit

	tr.HandleOrderBook(futureBook(1000, 1100))
	inserts := sender.ofKind("insert")
	if len(inserts) != 1 {
		t.Fatalf("expected the ask alone, got %+v", inserts)
	}
	if inserts[0].side != exsim.SideSell || inserts[0].volume != 50 {
		t.Fatalf("unexpected ask insert: %+v", inserts[0])
	}
}

func TestInsertVolumeCappedByWorkingVolume(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.HandleOrderBook(futureBook(1000, 1100))

	tr.HandleOrderFilled(exsim.OrderFilled{OrderID: 1, Price: 1000, Volume: 40})
	tr.HandleOrderStatus(exsim.OrderStatus{OrderID: 1, FillVolume: 40, RemainingVolume: 10})

	// position 40, working bid 10, requested floor(60/2)=30:
	// min(100 - 40 - 10, 30) = 30.
	sender.reset()
	tr.HandleOrderBook(futureBook(1001, 1100))
	inserts := sender.ofKind("insert")
	if len(inserts) != 1 || inserts[0].volume != 30 {
		t.Fatalf("expected 30-lot bid, got %+v", inserts)
	}
}

func TestShortPositionCapsAsk(t *testing.T) {
	tr, sender, _ := newTestTrader()
	tr.position = -80
	tr.nextAskVolume = 90

	tr.HandleOrderBook(futureBook(1000, 1100))
	for _, cmd := range sender.ofKind("insert") {
		if cmd.side == exsim.SideSell && cmd.volume != 20 {
			t.Fatalf("expected ask capped at 20 lots, got %+v", cmd)
		}
	}
}
