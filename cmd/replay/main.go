// Command replay drives the strategy with a recorded or hand-written
// event script and prints every command it would have sent, plus the
// final strategy state. Useful for eyeballing behavior without a venue.
//
// The script is JSON lines, one event per line, e.g.
//
//	{"type":"order_book","at_ms":0,"instrument":0,"sequence":1,"bid_prices":[1000,0,0,0,0],"ask_prices":[1100,0,0,0,0]}
//	{"type":"order_filled","at_ms":250,"order_id":1,"price":1000,"volume":50}
//
// at_ms advances a scripted clock so hedge-deadline behavior can be
// exercised deterministically.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"exsim-maker-bot/internal/exsim"
	"exsim-maker-bot/internal/trader"

	"go.uber.org/zap"
)

type scriptEvent struct {
	Type            string   `json:"type"`
	AtMS            int64    `json:"at_ms"`
	Instrument      uint8    `json:"instrument"`
	Sequence        uint32   `json:"sequence"`
	AskPrices       []uint64 `json:"ask_prices"`
	AskVolumes      []uint64 `json:"ask_volumes"`
	BidPrices       []uint64 `json:"bid_prices"`
	BidVolumes      []uint64 `json:"bid_volumes"`
	OrderID         uint64   `json:"order_id"`
	Price           uint64   `json:"price"`
	Volume          uint64   `json:"volume"`
	FillVolume      uint64   `json:"fill_volume"`
	RemainingVolume uint64   `json:"remaining_volume"`
	Fees            int64    `json:"fees"`
	Message         string   `json:"message"`
}

type printingSender struct{}

func (printingSender) InsertOrder(id uint64, side exsim.Side, price, volume uint64, lifespan exsim.Lifespan) {
	name := "GFD"
	if lifespan == exsim.LifespanFillAndKill {
		name = "FAK"
	}
	fmt.Printf("insert  id=%-6d side=%-4s price=%-10d volume=%-4d lifespan=%s\n", id, side, price, volume, name)
}

func (printingSender) CancelOrder(id uint64) {
	fmt.Printf("cancel  id=%d\n", id)
}

func (printingSender) HedgeOrder(id uint64, side exsim.Side, price, volume uint64) {
	fmt.Printf("hedge   id=%-6d side=%-4s price=%-10d volume=%d\n", id, side, price, volume)
}

func main() {
	scriptPath := flag.String("script", "", "path to JSONL event script")
	verbose := flag.Bool("verbose", false, "log strategy debug output")
	flag.Parse()

	if *scriptPath == "" {
		fatal(fmt.Errorf("-script is required"))
	}
	file, err := os.Open(*scriptPath)
	if err != nil {
		fatal(err)
	}
	defer file.Close()

	log := zap.NewNop()
	if *verbose {
		if built, err := zap.NewDevelopment(); err == nil {
			log = built
		}
	}

	base := time.Unix(0, 0)
	now := base
	tr := trader.New(printingSender{}, func() time.Time { return now }, log)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev scriptEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			fatal(fmt.Errorf("line %d: %w", line, err))
		}
		now = base.Add(time.Duration(ev.AtMS) * time.Millisecond)
		decoded, err := toEvent(ev)
		if err != nil {
			fatal(fmt.Errorf("line %d: %w", line, err))
		}
		tr.Dispatch(decoded)
	}
	if err := scanner.Err(); err != nil {
		fatal(err)
	}

	snap := tr.Snapshot()
	fmt.Printf("\nfinal: position=%d hedge_position=%d next_bid_volume=%d next_ask_volume=%d next_order_id=%d\n",
		snap.Position, snap.HedgePosition, snap.NextBidVolume, snap.NextAskVolume, snap.NextOrderID)
}

func toEvent(ev scriptEvent) (exsim.Event, error) {
	switch ev.Type {
	case "order_book":
		return exsim.OrderBook{
			Instrument: exsim.Instrument(ev.Instrument),
			Sequence:   ev.Sequence,
			AskPrices:  toLevels(ev.AskPrices),
			AskVolumes: toLevels(ev.AskVolumes),
			BidPrices:  toLevels(ev.BidPrices),
			BidVolumes: toLevels(ev.BidVolumes),
		}, nil
	case "trade_ticks":
		return exsim.TradeTicks{
			Instrument: exsim.Instrument(ev.Instrument),
			Sequence:   ev.Sequence,
			AskPrices:  toLevels(ev.AskPrices),
			AskVolumes: toLevels(ev.AskVolumes),
			BidPrices:  toLevels(ev.BidPrices),
			BidVolumes: toLevels(ev.BidVolumes),
		}, nil
	case "order_filled":
		return exsim.OrderFilled{OrderID: ev.OrderID, Price: ev.Price, Volume: ev.Volume}, nil
	case "hedge_filled":
		return exsim.HedgeFilled{OrderID: ev.OrderID, Price: ev.Price, Volume: ev.Volume}, nil
	case "order_status":
		return exsim.OrderStatus{OrderID: ev.OrderID, FillVolume: ev.FillVolume, RemainingVolume: ev.RemainingVolume, Fees: ev.Fees}, nil
	case "error":
		return exsim.OrderError{OrderID: ev.OrderID, Message: ev.Message}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", ev.Type)
}

func toLevels(values []uint64) [exsim.TopLevelCount]uint64 {
	var levels [exsim.TopLevelCount]uint64
	copy(levels[:], values)
	return levels
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "replay: %v\n", err)
	os.Exit(1)
}
