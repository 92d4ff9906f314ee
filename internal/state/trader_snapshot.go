package state

import (
	"context"
	"encoding/json"
	"strings"
)

const TraderSnapshotKey = "trader:last_snapshot"

// TraderSnapshot is the persisted strategy state: the order-id counter
// must survive restarts so ids stay unique for the venue, and positions
// carry over so hedging stays correct.
type TraderSnapshot struct {
	NextOrderID   uint64 `json:"next_order_id"`
	Position      int64  `json:"position"`
	HedgePosition int64  `json:"hedge_position"`
	NextBidVolume int64  `json:"next_bid_volume"`
	NextAskVolume int64  `json:"next_ask_volume"`
	UpdatedAtMS   int64  `json:"updated_at_ms"`
}

func LoadTraderSnapshot(ctx context.Context, store Store) (TraderSnapshot, bool, error) {
	if store == nil {
		return TraderSnapshot{}, false, nil
	}
	raw, ok, err := store.Get(ctx, TraderSnapshotKey)
	if err != nil {
		return TraderSnapshot{}, false, err
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return TraderSnapshot{}, false, nil
	}
	var snapshot TraderSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return TraderSnapshot{}, false, err
	}
	return snapshot, true, nil
}

func SaveTraderSnapshot(ctx context.Context, store Store, snapshot TraderSnapshot) error {
	if store == nil {
		return nil
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return store.Set(ctx, TraderSnapshotKey, string(payload))
}
