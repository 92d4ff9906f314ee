package recorder

import (
	"context"
	"testing"
	"time"

	"exsim-maker-bot/internal/config"

	"go.uber.org/zap"
)

func TestNewDisabledReturnsNilWriter(t *testing.T) {
	w, err := New(config.RecorderConfig{}, zap.NewNop())
	if err != nil {
		t.Fatalf("disabled recorder must not error: %v", err)
	}
	if w != nil {
		t.Fatal("expected nil writer when disabled")
	}
}

func TestNewEnabledRequiresDSN(t *testing.T) {
	if _, err := New(config.RecorderConfig{Enabled: true}, zap.NewNop()); err == nil {
		t.Fatal("expected error for enabled recorder without dsn")
	}
}

func TestNilWriterIsSafe(t *testing.T) {
	var w *Writer
	w.Start(context.Background())
	w.EnqueueFill(Fill{Time: time.Now(), OrderID: 1, Side: "buy", Price: 1000, Volume: 5})
	w.EnqueuePosition(PositionSnapshot{Time: time.Now(), Position: 5})
	if err := w.Close(); err != nil {
		t.Fatalf("nil writer close: %v", err)
	}
}

func TestEnqueueDropsWhenQueueFull(t *testing.T) {
	w := &Writer{
		log:       zap.NewNop(),
		schema:    "public",
		fills:     make(chan Fill, 1),
		positions: make(chan PositionSnapshot, 1),
	}
	for i := 0; i < 3; i++ {
		w.EnqueueFill(Fill{OrderID: uint64(i)})
		w.EnqueuePosition(PositionSnapshot{Position: int64(i)})
	}
	if got := w.dropFill.Load(); got != 2 {
		t.Fatalf("expected 2 dropped fills, got %d", got)
	}
	if got := w.dropPos.Load(); got != 2 {
		t.Fatalf("expected 2 dropped positions, got %d", got)
	}
	if len(w.fills) != 1 || len(w.positions) != 1 {
		t.Fatalf("expected queues to hold 1 each, got %d/%d", len(w.fills), len(w.positions))
	}
}
