package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"exsim-maker-bot/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const writeTimeout = 3 * time.Second

// Fill is one execution against our orders, quote or hedge.
type Fill struct {
	Time    time.Time
	OrderID uint64
	Side    string
	Price   uint64
	Volume  uint64
	Hedge   bool
}

// PositionSnapshot is the strategy state after a fill was applied.
type PositionSnapshot struct {
	Time          time.Time
	Position      int64
	HedgePosition int64
	NextBidVolume int64
	NextAskVolume int64
}

// Writer records fills and position snapshots to Timescale without ever
// blocking the event loop: enqueues drop when the queue is full.
type Writer struct {
	db        *sql.DB
	log       *zap.Logger
	schema    string
	fills     chan Fill
	positions chan PositionSnapshot
	started   atomic.Bool
	dropFill  atomic.Uint64
	dropPos   atomic.Uint64
}

func New(cfg config.RecorderConfig, log *zap.Logger) (*Writer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("recorder dsn is required")
	}
	schema := strings.TrimSpace(cfg.Schema)
	if schema == "" {
		schema = "public"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	writer := &Writer{
		db:        db,
		log:       log,
		schema:    schema,
		fills:     make(chan Fill, queueSize),
		positions: make(chan PositionSnapshot, queueSize),
	}
	if err := writer.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return writer, nil
}

func (w *Writer) Start(ctx context.Context) {
	if w == nil {
		return
	}
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(ctx)
}

func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

func (w *Writer) EnqueueFill(fill Fill) {
	if w == nil {
		return
	}
	select {
	case w.fills <- fill:
	default:
		if w.dropFill.Add(1) == 1 && w.log != nil {
			w.log.Warn("recorder fill queue full")
		}
	}
}

func (w *Writer) EnqueuePosition(snapshot PositionSnapshot) {
	if w == nil {
		return
	}
	select {
	case w.positions <- snapshot:
	default:
		if w.dropPos.Add(1) == 1 && w.log != nil {
			w.log.Warn("recorder position queue full")
		}
	}
}

func (w *Writer) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fill := <-w.fills:
			w.writeFill(ctx, fill)
		case snap := <-w.positions:
			w.writePosition(ctx, snap)
		}
	}
}

func (w *Writer) ensureSchema(ctx context.Context) error {
	if w.db == nil {
		return errors.New("recorder db not initialized")
	}
	if w.schema != "public" {
		if err := w.exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", w.schema)); err != nil {
			return err
		}
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		order_id BIGINT NOT NULL,
		side TEXT NOT NULL,
		price BIGINT NOT NULL,
		volume BIGINT NOT NULL,
		hedge BOOLEAN NOT NULL
	)`, w.table("maker_fills"))); err != nil {
		return err
	}
	if err := w.exec(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		ts TIMESTAMPTZ NOT NULL,
		position BIGINT NOT NULL,
		hedge_position BIGINT NOT NULL,
		next_bid_volume BIGINT NOT NULL,
		next_ask_volume BIGINT NOT NULL
	)`, w.table("maker_positions"))); err != nil {
		return err
	}
	if err := w.exec(ctx, "CREATE EXTENSION IF NOT EXISTS timescaledb"); err != nil {
		if w.log != nil {
			w.log.Warn("timescale extension ensure failed", zap.Error(err))
		}
		return nil
	}
	for _, table := range []string{"maker_fills", "maker_positions"} {
		if err := w.exec(ctx, fmt.Sprintf("SELECT create_hypertable('%s', 'ts', if_not_exists => TRUE)", w.table(table))); err != nil && w.log != nil {
			w.log.Warn("hypertable create failed", zap.String("table", table), zap.Error(err))
		}
	}
	return nil
}

func (w *Writer) writeFill(ctx context.Context, fill Fill) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (ts, order_id, side, price, volume, hedge) VALUES ($1,$2,$3,$4,$5,$6)`, w.table("maker_fills"))
	if _, err := w.db.ExecContext(ctx, query,
		fill.Time,
		int64(fill.OrderID),
		fill.Side,
		int64(fill.Price),
		int64(fill.Volume),
		fill.Hedge,
	); err != nil && w.log != nil {
		w.log.Warn("fill insert failed", zap.Error(err))
	}
}

func (w *Writer) writePosition(ctx context.Context, snap PositionSnapshot) {
	if w.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	query := fmt.Sprintf(`INSERT INTO %s (ts, position, hedge_position, next_bid_volume, next_ask_volume) VALUES ($1,$2,$3,$4,$5)`, w.table("maker_positions"))
	if _, err := w.db.ExecContext(ctx, query,
		snap.Time,
		snap.Position,
		snap.HedgePosition,
		snap.NextBidVolume,
		snap.NextAskVolume,
	); err != nil && w.log != nil {
		w.log.Warn("position insert failed", zap.Error(err))
	}
}

func (w *Writer) exec(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_, err := w.db.ExecContext(ctx, query)
	return err
}

func (w *Writer) table(name string) string {
	return w.schema + "." + name
}
