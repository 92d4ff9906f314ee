package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"exsim-maker-bot/internal/alerts"
	"exsim-maker-bot/internal/config"
	"exsim-maker-bot/internal/exec"
	"exsim-maker-bot/internal/exsim"
	"exsim-maker-bot/internal/metrics"
	"exsim-maker-bot/internal/recorder"
	"exsim-maker-bot/internal/state"
	"exsim-maker-bot/internal/state/sqlite"
	"exsim-maker-bot/internal/trader"

	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

type App struct {
	cfg      *config.Config
	log      *zap.Logger
	store    state.Store
	session  *exsim.Session
	trader   *trader.Trader
	metrics  *metrics.Metrics
	prom     *metrics.Prometheus
	recorder *recorder.Writer
	alerts   *alerts.Telegram
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.State.SQLitePath), 0o755); err != nil {
		return nil, err
	}
	store, err := sqlite.New(cfg.State.SQLitePath)
	if err != nil {
		return nil, err
	}

	secret := strings.TrimSpace(os.Getenv("EXSIM_SECRET"))
	if secret == "" {
		return nil, errors.New("EXSIM_SECRET is required")
	}
	login := exsim.Login{Team: cfg.Session.Team, Secret: secret}
	session := exsim.NewSession(cfg.Session.URL, cfg.Session.ReconnectDelay, login, log)

	m := metrics.NewNoop()
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom = metrics.NewPrometheus()
		m = prom.Metrics
	}
	alertsClient := alerts.NewTelegram(cfg.Telegram, log)
	rec, err := recorder.New(cfg.Recorder, log)
	if err != nil {
		return nil, err
	}

	executor := exec.New(session, store, m, alertsClient, log)
	tr := trader.New(executor, time.Now, log)

	return &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		session:  session,
		trader:   tr,
		metrics:  m,
		prom:     prom,
		recorder: rec,
		alerts:   alertsClient,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer a.store.Close()

	snap, ok, err := state.LoadTraderSnapshot(ctx, a.store)
	if err != nil {
		a.log.Warn("snapshot load failed", zap.Error(err))
	} else if ok {
		a.trader.Restore(trader.Snapshot{
			NextOrderID:   snap.NextOrderID,
			Position:      snap.Position,
			HedgePosition: snap.HedgePosition,
			NextBidVolume: snap.NextBidVolume,
			NextAskVolume: snap.NextAskVolume,
		})
		a.log.Info("restored trader snapshot",
			zap.Uint64("next_order_id", snap.NextOrderID),
			zap.Int64("position", snap.Position),
			zap.Int64("hedge_position", snap.HedgePosition),
		)
	}

	a.recorder.Start(ctx)
	defer a.recorder.Close()
	if a.prom != nil {
		a.serveMetrics(ctx)
	}

	runErr := a.session.Run(ctx, a.handleEvent)
	a.persistSnapshot()
	return runErr
}

// handleEvent runs on the session's read goroutine: one event at a time,
// strategy first, then the ambient side effects.
func (a *App) handleEvent(ev exsim.Event) {
	var fillSide string
	if fill, ok := ev.(exsim.OrderFilled); ok {
		if side, tracked := a.trader.SideOf(fill.OrderID); tracked {
			fillSide = side.String()
		}
	}

	a.trader.Dispatch(ev)

	switch e := ev.(type) {
	case exsim.OrderFilled:
		a.metrics.FillsReceived.Inc()
		a.recorder.EnqueueFill(recorder.Fill{
			Time:    time.Now(),
			OrderID: e.OrderID,
			Side:    fillSide,
			Price:   e.Price,
			Volume:  e.Volume,
		})
		a.recordPosition()
		a.persistSnapshot()
	case exsim.HedgeFilled:
		a.metrics.HedgeFills.Inc()
		a.recorder.EnqueueFill(recorder.Fill{
			Time:    time.Now(),
			OrderID: e.OrderID,
			Price:   e.Price,
			Volume:  e.Volume,
			Hedge:   true,
		})
		a.persistSnapshot()
	case exsim.OrderError:
		a.metrics.OrdersRejected.Inc()
		a.notify(fmt.Sprintf("Venue error on order %d: %s", e.OrderID, e.Message))
	}
}

func (a *App) recordPosition() {
	snap := a.trader.Snapshot()
	a.recorder.EnqueuePosition(recorder.PositionSnapshot{
		Time:          time.Now(),
		Position:      snap.Position,
		HedgePosition: snap.HedgePosition,
		NextBidVolume: snap.NextBidVolume,
		NextAskVolume: snap.NextAskVolume,
	})
}

func (a *App) persistSnapshot() {
	snap := a.trader.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	err := state.SaveTraderSnapshot(ctx, a.store, state.TraderSnapshot{
		NextOrderID:   snap.NextOrderID,
		Position:      snap.Position,
		HedgePosition: snap.HedgePosition,
		NextBidVolume: snap.NextBidVolume,
		NextAskVolume: snap.NextAskVolume,
		UpdatedAtMS:   time.Now().UnixMilli(),
	})
	if err != nil {
		a.log.Warn("snapshot persist failed", zap.Error(err))
	}
}

func (a *App) serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.prom.Handler())
	server := &http.Server{Addr: a.cfg.Metrics.ListenAddr, Handler: mux}
	go func() {
		a.log.Info("metrics listener started", zap.String("addr", a.cfg.Metrics.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Warn("metrics listener failed", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

func (a *App) notify(message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.alerts.Send(ctx, message); err != nil {
			a.log.Warn("alert send failed", zap.Error(err))
		}
	}()
}
