package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"attendance-tracker/internal/adapter/geosensor"
	"attendance-tracker/internal/adapter/hrapi"
	"attendance-tracker/internal/adapter/memstore"
	"attendance-tracker/internal/adapter/mysqlstore"
	"attendance-tracker/internal/adapter/redisstore"
	"attendance-tracker/internal/config"
	"attendance-tracker/internal/migrate"
	"attendance-tracker/internal/notify"
	"attendance-tracker/internal/ports"
	"attendance-tracker/internal/usecase"
)

// App wires adapters and use cases.
type App struct {
	log     *slog.Logger
	cfg     config.Config
	tracker *usecase.Tracker
	closers []func() error
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	a := &App{log: log, cfg: cfg}

	store, err := a.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	authority := hrapi.NewClient(cfg.Authority.BaseURL, cfg.Authority.Timeout, log)
	sensor := geosensor.New(cfg.Sensor.Endpoint, cfg.Sensor.Timeout, log)
	notifier := &notify.SlogNotifier{Log: log}

	a.tracker = &usecase.Tracker{
		Log:        log,
		Reconciler: &usecase.Reconciler{Log: log, Authority: authority, Store: store},
		Dispatcher: &usecase.Dispatcher{
			Log:       log,
			Authority: authority,
			Store:     store,
			Sensor:    sensor,
			Notifier:  notifier,
			// Confirmation is collected by the front-end; the control API
			// refuses a clock-out whose request did not carry it.
			Confirmer: ports.ConfirmerFunc(func(ctx context.Context, prompt string) (bool, error) {
				return true, nil
			}),
		},
		Ticker: &usecase.Ticker{Interval: time.Second},
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config) (ports.SnapshotStore, error) {
	switch cfg.Store.Backend {
	case "mysql":
		if err := migrate.Run(ctx, cfg.Store.MySQLDSN, a.log); err != nil {
			return nil, err
		}
		st, err := mysqlstore.New(ctx, cfg.Store.MySQLDSN, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	case "redis":
		st, err := redisstore.New(ctx, cfg.Store.RedisURL, a.log)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	case "memory":
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// Tracker exposes the session controller to the control API and main.
func (a *App) Tracker() *usecase.Tracker { return a.tracker }

// Close releases held resources.
func (a *App) Close() error {
	a.tracker.Shutdown()
	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
