package cli

import (
	"context"
	"log/slog"

	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/api"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/config"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/engine"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/queue"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/recorder"
	"github.com/omar1u7777/Lugn-Trygg-sub009/internal/store"
)

// app bundles the wired-up engine components behind one Close.
type app struct {
	cfg      config.Config
	kv       store.KV
	store    *store.Store
	recorder *recorder.Recorder
	client   *api.Client
	engine   *engine.Engine
}

// openApp loads config and wires store, recorder, client and engine.
// Commands that never touch the network (mood, memory, request, status)
// still get a client; it stays unused until a pass runs.
func openApp(ctx context.Context, opts *RootOptions, engineOpts ...engine.Option) (*app, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	kv, err := store.OpenSQLite(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	st, err := store.Open(ctx, kv, queue.NewClock())
	if err != nil {
		kv.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open queue store", err)
	}

	clientOpts := []api.Option{api.WithTimeout(cfg.API.Timeout())}
	if cfg.API.Token != "" {
		clientOpts = append(clientOpts, api.WithAuthToken(cfg.API.Token))
	}
	client, err := api.New(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		kv.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create API client", err)
	}

	engineOpts = append([]engine.Option{engine.WithCallTimeout(cfg.API.Timeout())}, engineOpts...)

	return &app{
		cfg:      cfg,
		kv:       kv,
		store:    st,
		recorder: recorder.New(st),
		client:   client,
		engine:   engine.New(st, client, engineOpts...),
	}, nil
}

// Close releases the database.
func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
