package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/odyssey-erp/closeboard/internal/board"
	"github.com/odyssey-erp/closeboard/internal/close"
	"github.com/odyssey-erp/closeboard/internal/masterdata/companies"
	"github.com/odyssey-erp/closeboard/internal/observability"
	"github.com/odyssey-erp/closeboard/internal/platform/kv"
	"github.com/odyssey-erp/closeboard/internal/store"
)

// Services is the object graph shared by the server, the worker and the CLI.
type Services struct {
	Backend  kv.Backend
	Store    *store.Store
	Closing  *close.Service
	Registry *companies.Service
	Session  *board.Session
}

// OpenServices connects the configured backend, loads the dataset and builds
// the domain services on top of it. metrics may be nil.
func OpenServices(ctx context.Context, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	return openServices(ctx, cfg.StoreOptions(), logger, metrics)
}

func openServices(ctx context.Context, opts kv.Options, logger *slog.Logger, metrics *observability.Metrics) (*Services, error) {
	backend, err := kv.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("app: open %s backend: %w", opts.Kind, err)
	}
	st, err := store.Open(ctx, backend, logger)
	if err != nil {
		closeBackend(backend, logger)
		return nil, err
	}
	closing := close.NewService(st, logger)
	if metrics != nil {
		st.SetObserver(metrics)
		closing.SetObserver(metrics)
	}
	return &Services{
		Backend:  backend,
		Store:    st,
		Closing:  closing,
		Registry: companies.NewService(st, closing, logger),
		Session:  board.NewSession(closing),
	}, nil
}

// Close releases the storage backend.
func (s *Services) Close(logger *slog.Logger) {
	if s == nil {
		return
	}
	closeBackend(s.Backend, logger)
}

func closeBackend(backend kv.Backend, logger *slog.Logger) {
	closer, ok := backend.(kv.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn("close storage backend", slog.Any("error", err))
	}
}
