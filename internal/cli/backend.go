package cli

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/internal/remote"
	"github.com/mesh-intelligence/accountdesk/internal/sqlite"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// openBackend creates and attaches the configured backend. The caller
// must defer Detach.
func (a *app) openBackend() (types.Backend, error) {
	var backend types.Backend
	switch a.settings.backend {
	case types.BackendRemote:
		backend = remote.NewClient(remote.WithLogger(a.logger))
	default:
		backend = sqlite.NewBackend()
	}
	if err := backend.Attach(a.settings.backendConfig()); err != nil {
		return nil, sysError(fmt.Errorf("attach %s backend: %w", a.settings.backend, err))
	}
	return backend, nil
}

// openStore attaches the backend and loads a listing store over it.
func (a *app) openStore(ctx context.Context, opts ...listing.Option) (*listing.Store, types.Backend, error) {
	backend, err := a.openBackend()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]listing.Option{
		listing.WithLogger(a.logger),
		listing.WithMaxConcurrentUpdates(a.settings.maxConcurrent),
	}, opts...)
	store := listing.NewStore(backend, backend, opts...)
	if err := store.Load(ctx); err != nil {
		backend.Detach()
		return nil, nil, sysError(err)
	}
	return store, backend, nil
}
