package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/camlink/internal/server/grpc"
	"github.com/autopeer-io/camlink/internal/server/http"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

// Server defines the common interface for all sub-servers (grpc, http).
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of the operational servers of a receiver.
type Manager struct {
	servers []Server
}

// NewManager creates the enabled servers. ready backs /readyz and the gRPC health status.
func NewManager(httpOpts *options.HttpOptions, grpcOpts *options.GrpcOptions, ready http.ReadyFunc) *Manager {
	var servers []Server

	if httpOpts != nil && httpOpts.Enabled {
		servers = append(servers, http.NewServer(httpOpts, ready))
	}
	if grpcOpts != nil && grpcOpts.Enabled {
		servers = append(servers, grpc.NewServer(grpcOpts))
	}

	return &Manager{servers: servers}
}

// Len returns how many servers are enabled.
func (m *Manager) Len() int { return len(m.servers) }

// Start launches all servers in parallel and waits for termination.
func (m *Manager) Start(ctx context.Context) error {
	if len(m.servers) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
