package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"

	"pilotmgr"
	"pilotmgr/bus"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// WorkerService is the health service name reporting one worker's liveness.
// The empty service name reports the manager itself.
func WorkerService(name string) string {
	return "pilotmgr.worker." + name
}

// StatusServer mirrors manager heartbeats into the gRPC health service.
type StatusServer struct {
	health *health.Server
}

func NewStatusServer() *StatusServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return &StatusServer{health: hs}
}

// SetReady marks the manager itself as serving.
func (s *StatusServer) SetReady() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
}

// Apply records one heartbeat.
func (s *StatusServer) Apply(state pilotmgr.ManagerState) {
	for _, p := range state.Processes {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if p.Running {
			status = healthpb.HealthCheckResponse_SERVING
		}
		s.health.SetServingStatus(WorkerService(p.Name), status)
	}
}

// Watch applies heartbeats from a managerState subscription until ctx is
// cancelled.
func (s *StatusServer) Watch(ctx context.Context, sub *bus.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-sub.C:
			var state pilotmgr.ManagerState
			if err := env.Decode(&state); err != nil {
				slog.Warn("decode manager state", "err", err)
				continue
			}
			s.Apply(state)
		}
	}
}

// ListenAndServe serves the health service on a unix socket and blocks until
// ctx is cancelled.
func (s *StatusServer) ListenAndServe(ctx context.Context, socketPath string) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create status socket dir: %w", err)
	}
	// Remove stale socket from a previous run (may not exist).
	_ = os.Remove(socketPath)
	defer func() { _ = os.Remove(socketPath) }()

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", socketPath, err)
	}

	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve status: %w", err)
	}
	return nil
}
