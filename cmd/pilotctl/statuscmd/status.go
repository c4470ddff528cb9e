package statuscmd

import (
	"context"
	"fmt"
	"time"

	"pilotmgr/config"
	"pilotmgr/daemon"
	"pilotmgr/internal/ui"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const queryTimeout = 3 * time.Second

// Cmd returns the "pilotctl status" command.
func Cmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show manager and worker liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), queryTimeout)
			defer cancel()
			rows, err := collect(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"WORKER", "STATUS"}, rows))
			return nil
		},
	}
}

func collect(ctx context.Context, cfg config.Config) ([][]string, error) {
	conn, err := grpc.NewClient("unix://"+cfg.Paths.StatusSocket,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect to manager: %w", err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	manager, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return nil, fmt.Errorf("query manager: %w", err)
	}
	rows := [][]string{{"(manager)", ui.Liveness(manager.GetStatus() == healthpb.HealthCheckResponse_SERVING)}}

	for _, w := range cfg.Workers {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: daemon.WorkerService(w.Name)})
		if err != nil {
			// Workers without a heartbeat yet are unknown to the health service.
			rows = append(rows, []string{w.Name, ui.MutedStyle.Render("unknown")})
			continue
		}
		rows = append(rows, []string{w.Name, ui.Liveness(resp.GetStatus() == healthpb.HealthCheckResponse_SERVING)})
	}
	return rows, nil
}
