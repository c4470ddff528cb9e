package publishcmd

import (
	"fmt"

	"pilotmgr"
	"pilotmgr/bus"
	"pilotmgr/config"

	"github.com/spf13/cobra"
)

// Cmd returns the "pilotctl publish" command, which injects samples onto the
// manager bus the way a worker process would.
func Cmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a sample on the manager bus",
	}
	cmd.AddCommand(deviceStateCmd(configPath))
	return cmd
}

func deviceStateCmd(configPath *string) *cobra.Command {
	var started bool
	cmd := &cobra.Command{
		Use:   "device-state",
		Short: "Publish a deviceState sample",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			env, err := bus.NewEnvelope(pilotmgr.TopicDeviceState, pilotmgr.DeviceState{Started: started})
			if err != nil {
				return err
			}
			if err := bus.Send(cfg.Paths.BusSocket, env); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s (%s)\n", pilotmgr.TopicDeviceState,
				pilotmgr.OperatingStateFromStarted(started))
			return nil
		},
	}
	cmd.Flags().BoolVar(&started, "started", false, "Report the vehicle as on-road")
	return cmd
}
