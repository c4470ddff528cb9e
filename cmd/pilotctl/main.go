package main

import (
	"fmt"
	"os"

	"pilotmgr/cmd/pilotctl/paramscmd"
	"pilotmgr/cmd/pilotctl/publishcmd"
	"pilotmgr/cmd/pilotctl/statuscmd"
	"pilotmgr/config"
	"pilotmgr/internal/buildinfo"
	"pilotmgr/internal/logging"
	"pilotmgr/internal/ui"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug      bool
		configPath string
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "pilotctl",
		Short:         "Inspect and control the device process manager",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				return logging.Configure(logging.LevelDebug)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", config.Path(), "Manager config file")

	root.AddCommand(
		paramscmd.Cmd(&configPath),
		statuscmd.Cmd(&configPath),
		publishcmd.Cmd(&configPath),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMsg("%s", err))
		os.Exit(1)
	}
}
