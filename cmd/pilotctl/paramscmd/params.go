package paramscmd

import (
	"fmt"
	"strings"

	"pilotmgr/config"
	"pilotmgr/internal/ui"
	"pilotmgr/params"

	"github.com/spf13/cobra"
)

// Cmd returns the "pilotctl params" command group.
func Cmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Read and write device params",
	}
	cmd.AddCommand(getCmd(configPath), putCmd(configPath), deleteCmd(configPath), listCmd(configPath), clearCmd(configPath))
	return cmd
}

func openStore(configPath string) (*params.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return params.Open(cfg.Paths.Params)
}

func getCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a param value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			v, ok, err := store.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(v))
			return nil
		},
	}
}

func putCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY VALUE",
		Short: "Write a param value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.PutString(args[0], args[1])
		},
	}
}

func deleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KEY",
		Short: "Remove a param",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Delete(args[0])
		},
	}
}

func listCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List params that hold a value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()

			keys, err := store.Keys()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(keys))
			for _, k := range keys {
				v, _ := store.GetString(k)
				rows = append(rows, []string{k, truncate(v, 48), params.Keys[k].String()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"KEY", "VALUE", "CATEGORY"}, rows))
			return nil
		},
	}
}

func clearCmd(configPath *string) *cobra.Command {
	categories := map[string]params.Category{
		"manager-start":      params.ClearOnManagerStart,
		"onroad-transition":  params.ClearOnOnroadTransition,
		"offroad-transition": params.ClearOnOffroadTransition,
		"development-only":   params.DevelopmentOnly,
	}
	return &cobra.Command{
		Use:       "clear CATEGORY",
		Short:     "Remove every param tagged with a category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"manager-start", "onroad-transition", "offroad-transition", "development-only"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := categories[args[0]]
			if !ok {
				return fmt.Errorf("unknown category %q", args[0])
			}
			store, err := openStore(*configPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.ClearAll(c)
		},
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
