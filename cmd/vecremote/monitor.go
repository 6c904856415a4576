package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/recera/vecremote/internal/config"
	"github.com/recera/vecremote/internal/monitor"
)

func newMonitorCommand(g *globalFlags) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Follow a running host's event feed in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" {
				cfg, err := config.Load(g.configPath)
				if err != nil {
					return err
				}
				url = "http://" + cfg.Addr()
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return monitor.Run(ctx, url)
		},
	}

	cmd.Flags().StringVarP(&url, "url", "u", "", "Host base URL (default from server config)")
	return cmd
}
