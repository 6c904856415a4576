package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recera/vecremote/internal/app"
	"github.com/recera/vecremote/internal/robot"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var (
		host      string
		port      int
		staticDir string
		framesDir string
		interval  time.Duration
		open      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the console and the robot endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			flags := cmd.Flags()
			if flags.Changed("host") {
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				cfg.Server.Port = port
			}
			if flags.Changed("static") {
				cfg.Server.StaticDir = staticDir
			}
			if flags.Changed("frames") {
				cfg.Frames.Dir = framesDir
			}
			if flags.Changed("interval") {
				cfg.Client.Interval = interval
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if cfg.Robot.Serial != "" {
				log.Warn("no robot driver is linked in; using the simulator", zap.String("serial", cfg.Robot.Serial))
			}

			a, err := app.New(cfg, robot.NewSimMotors(), log.Logger)
			if err != nil {
				return err
			}

			ln, err := a.Listen()
			if err != nil {
				return err
			}
			if open {
				url := "http://" + ln.Addr().String()
				if err := browser.OpenURL(url); err != nil {
					log.Warn("could not open browser", zap.String("url", url), zap.Error(err))
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&host, "host", "localhost", "Host to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 5000, "Port to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "dist", "Directory holding app.wasm and wasm_exec.js")
	cmd.Flags().StringVar(&framesDir, "frames", "", "Directory watched for camera frames")
	cmd.Flags().DurationVar(&interval, "interval", 60*time.Millisecond, "Client refresh interval")
	cmd.Flags().BoolVar(&open, "open", false, "Open the console in a browser once listening")

	return cmd
}
