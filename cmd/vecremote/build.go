package main

import (
	"github.com/spf13/cobra"

	"github.com/recera/vecremote/internal/cache"
	"github.com/recera/vecremote/internal/wasmbuild"
)

func newBuildCommand(g *globalFlags) *cobra.Command {
	var (
		output   string
		pkg      string
		optimize bool
		useCache bool
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the WebAssembly client",
		Long:  `Compiles the browser client with GOOS=js GOARCH=wasm and stages wasm_exec.js next to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := g.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			if !cmd.Flags().Changed("output") {
				output = cfg.Server.StaticDir
			}

			opts := []wasmbuild.Option{wasmbuild.WithLogger(log.Named("build").Logger)}
			if useCache {
				c, err := cache.New(cache.Config{Dir: cacheDir, MaxSize: cache.DefaultConfig().MaxSize})
				if err != nil {
					return err
				}
				opts = append(opts, wasmbuild.WithCache(c))
			}

			_, err = wasmbuild.New(wasmbuild.Options{
				Package:  pkg,
				Output:   output,
				Optimize: optimize,
			}, opts...).Build(cmd.Context())
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "dist", "Output directory (defaults to server.staticDir)")
	cmd.Flags().StringVar(&pkg, "package", wasmbuild.DefaultPackage, "Client main package")
	cmd.Flags().BoolVar(&optimize, "optimize", true, "Strip debug information")
	cmd.Flags().BoolVar(&useCache, "cache", true, "Reuse the last build when client sources are unchanged")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Build cache directory (default user cache dir)")

	return cmd
}
