package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uikit"
	"github.com/dmitrymomot/uikit/internal/demo"
	"github.com/dmitrymomot/uikit/pkg/config"
	"github.com/dmitrymomot/uikit/pkg/logger"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve actions, components and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			log := uikit.NewLogger(cfg)
			logger.SetAsDefault(log)

			app, err := uikit.New(cfg, uikit.WithLogger(log))
			if err != nil {
				return err
			}
			if err := demo.Register(app.Registry()); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides HTTP_ADDR")
	return cmd
}

func loadConfig(cmd *cobra.Command) (uikit.Config, error) {
	files, err := cmd.Flags().GetStringSlice("env-file")
	if err != nil {
		return uikit.Config{}, err
	}
	return config.Load[uikit.Config](config.WithOptionalEnvFiles(files...))
}
