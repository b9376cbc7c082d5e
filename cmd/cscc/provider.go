package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/cscc/application/daemon"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/ingress"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/metrics"
)

func newProviderCmd(a *app) *cobra.Command {
	var (
		configFile    string
		metricsListen string
	)
	cmd := &cobra.Command{
		Use:   "provider",
		Short: "Collect the inventory switches and answer configuration queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := config.Load(configFile)
			if err != nil {
				return err
			}
			logger.Info("Loaded %d switches from %s", len(inv.Switches), configFile)

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			d := daemon.New(inv, metrics.New(reg))

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return d.Run(gctx)
			})
			if metricsListen != "" {
				g.Go(func() error {
					return ingress.Serve(gctx, metricsListen, ingress.MetricsRouter(reg))
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "inventory.yaml", "YAML inventory file")
	cmd.Flags().StringVar(&metricsListen, "metrics-listen", "", "serve /metrics on this address")
	return cmd
}
