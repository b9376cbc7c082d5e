package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/carlosrabelo/cscc/application/services"
	domainservices "github.com/carlosrabelo/cscc/domain/services"
	"github.com/carlosrabelo/cscc/infrastructure/ingress"
	"github.com/carlosrabelo/cscc/infrastructure/metrics"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

func newIngressCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "ingress",
		Short: "Serve the query pass-through, the port view and metrics over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			client := a.newProvider()
			defer client.Close()
			fetcher := provider.NewFetcher(client, m)
			view := services.NewConfigViewService(fetcher, domainservices.NewNormalizer(a.settings.Workers, m))

			return ingress.Serve(ctx, listen, ingress.NewRouter(fetcher, view, reg))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", ":3000", "HTTP listen address")
	return cmd
}
