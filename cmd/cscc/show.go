package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrabelo/cscc/application/services"
	"github.com/carlosrabelo/cscc/domain/entities"
	domainservices "github.com/carlosrabelo/cscc/domain/services"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		switchIP string
		format   string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Fetch, normalize and print the ports of every switch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatJSON {
				return fmt.Errorf("format %s is invalid, must be '%s' or '%s'", format, formatTable, formatJSON)
			}
			client := a.newProvider()
			defer client.Close()

			view := services.NewConfigViewService(
				provider.NewFetcher(client, nil),
				domainservices.NewNormalizer(a.settings.Workers, nil),
			)
			var (
				result entities.NormalizedResult
				err    error
			)
			if switchIP != "" {
				result, err = view.ShowSwitch(cmd.Context(), switchIP)
			} else {
				result, err = view.Show(cmd.Context())
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), result, format)
		},
	}
	cmd.Flags().StringVar(&switchIP, "switch", "", "refresh and show a single switch")
	cmd.Flags().StringVar(&format, "format", formatTable, "output format: table or json")
	return cmd
}
