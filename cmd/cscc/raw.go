package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

func newRawCmd(a *app) *cobra.Command {
	var q entities.Query
	cmd := &cobra.Command{
		Use:   "raw",
		Short: "Send one query and print the provider result verbatim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := a.newProvider()
			defer client.Close()

			result, err := provider.NewFetcher(client, nil).Raw(cmd.Context(), q)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
	cmd.Flags().StringVar(&q.Type, "type", entities.QueryShowAllConfig, "query type")
	cmd.Flags().StringVar(&q.SwitchIP, "switch", "", "switch address for per-switch queries")
	return cmd
}
