package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

type app struct {
	v        *viper.Viper
	settings config.ClientSettings
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "cscc",
		Short:         "Collect switch running-configs and show them as normalized ports",
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.LoadClientSettings(a.v)
			if err != nil {
				return err
			}
			a.settings = settings
			logger.SetVerbosity(settings.Verbose)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	config.RegisterFlags(cmd.PersistentFlags())
	cobra.CheckErr(config.BindFlags(a.v, cmd.PersistentFlags()))

	cmd.AddCommand(
		newShowCmd(a),
		newRawCmd(a),
		newIngressCmd(a),
		newProviderCmd(a),
	)
	return cmd
}

// newProvider opens a client for the configured transport
func (a *app) newProvider() ports.ConfigProvider {
	if a.settings.Transport == config.TransportAMQP {
		logger.Debug("Querying provider through AMQP queue %s", a.settings.AMQPQueue)
		return provider.NewAMQPClient(a.settings.AMQPURL, a.settings.AMQPQueue, a.settings.Timeout)
	}
	logger.Debug("Querying provider at %s", a.settings.Endpoint)
	return provider.NewZMQClient(a.settings.Endpoint, a.settings.Timeout)
}

// signalContext is canceled on interrupt or termination
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
