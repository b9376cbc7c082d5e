package daemon

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
	"github.com/carlosrabelo/cscc/infrastructure/transport"
)

// Observer receives collection and request outcomes of the daemon
type Observer interface {
	CollectionObserver
	provider.RequestObserver
}

// Daemon is the configuration provider: it collects the inventory and answers queries
type Daemon struct {
	inventory  *config.Inventory
	observer   Observer
	store      *Store
	collector  *Collector
	dispatcher *Dispatcher
}

// New wires the store, collector and dispatcher for an inventory; observer may be nil
func New(inventory *config.Inventory, observer Observer) *Daemon {
	store := NewStore()
	collector := NewCollector(inventory, store, observer)
	return &Daemon{
		inventory:  inventory,
		observer:   observer,
		store:      store,
		collector:  collector,
		dispatcher: NewDispatcher(store, collector),
	}
}

// Handle answers a query and records its outcome
func (d *Daemon) Handle(ctx context.Context, q entities.Query) provider.Reply {
	reply := d.dispatcher.Handle(ctx, q)
	if d.observer != nil {
		var err error
		if reply.Error != nil {
			err = reply.Error
		}
		d.observer.ObserveRequest(q.Type, err)
	}
	return reply
}

// Run collects every switch, then serves queries until ctx is done or a listener fails
func (d *Daemon) Run(ctx context.Context) error {
	defer transport.CloseAll()

	server, err := provider.ListenZMQ(d.inventory.Listen)
	if err != nil {
		return err
	}
	defer server.Close()

	if err := d.collector.CollectAll(ctx); err != nil {
		return errors.Wrap(err, "initial collection interrupted")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(gctx, d)
	})
	if d.inventory.AMQP.Enabled() {
		amqpServer := provider.NewAMQPServer(d.inventory.AMQP.URL, d.inventory.AMQP.RequestQueue)
		g.Go(func() error {
			return amqpServer.Serve(gctx, d)
		})
	}
	if d.inventory.SNMP.Enabled {
		traps := NewTrapWatcher(d.inventory.SNMP, d.inventory, d.collector)
		g.Go(func() error {
			return traps.Run(gctx)
		})
	}
	g.Go(func() error {
		d.collector.Watch(gctx)
		return nil
	})

	logger.Info("Provider ready with %d switches", d.store.Len())
	err = g.Wait()
	d.collector.Close()
	return err
}
