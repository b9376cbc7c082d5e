package daemon

import (
	"context"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/provider"
)

// Refresher recollects a single switch on demand
type Refresher interface {
	Refresh(ctx context.Context, switchIP string) (entities.RawSwitchDump, error)
}

// Dispatcher answers provider queries from the store and the collector
type Dispatcher struct {
	store     *Store
	refresher Refresher
}

// NewDispatcher creates the query handler of the provider daemon
func NewDispatcher(store *Store, refresher Refresher) *Dispatcher {
	return &Dispatcher{store: store, refresher: refresher}
}

var _ provider.Handler = (*Dispatcher)(nil)

// Handle answers one decoded query
func (d *Dispatcher) Handle(ctx context.Context, q entities.Query) provider.Reply {
	logger.Debug("Query %q switch=%q", q.Type, q.SwitchIP)
	switch q.Type {
	case entities.QueryShowAllConfig:
		result, err := provider.EncodeDocument(d.store.Snapshot())
		if err != nil {
			return provider.ErrorReply(provider.CodeInternal, "encode document: %v", err)
		}
		return provider.ResultReply(result)
	case entities.QueryShowConfig:
		return d.showConfig(ctx, q.SwitchIP)
	default:
		return provider.ErrorReply(provider.CodeUnsupportedQuery, "unsupported query type %q", q.Type)
	}
}

func (d *Dispatcher) showConfig(ctx context.Context, switchIP string) provider.Reply {
	if switchIP == "" {
		return provider.ErrorReply(provider.CodeMalformedRequest, "switch_ip is required for %q", entities.QueryShowConfig)
	}
	dump, err := d.refresher.Refresh(ctx, switchIP)
	switch {
	case errors.Is(err, ErrUnknownSwitch):
		return provider.ErrorReply(provider.CodeUnknownSwitch, "%s is not in the inventory", switchIP)
	case err != nil:
		logger.Error("Refresh of %s failed: %v", switchIP, err)
		return provider.ErrorReply(provider.CodeInternal, "refresh %s: %v", switchIP, err)
	}
	result, err := provider.EncodeSwitchDump(dump)
	if err != nil {
		return provider.ErrorReply(provider.CodeInternal, "encode dump: %v", err)
	}
	return provider.ResultReply(result)
}
