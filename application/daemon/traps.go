package daemon

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const (
	snmpTrapOID     = ".1.3.6.1.6.3.1.1.4.1.0"
	linkDownOID     = ".1.3.6.1.6.3.1.1.5.3"
	linkUpOID       = ".1.3.6.1.6.3.1.1.5.4"
	genericLinkDown = 2
	genericLinkUp   = 3
)

// TrapWatcher refreshes a switch shortly after it reports a link state change
type TrapWatcher struct {
	cfg       config.SNMPConfig
	inventory *config.Inventory
	refresher Refresher

	mu      sync.Mutex
	pending map[string]*time.Timer
	ctx     context.Context
}

// NewTrapWatcher creates a watcher for the inventory switches
func NewTrapWatcher(cfg config.SNMPConfig, inventory *config.Inventory, refresher Refresher) *TrapWatcher {
	return &TrapWatcher{
		cfg:       cfg,
		inventory: inventory,
		refresher: refresher,
		pending:   make(map[string]*time.Timer),
		ctx:       context.Background(),
	}
}

// Run listens for traps until ctx is done
func (w *TrapWatcher) Run(ctx context.Context) error {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
	defer w.stopPending()

	listener := gosnmp.NewTrapListener()
	listener.Params = &gosnmp.GoSNMP{
		Community: w.cfg.Community,
		Version:   gosnmp.Version2c,
		Timeout:   5 * time.Second,
		Transport: "udp",
	}
	listener.OnNewTrap = w.HandleTrap

	errCh := make(chan error, 1)
	go func() { errCh <- listener.Listen(w.cfg.Listen) }()

	// Close is only safe once the socket is bound
	select {
	case <-listener.Listening():
	case err := <-errCh:
		return errors.Wrapf(err, "failed to start SNMP listener on %s", w.cfg.Listen)
	}
	logger.Info("Listening for link traps on %s", w.cfg.Listen)

	select {
	case <-ctx.Done():
		listener.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return errors.Wrapf(err, "SNMP listener on %s stopped", w.cfg.Listen)
	}
}

// HandleTrap schedules a refresh when an inventory switch reports linkUp or linkDown
func (w *TrapWatcher) HandleTrap(packet *gosnmp.SnmpPacket, addr *net.UDPAddr) {
	target := addr.IP.String()
	if _, ok := w.inventory.Switch(target); !ok {
		logger.Debug("Trap from %s not registered in inventory", target)
		return
	}
	if packet.Version != gosnmp.Version3 && packet.Community != w.cfg.Community {
		logger.Debug("Trap from %s with wrong community", target)
		return
	}
	if !isLinkTrap(packet) {
		return
	}
	logger.Debug("Link trap received from %s", target)
	w.schedule(target)
}

func isLinkTrap(packet *gosnmp.SnmpPacket) bool {
	if packet.Version == gosnmp.Version1 {
		return packet.GenericTrap == genericLinkDown || packet.GenericTrap == genericLinkUp
	}
	for _, v := range packet.Variables {
		if trimOID(v.Name) != trimOID(snmpTrapOID) {
			continue
		}
		oid, _ := v.Value.(string)
		oid = trimOID(oid)
		return oid == trimOID(linkDownOID) || oid == trimOID(linkUpOID)
	}
	return false
}

// schedule delays the refresh by the debounce period; traps arriving meanwhile push it back
func (w *TrapWatcher) schedule(target string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.pending[target]; ok {
		timer.Reset(w.cfg.Debounce)
		return
	}
	w.pending[target] = time.AfterFunc(w.cfg.Debounce, func() { w.fire(target) })
}

func (w *TrapWatcher) fire(target string) {
	w.mu.Lock()
	delete(w.pending, target)
	ctx := w.ctx
	w.mu.Unlock()

	if _, err := w.refresher.Refresh(ctx, target); err != nil {
		logger.Warn("Trap refresh of %s failed: %v", target, err)
		return
	}
	logger.Info("Refreshed %s after link change", target)
}

func (w *TrapWatcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for target, timer := range w.pending {
		timer.Stop()
		delete(w.pending, target)
	}
}

func trimOID(oid string) string {
	return strings.TrimPrefix(oid, ".")
}
