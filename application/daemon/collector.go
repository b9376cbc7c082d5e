package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
	"github.com/carlosrabelo/cscc/infrastructure/transport"
	"github.com/carlosrabelo/cscc/platform"
)

// ErrUnknownSwitch is returned when a refresh names a switch outside the inventory
var ErrUnknownSwitch = errors.New("switch not in inventory")

// Session is a switch CLI session that accepts a platform login sequence
type Session interface {
	ports.SwitchRepository
	SetAuthSequence(prompts []entities.AuthPrompt) bool
}

// CollectionObserver is told the outcome of every collection
type CollectionObserver interface {
	ObserveCollection(switchIP string, elapsed time.Duration, err error)
}

type switchState struct {
	mu       sync.Mutex
	session  Session
	driver   platform.SwitchDriver
	lastUsed time.Time
}

// Collector reads running configurations from the inventory into the store and keeps
// the switch sessions alive.
type Collector struct {
	inventory *config.Inventory
	store     *Store
	observer  CollectionObserver

	sessions func(cfg entities.SwitchConfig) Session
	resolve  func(name string, repo ports.SwitchRepository) (platform.SwitchDriver, error)
	now      func() time.Time

	mu     sync.Mutex
	states map[string]*switchState
}

// NewCollector creates a collector using cached telnet/ssh sessions; observer may be nil
func NewCollector(inventory *config.Inventory, store *Store, observer CollectionObserver) *Collector {
	return &Collector{
		inventory: inventory,
		store:     store,
		observer:  observer,
		sessions: func(cfg entities.SwitchConfig) Session {
			return transport.NewSwitchAdapter(transport.Get(cfg))
		},
		resolve: platform.Resolve,
		now:     time.Now,
		states:  make(map[string]*switchState),
	}
}

func (c *Collector) state(target string) *switchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[target]
	if !ok {
		st = &switchState{}
		c.states[target] = st
	}
	return st
}

// CollectAll collects every inventory switch in parallel. Failed switches are logged
// and left out of the store; only cancellation is returned.
func (c *Collector) CollectAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, sw := range c.inventory.Switches {
		sw := sw
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if _, err := c.collect(sw); err != nil {
				logger.Error("Failed to collect %s: %v", sw.Target, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Collected %d of %d switches", c.store.Len(), len(c.inventory.Switches))
	return nil
}

// Refresh recollects one switch and returns its fresh dump
func (c *Collector) Refresh(ctx context.Context, switchIP string) (entities.RawSwitchDump, error) {
	sw, ok := c.inventory.Switch(switchIP)
	if !ok {
		return entities.RawSwitchDump{}, errors.Wrap(ErrUnknownSwitch, switchIP)
	}
	if err := ctx.Err(); err != nil {
		return entities.RawSwitchDump{}, err
	}
	return c.collect(sw)
}

func (c *Collector) collect(sw entities.SwitchConfig) (entities.RawSwitchDump, error) {
	st := c.state(sw.Target)
	st.mu.Lock()
	defer st.mu.Unlock()
	return c.collectLocked(st, sw)
}

func (c *Collector) collectLocked(st *switchState, sw entities.SwitchConfig) (entities.RawSwitchDump, error) {
	start := c.now()
	dump, err := c.readRunningConfig(st, sw)
	if c.observer != nil {
		c.observer.ObserveCollection(sw.Target, c.now().Sub(start), err)
	}
	if err != nil {
		return entities.RawSwitchDump{}, errors.Wrapf(err, "collect %s", sw.Target)
	}
	c.store.Put(sw.Target, dump)
	logger.Debug("Stored %d ports and %d ACLs of %s", len(dump.Ports), len(dump.ACLs), sw.Target)
	return dump, nil
}

func (c *Collector) readRunningConfig(st *switchState, sw entities.SwitchConfig) (entities.RawSwitchDump, error) {
	if err := c.ensureSession(st, sw); err != nil {
		return entities.RawSwitchDump{}, err
	}
	dump, err := st.driver.GetRunningConfig(st.session)
	if err != nil {
		st.session.Disconnect()
		return entities.RawSwitchDump{}, err
	}
	st.lastUsed = c.now()
	return dump, nil
}

// ensureSession opens the session and settles the driver. A fixed platform logs in with
// its own sequence; auto detection logs in with the transport default and then probes.
func (c *Collector) ensureSession(st *switchState, sw entities.SwitchConfig) error {
	if st.session == nil {
		st.session = c.sessions(sw)
	}
	platformID := sw.PlatformID()
	if st.driver == nil && platformID != platform.AutoDetect {
		driver, err := c.resolve(platformID, st.session)
		if err != nil {
			return err
		}
		st.driver = driver
		st.session.SetAuthSequence(driver.GetAuthenticationSequence(sw.Username, sw.Password, sw.EnablePassword))
	}
	if !st.session.IsConnected() {
		if err := st.session.Connect(); err != nil {
			return errors.Wrap(err, "connect")
		}
		st.lastUsed = c.now()
	}
	if st.driver == nil {
		driver, err := c.resolve(platformID, st.session)
		if err != nil {
			return errors.Wrap(err, "detect platform")
		}
		st.driver = driver
		logger.Info("Detected platform %s on %s", driver.Name(), sw.Target)
	}
	return nil
}

// Watch checks every session each check interval until ctx is done. Dead sessions are
// reconnected and recollected; sessions idle longer than the keepalive get a probe.
func (c *Collector) Watch(ctx context.Context) {
	ticker := time.NewTicker(c.inventory.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckSessions(ctx)
		}
	}
}

// CheckSessions runs one liveness pass over the inventory
func (c *Collector) CheckSessions(ctx context.Context) {
	for _, sw := range c.inventory.Switches {
		if ctx.Err() != nil {
			return
		}
		c.checkSession(sw)
	}
}

func (c *Collector) checkSession(sw entities.SwitchConfig) {
	st := c.state(sw.Target)
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.session == nil || !st.session.IsConnected() {
		logger.Info("Session to %s is down, reconnecting", sw.Target)
		if _, err := c.collectLocked(st, sw); err != nil {
			logger.Warn("Reconnect failed: %v", err)
		}
		return
	}
	if c.now().Sub(st.lastUsed) < c.inventory.Keepalive {
		return
	}
	if _, err := st.session.ExecuteCommand(""); err != nil {
		logger.Warn("Keepalive to %s failed: %v", sw.Target, err)
		st.session.Disconnect()
		return
	}
	st.lastUsed = c.now()
	logger.Debug("Keepalive sent to %s", sw.Target)
}

// Close ends every open session
func (c *Collector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, st := range c.states {
		st.mu.Lock()
		if st.session != nil && st.session.IsConnected() {
			st.session.Disconnect()
		}
		st.mu.Unlock()
	}
}
