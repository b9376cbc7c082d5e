package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/config"
	"github.com/carlosrabelo/cscc/platform"
)

var errLinkDown = errors.New("connection refused")

type fakeSession struct {
	mu         sync.Mutex
	target     string
	connected  bool
	connectErr error
	execErr    error
	connects   int
	commands   []string
	prompts    []entities.AuthPrompt
}

func (s *fakeSession) Target() string { return s.target }

func (s *fakeSession) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *fakeSession) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

func (s *fakeSession) ExecuteCommand(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
	return "", s.execErr
}

func (s *fakeSession) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeSession) SetAuthSequence(prompts []entities.AuthPrompt) bool {
	s.prompts = prompts
	return true
}

type fakeDriver struct {
	mu    sync.Mutex
	dumps map[string]entities.RawSwitchDump
	err   error
	reads int
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Detect(repo ports.SwitchRepository) (bool, error) { return true, nil }

func (d *fakeDriver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "login:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n", Secret: true},
	}
}

func (d *fakeDriver) GetRunningConfig(repo ports.SwitchRepository) (entities.RawSwitchDump, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	if d.err != nil {
		return entities.RawSwitchDump{}, d.err
	}
	return d.dumps[repo.Target()], nil
}

type collection struct {
	target string
	err    error
}

type recordingObserver struct {
	mu          sync.Mutex
	collections []collection
	requests    map[string]int
	failures    map[string]int
}

func (o *recordingObserver) ObserveCollection(switchIP string, elapsed time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.collections = append(o.collections, collection{target: switchIP, err: err})
}

func (o *recordingObserver) ObserveRequest(query string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.requests == nil {
		o.requests = make(map[string]int)
		o.failures = make(map[string]int)
	}
	o.requests[query]++
	if err != nil {
		o.failures[query]++
	}
}

func (o *recordingObserver) failed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.collections {
		if c.err != nil {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	collector *Collector
	store     *Store
	sessions  map[string]*fakeSession
	driver    *fakeDriver
	observer  *recordingObserver
	clock     *fakeClock
	resolved  []string
}

func testInventory(platformName string, targets ...string) *config.Inventory {
	inv := &config.Inventory{
		Keepalive:     time.Minute,
		CheckInterval: 10 * time.Millisecond,
		SNMP:          config.SNMPConfig{Community: "public", Debounce: 20 * time.Millisecond},
	}
	for _, target := range targets {
		inv.Switches = append(inv.Switches, entities.SwitchConfig{
			Target:   target,
			Platform: platformName,
			Username: "admin",
			Password: "secret",
		})
	}
	return inv
}

func newHarness(inv *config.Inventory) *harness {
	h := &harness{
		store:    NewStore(),
		sessions: make(map[string]*fakeSession),
		driver:   &fakeDriver{dumps: make(map[string]entities.RawSwitchDump)},
		observer: &recordingObserver{},
		clock:    &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, sw := range inv.Switches {
		h.sessions[sw.Target] = &fakeSession{target: sw.Target}
		h.driver.dumps[sw.Target] = entities.RawSwitchDump{
			Ports: map[string]string{"Gi1/0/1": "description " + sw.Target + "\n"},
			ACLs:  map[string]string{},
		}
	}

	var mu sync.Mutex
	c := NewCollector(inv, h.store, h.observer)
	c.sessions = func(cfg entities.SwitchConfig) Session {
		return h.sessions[cfg.Target]
	}
	c.resolve = func(name string, repo ports.SwitchRepository) (platform.SwitchDriver, error) {
		mu.Lock()
		h.resolved = append(h.resolved, name)
		mu.Unlock()
		return h.driver, nil
	}
	c.now = h.clock.Now
	h.collector = c
	return h
}

type fakeRefresher struct {
	mu      sync.Mutex
	dump    entities.RawSwitchDump
	err     error
	calls   []string
	refresh chan string
}

func (r *fakeRefresher) Refresh(ctx context.Context, switchIP string) (entities.RawSwitchDump, error) {
	r.mu.Lock()
	r.calls = append(r.calls, switchIP)
	r.mu.Unlock()
	if r.refresh != nil {
		r.refresh <- switchIP
	}
	return r.dump, r.err
}

func (r *fakeRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}
