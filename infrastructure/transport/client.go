package transport

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// sessionKey identifies a session by everything that changes how it logs in
type sessionKey struct {
	Transport      string
	Target         string
	Port           int
	Username       string
	Password       string
	EnablePassword string
}

// sessionCache keeps one client per switch login so the provider reuses open sessions
type sessionCache struct {
	mu      sync.Mutex
	clients map[string]Client
}

var sessions = &sessionCache{clients: make(map[string]Client)}

// cacheKey hashes the login fields so credentials are not kept as map keys
func cacheKey(cfg entities.SwitchConfig) string {
	data, _ := json.Marshal(sessionKey{
		Transport:      cfg.Transport,
		Target:         cfg.Target,
		Port:           cfg.Port,
		Username:       cfg.Username,
		Password:       cfg.Password,
		EnablePassword: cfg.EnablePassword,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached client for cfg, creating it on first use
func Get(cfg entities.SwitchConfig) Client {
	sessions.mu.Lock()
	defer sessions.mu.Unlock()

	key := cacheKey(cfg)
	if client, ok := sessions.clients[key]; ok {
		return client
	}
	client := newClient(cfg)
	sessions.clients[key] = client
	logger.Debug("New %s session for %s", cfg.Transport, cfg.Address())
	return client
}

// CloseAll disconnects and forgets every cached client
func CloseAll() {
	sessions.mu.Lock()
	defer sessions.mu.Unlock()
	for key, client := range sessions.clients {
		client.Disconnect()
		delete(sessions.clients, key)
	}
}

func newClient(cfg entities.SwitchConfig) Client {
	switch cfg.Transport {
	case "ssh":
		return NewSSHClient(cfg)
	default:
		return NewTelnetClient(cfg)
	}
}
