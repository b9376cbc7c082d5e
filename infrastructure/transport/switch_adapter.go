package transport

import (
	"github.com/carlosrabelo/cscc/domain/entities"
)

// SwitchAdapter implements the SwitchRepository port on top of a transport client
type SwitchAdapter struct {
	client Client
}

// NewSwitchAdapter creates a new switch adapter
func NewSwitchAdapter(client Client) *SwitchAdapter {
	return &SwitchAdapter{
		client: client,
	}
}

// Target returns the switch address
func (s *SwitchAdapter) Target() string {
	return s.client.Target()
}

// Connect connects to the switch
func (s *SwitchAdapter) Connect() error {
	return s.client.Connect()
}

// Disconnect disconnects from the switch
func (s *SwitchAdapter) Disconnect() {
	s.client.Disconnect()
}

// ExecuteCommand executes a command on the switch
func (s *SwitchAdapter) ExecuteCommand(cmd string) (string, error) {
	return s.client.ExecuteCommand(cmd)
}

// IsConnected checks if connected
func (s *SwitchAdapter) IsConnected() bool {
	return s.client.IsConnected()
}

// SetAuthSequence forwards a platform login sequence to clients that accept one
func (s *SwitchAdapter) SetAuthSequence(prompts []entities.AuthPrompt) bool {
	configurable, ok := s.client.(AuthConfigurable)
	if ok {
		configurable.SetAuthSequence(prompts)
	}
	return ok
}

// Client is a session-oriented connection to a single switch
type Client interface {
	Target() string
	Connect() error
	Disconnect()
	ExecuteCommand(cmd string) (string, error)
	IsConnected() bool
}

// AuthConfigurable allows setting authentication prompts after client creation
type AuthConfigurable interface {
	SetAuthSequence(prompts []entities.AuthPrompt)
}
