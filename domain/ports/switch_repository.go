package ports

// SwitchRepository defines the port for a CLI session with one network switch
type SwitchRepository interface {
	Target() string
	Connect() error
	Disconnect()
	ExecuteCommand(cmd string) (string, error)
	IsConnected() bool
}
