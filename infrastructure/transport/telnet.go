package transport

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/ziutek/telnet"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const (
	DefaultTimeout    = 120 * time.Second // large running configs print slowly over 9600 baud consoles
	BufferSize        = 4096
	PromptUsername    = "Username:"
	PromptPassword    = "Password:"
	PromptEnable      = ">"
	PromptPrivileged  = "#"
	TerminalLengthCmd = "terminal length 0\n"
)

// DefaultAuthSequence is the Cisco IOS login used when no platform sequence is set
func DefaultAuthSequence(cfg entities.SwitchConfig) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: PromptUsername, SendCmd: cfg.Username + "\n"},
		{WaitFor: PromptPassword, SendCmd: cfg.Password + "\n", Secret: true},
		{WaitFor: PromptEnable, SendCmd: "enable\n"},
		{WaitFor: PromptPassword, SendCmd: cfg.EnablePassword + "\n", Secret: true},
		{WaitFor: PromptPrivileged, SendCmd: TerminalLengthCmd},
		{WaitFor: PromptPrivileged, SendCmd: ""},
	}
}

// TelnetClient manages a Telnet connection to a switch
type TelnetClient struct {
	conn         *telnet.Conn
	config       entities.SwitchConfig
	authSequence []entities.AuthPrompt
}

// NewTelnetClient creates a new Telnet client with the given configuration
func NewTelnetClient(cfg entities.SwitchConfig) *TelnetClient {
	return &TelnetClient{config: cfg}
}

// SetAuthSequence configures the authentication sequence for this client
func (tc *TelnetClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	tc.authSequence = prompts
}

// Target returns the switch address this client talks to
func (tc *TelnetClient) Target() string {
	return tc.config.Target
}

// Connect establishes a Telnet connection to the switch and logs in
func (tc *TelnetClient) Connect() error {
	if tc.conn != nil {
		return nil
	}
	conn, err := telnet.DialTimeout("tcp", tc.config.Address(), DefaultTimeout)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", tc.config.Target)
	}
	tc.conn = conn
	logger.Debug("Connected to %s", tc.config.Target)

	prompts := tc.authSequence
	if len(prompts) == 0 {
		prompts = DefaultAuthSequence(tc.config)
	}

	for _, p := range prompts {
		output, err := tc.readUntil(p.WaitFor, DefaultTimeout)
		if err != nil {
			tc.Disconnect()
			return errors.Wrapf(err, "failed to wait for %s, output: %s", p.WaitFor, output)
		}
		if p.SendCmd != "" {
			if _, err := tc.conn.Write([]byte(p.SendCmd)); err != nil {
				tc.Disconnect()
				return errors.Wrapf(err, "failed to answer prompt %s", p.WaitFor)
			}
			logger.Debug("Sent %s for prompt %s", strings.TrimSpace(p.Display()), p.WaitFor)
		}
	}
	return nil
}

// readUntil reads from the Telnet connection until the specified pattern is found
func (tc *TelnetClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	buffer := make([]byte, BufferSize)
	var output strings.Builder
	output.Grow(BufferSize)
	deadline := time.Now().Add(timeout)
	if err := tc.conn.SetReadDeadline(deadline); err != nil {
		return "", errors.Wrap(err, "failed to set read deadline")
	}
	for time.Now().Before(deadline) {
		n, err := tc.conn.Read(buffer)
		if n > 0 {
			output.Write(buffer[:n])
			logger.Raw("read", string(buffer[:n]))
			if strings.Contains(output.String(), pattern) {
				return output.String(), nil
			}
		}
		if err != nil {
			return output.String(), errors.Wrap(err, "read error")
		}
	}
	return output.String(), errors.Errorf("timeout waiting for %s", pattern)
}

// Disconnect closes the Telnet connection
func (tc *TelnetClient) Disconnect() {
	if tc.conn != nil {
		tc.conn.Close()
		logger.Debug("Disconnected from %s", tc.config.Target)
		tc.conn = nil
	}
}

// IsConnected reports whether a session is open
func (tc *TelnetClient) IsConnected() bool {
	return tc.conn != nil
}

// ExecuteCommand sends a command to the switch and returns its output
func (tc *TelnetClient) ExecuteCommand(cmd string) (string, error) {
	if tc.conn == nil {
		return "", errors.Errorf("not connected to %s", tc.config.Target)
	}
	logger.Debug("Executing on %s: %s", tc.config.Target, cmd)
	if _, err := tc.conn.Write([]byte(cmd + "\n")); err != nil {
		tc.Disconnect()
		return "", errors.Wrapf(err, "failed to send %s", cmd)
	}
	output, err := tc.readUntil(PromptPrivileged, DefaultTimeout)
	if err != nil {
		tc.Disconnect()
		return "", errors.Wrapf(err, "error executing %s", cmd)
	}
	output = stripEchoAndPrompt(output)
	logger.Raw(cmd, output)
	return output, nil
}

// stripEchoAndPrompt drops the echoed command line and the trailing prompt line
func stripEchoAndPrompt(output string) string {
	lines := strings.Split(output, "\n")
	if len(lines) > 1 {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	return ""
}
