package transport

import (
	"io"
	"net"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// SSHClient manages an SSH session with a switch
type SSHClient struct {
	config       entities.SwitchConfig
	authSequence []entities.AuthPrompt
	client       *ssh.Client
	session      *ssh.Session
	stdin        io.WriteCloser
	stream       *shellStream
}

// shellStream pumps shell output into a channel that readers drain under a timer
type shellStream struct {
	chunks chan []byte
	done   chan struct{}
	err    error
}

func newShellStream(r io.Reader) *shellStream {
	s := &shellStream{chunks: make(chan []byte, 16), done: make(chan struct{})}
	go s.run(r)
	return s
}

func (s *shellStream) run(r io.Reader) {
	defer close(s.chunks)
	for {
		buf := make([]byte, BufferSize)
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case s.chunks <- buf[:n]:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.err = err
			return
		}
	}
}

func (s *shellStream) close() {
	close(s.done)
}

// NewSSHClient creates a new SSH client with the given configuration
func NewSSHClient(cfg entities.SwitchConfig) *SSHClient {
	return &SSHClient{config: cfg}
}

// SetAuthSequence configures the post-login prompts for this client
func (sc *SSHClient) SetAuthSequence(prompts []entities.AuthPrompt) {
	sc.authSequence = prompts
}

// Target returns the switch address this client talks to
func (sc *SSHClient) Target() string {
	return sc.config.Target
}

// Connect opens the SSH session and walks the shell prompts up to privileged mode
func (sc *SSHClient) Connect() error {
	if sc.IsConnected() {
		return nil
	}
	addr := sc.config.Address()
	sshConfig := &ssh.ClientConfig{
		User: sc.config.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(sc.config.Password),
			ssh.KeyboardInteractive(sc.keyboardInteractive),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         DefaultTimeout,
	}

	dialer := &net.Dialer{Timeout: DefaultTimeout}
	rawConn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s via SSH", sc.config.Target)
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(rawConn, addr, sshConfig)
	if err != nil {
		rawConn.Close()
		return errors.Wrapf(err, "failed to establish SSH client connection to %s", sc.config.Target)
	}
	client := ssh.NewClient(clientConn, chans, reqs)

	session, err := client.NewSession()
	if err != nil {
		client.Close()
		return errors.Wrapf(err, "failed to create SSH session for %s", sc.config.Target)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 9600,
		ssh.TTY_OP_OSPEED: 9600,
	}
	if err := session.RequestPty("vt100", 80, 40, modes); err != nil {
		session.Close()
		client.Close()
		return errors.Wrapf(err, "failed to request PTY for %s", sc.config.Target)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		client.Close()
		return errors.Wrapf(err, "failed to get stdin pipe for %s", sc.config.Target)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		client.Close()
		return errors.Wrapf(err, "failed to get stdout pipe for %s", sc.config.Target)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		client.Close()
		return errors.Wrapf(err, "failed to start shell for %s", sc.config.Target)
	}

	sc.client = client
	sc.session = session
	sc.stdin = stdin
	sc.stream = newShellStream(stdout)
	logger.Debug("Connected to %s via SSH", sc.config.Target)

	initial, err := sc.readUntilAny([]string{PromptPrivileged, PromptEnable}, DefaultTimeout)
	if err != nil {
		sc.Disconnect()
		return err
	}

	prompts := sc.authSequence
	if len(prompts) == 0 {
		prompts = DefaultAuthSequence(sc.config)
	}
	steps := ShellSteps(prompts, strings.Contains(initial, PromptPrivileged))
	for i, p := range steps {
		// the first prompt was already consumed by the initial read
		if i > 0 {
			if _, err := sc.readUntil(p.WaitFor, DefaultTimeout); err != nil {
				sc.Disconnect()
				return err
			}
		}
		if p.SendCmd == "" {
			continue
		}
		if err := sc.send(p.SendCmd); err != nil {
			sc.Disconnect()
			return errors.Wrapf(err, "failed to answer prompt %s on %s", p.WaitFor, sc.config.Target)
		}
		logger.Debug("Sent %s for prompt %s", strings.TrimSpace(p.Display()), p.WaitFor)
	}
	return nil
}

// ShellSteps returns the part of a login sequence that still applies once SSH has
// authenticated: the username and password prompts are dropped, and when the shell
// opens privileged the enable steps are dropped as well.
func ShellSteps(prompts []entities.AuthPrompt, privileged bool) []entities.AuthPrompt {
	start := 0
	for i, p := range prompts {
		if p.Secret {
			start = i + 1
			break
		}
	}
	steps := prompts[start:]
	if !privileged {
		return steps
	}
	for i, p := range steps {
		if p.WaitFor == PromptPrivileged {
			return steps[i:]
		}
	}
	return nil
}

func (sc *SSHClient) keyboardInteractive(_, _ string, questions []string, _ []bool) ([]string, error) {
	answers := make([]string, len(questions))
	for i := range questions {
		answers[i] = sc.config.Password
	}
	return answers, nil
}

// Disconnect tears down the session, client and socket
func (sc *SSHClient) Disconnect() {
	if sc.session != nil {
		sc.session.Close()
		sc.session = nil
	}
	if sc.client != nil {
		sc.client.Close()
		sc.client = nil
	}
	if sc.stream != nil {
		sc.stream.close()
		sc.stream = nil
	}
	sc.stdin = nil
	logger.Debug("Disconnected from %s", sc.config.Target)
}

// IsConnected reports whether a session is open
func (sc *SSHClient) IsConnected() bool {
	return sc.session != nil && sc.client != nil
}

// ExecuteCommand sends a command to the switch and returns its output
func (sc *SSHClient) ExecuteCommand(cmd string) (string, error) {
	if !sc.IsConnected() {
		return "", errors.Errorf("not connected to %s", sc.config.Target)
	}
	logger.Debug("Executing on %s: %s", sc.config.Target, cmd)
	if err := sc.send(cmd + "\n"); err != nil {
		sc.Disconnect()
		return "", errors.Wrapf(err, "failed to send command %s", cmd)
	}

	output, err := sc.readUntil(PromptPrivileged, DefaultTimeout)
	if err != nil {
		sc.Disconnect()
		return "", errors.Wrapf(err, "error executing %s", cmd)
	}
	output = stripEchoAndPrompt(output)
	logger.Raw(cmd, output)
	return output, nil
}

func (sc *SSHClient) send(data string) error {
	_, err := sc.stdin.Write([]byte(data))
	return err
}

func (sc *SSHClient) readUntil(pattern string, timeout time.Duration) (string, error) {
	return sc.readUntilAny([]string{pattern}, timeout)
}

func (sc *SSHClient) readUntilAny(patterns []string, timeout time.Duration) (string, error) {
	var output strings.Builder
	output.Grow(BufferSize)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case chunk, ok := <-sc.stream.chunks:
			if !ok {
				err := sc.stream.err
				if err == nil {
					err = io.EOF
				}
				return output.String(), errors.Wrap(err, "read error")
			}
			output.Write(chunk)
			logger.Raw("read", string(chunk))
			text := output.String()
			for _, pattern := range patterns {
				if strings.Contains(text, pattern) {
					return text, nil
				}
			}
		case <-timer.C:
			return output.String(), errors.Errorf("timeout waiting for prompts %s", strings.Join(patterns, ", "))
		}
	}
}
