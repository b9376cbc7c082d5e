package transport

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// fakeIOS plays the switch side of an IOS telnet login followed by one command
func fakeIOS(t *testing.T, ln net.Listener, lines chan<- string, reply string) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)

	expect := func(prompt string) bool {
		if _, err := conn.Write([]byte(prompt)); err != nil {
			return false
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return false
		}
		lines <- strings.TrimSpace(line)
		return true
	}
	for _, prompt := range []string{"\r\nUsername:", "Password:", "\r\nsw>", "Password:", "\r\nsw#", "\r\nsw#"} {
		if !expect(prompt) {
			return
		}
	}
	conn.Write([]byte(reply))
}

func TestTelnetClient_LoginAndExecute(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	lines := make(chan string, 16)
	reply := "show running-config\r\ninterface Gi0/1\r\n description lab\r\nsw#"
	done := make(chan struct{})
	go func() {
		defer close(done)
		fakeIOS(t, ln, lines, reply)
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	client := NewTelnetClient(entities.SwitchConfig{
		Target:         "127.0.0.1",
		Port:           portNum,
		Username:       "admin",
		Password:       "secret",
		EnablePassword: "enable-secret",
	})
	require.NoError(t, client.Connect())
	assert.True(t, client.IsConnected())

	output, err := client.ExecuteCommand("show running-config")
	require.NoError(t, err)
	assert.Contains(t, output, "interface Gi0/1")
	assert.Contains(t, output, "description lab")
	assert.NotContains(t, output, "sw#")

	client.Disconnect()
	assert.False(t, client.IsConnected())
	<-done

	close(lines)
	var got []string
	for line := range lines {
		got = append(got, line)
	}
	assert.Equal(t, []string{"admin", "secret", "enable", "enable-secret", "terminal length 0", "show running-config"}, got)
}

func TestTelnetClient_ConnectRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	client := NewTelnetClient(entities.SwitchConfig{Target: "127.0.0.1", Port: addr.Port})
	err = client.Connect()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to 127.0.0.1")
	assert.False(t, client.IsConnected())
}

func TestStripEchoAndPrompt(t *testing.T) {
	assert.Equal(t, "line 1\nline 2", stripEchoAndPrompt("cmd\nline 1\nline 2\nsw#"))
	assert.Equal(t, "", stripEchoAndPrompt("sw#"))
	assert.Equal(t, "", stripEchoAndPrompt("cmd\nsw#"))
}

func TestDefaultAuthSequence(t *testing.T) {
	seq := DefaultAuthSequence(entities.SwitchConfig{Username: "u", Password: "p", EnablePassword: "e"})
	require.Len(t, seq, 6)
	assert.Equal(t, PromptUsername, seq[0].WaitFor)
	assert.True(t, seq[1].Secret)
	assert.True(t, seq[3].Secret)
	assert.Equal(t, TerminalLengthCmd, seq[4].SendCmd)
}
