package ios

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const (
	driverName        = "ios"
	runningConfigCmd  = "show running-config"
	terminalLengthCmd = "terminal length 0\n"
)

// Driver implements the SwitchDriver behaviour for Cisco IOS switches.
type Driver struct{}

// New creates a new IOS driver instance.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect inspects the device to determine whether it is running IOS.
func (d *Driver) Detect(repo ports.SwitchRepository) (bool, error) {
	if !repo.IsConnected() {
		if err := repo.Connect(); err != nil {
			return false, err
		}
	}
	output, err := repo.ExecuteCommand("show version")
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(output), "cisco ios"), nil
}

// GetAuthenticationSequence returns the user, enable and paging prompts of an IOS login.
func (d *Driver) GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "Username:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n", Secret: true},
		{WaitFor: ">", SendCmd: "enable\n"},
		{WaitFor: "Password:", SendCmd: enablePassword + "\n", Secret: true},
		{WaitFor: "#", SendCmd: terminalLengthCmd},
		{WaitFor: "#", SendCmd: ""},
	}
}

// GetRunningConfig retrieves the running configuration as ports and ACLs.
func (d *Driver) GetRunningConfig(repo ports.SwitchRepository) (entities.RawSwitchDump, error) {
	output, err := repo.ExecuteCommand(runningConfigCmd)
	if err != nil {
		return entities.RawSwitchDump{}, errors.Wrap(err, "failed to retrieve running configuration")
	}
	logger.Raw(runningConfigCmd, output)
	if isIOSCommandError(output) {
		return entities.RawSwitchDump{}, errors.Errorf("command '%s' unsupported by switch", runningConfigCmd)
	}
	dump := runningConfig.Parse(output)
	logger.Debug("Parsed %d interfaces and %d ACLs from %s", len(dump.Ports), len(dump.ACLs), repo.Target())
	return dump, nil
}
