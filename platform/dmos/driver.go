package dmos

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const (
	driverName       = "dmos"
	runningConfigCmd = "show running-config"
	paginateCmd      = "paginate false\n"
)

// Driver implements SwitchDriver semantics for Datacom DmOS switches.
type Driver struct{}

// New creates a new DmOS driver.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// Detect determines if the connected device is running DmOS.
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
	lower := strings.ToLower(output)
	return strings.Contains(lower, "dmos") || strings.Contains(lower, "datacom"), nil
}

// GetAuthenticationSequence returns the DmOS login sequence. DmOS logs straight
// into privileged mode, so the enable password is unused.
func (d *Driver) GetAuthenticationSequence(username, password, _ string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "login:", SendCmd: username + "\n"},
		{WaitFor: "Password:", SendCmd: password + "\n", Secret: true},
		{WaitFor: "#", SendCmd: paginateCmd},
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
	if isDmOSCommandError(output) {
		return entities.RawSwitchDump{}, errors.Errorf("command '%s' unsupported by switch", runningConfigCmd)
	}
	dump := runningConfig.Parse(output)
	logger.Debug("Parsed %d interfaces and %d ACLs from %s", len(dump.Ports), len(dump.ACLs), repo.Target())
	return dump, nil
}
