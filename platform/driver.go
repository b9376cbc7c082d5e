package platform

import (
	"fmt"
	"strings"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/platform/dmos"
	"github.com/carlosrabelo/cscc/platform/ios"
)

// AutoDetect is the platform name that selects a driver by probing the device
const AutoDetect = "auto"

// SwitchDriver defines the behaviour required to collect configuration from a switching platform.
type SwitchDriver interface {
	Name() string
	Detect(repo ports.SwitchRepository) (bool, error)

	// GetAuthenticationSequence returns the login sequence for this platform
	GetAuthenticationSequence(username, password, enablePassword string) []entities.AuthPrompt

	// GetRunningConfig reads the running configuration and splits it into ports and ACLs
	GetRunningConfig(repo ports.SwitchRepository) (entities.RawSwitchDump, error)
}

var registry = []SwitchDriver{
	ios.New(),
	dmos.New(),
}

// Get returns a driver by normalized platform name.
func Get(name string) (SwitchDriver, error) {
	normalized := normalizeName(name)
	for _, driver := range registry {
		if driver.Name() == normalized {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("unknown switch platform: %s", name)
}

// Available returns all registered drivers.
func Available() []SwitchDriver {
	out := make([]SwitchDriver, len(registry))
	copy(out, registry)
	return out
}

// Names returns the platform names accepted in configuration, including auto detection.
func Names() []string {
	names := make([]string, 0, len(registry)+1)
	for _, driver := range registry {
		names = append(names, driver.Name())
	}
	return append(names, AutoDetect)
}

// Detect tries all registered drivers until one matches.
func Detect(repo ports.SwitchRepository) (SwitchDriver, error) {
	var lastErr error
	for _, driver := range registry {
		matched, err := driver.Detect(repo)
		if err != nil {
			lastErr = err
			continue
		}
		if matched {
			return driver, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to detect switch platform")
}

// Resolve returns the configured driver, probing the device when the platform is auto.
func Resolve(name string, repo ports.SwitchRepository) (SwitchDriver, error) {
	if normalizeName(name) == AutoDetect {
		return Detect(repo)
	}
	return Get(name)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
