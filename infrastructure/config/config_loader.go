package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

const (
	DefaultListen        = "tcp://*:5454"
	DefaultRequestQueue  = "cscc.requests"
	DefaultKeepalive     = 60 * time.Second
	DefaultCheckInterval = 5 * time.Second
	DefaultTrapListen    = "0.0.0.0:162"
	DefaultTrapCommunity = "public"
	DefaultTrapDebounce  = 2 * time.Second
)

// AMQPConfig enables the AMQP request queue next to the ZeroMQ socket
type AMQPConfig struct {
	URL          string `yaml:"url"`
	RequestQueue string `yaml:"request_queue"`
}

// Enabled reports whether an AMQP broker is configured
func (a AMQPConfig) Enabled() bool {
	return a.URL != ""
}

// SNMPConfig controls the link trap listener
type SNMPConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Listen    string        `yaml:"listen"`
	Community string        `yaml:"community"`
	Debounce  time.Duration `yaml:"debounce"`
}

// Inventory defines the provider configuration: global credentials and the switch fleet
type Inventory struct {
	Platform       string                  `yaml:"platform"`
	LegacyVendor   string                  `yaml:"vendor"`
	Transport      string                  `yaml:"transport"`
	Username       string                  `yaml:"username"`
	Password       string                  `yaml:"password"`
	EnablePassword string                  `yaml:"enable_password"`
	Listen         string                  `yaml:"listen"`
	AMQP           AMQPConfig              `yaml:"amqp"`
	SNMP           SNMPConfig              `yaml:"snmp"`
	Keepalive      time.Duration           `yaml:"keepalive"`
	CheckInterval  time.Duration           `yaml:"check_interval"`
	Switches       []entities.SwitchConfig `yaml:"switches"`
}

// Switch returns the inventory entry for target
func (inv *Inventory) Switch(target string) (entities.SwitchConfig, bool) {
	for _, sw := range inv.Switches {
		if sw.Target == target {
			return sw, true
		}
	}
	return entities.SwitchConfig{}, false
}

func validatePlatform(platform string) error {
	switch platform {
	case "ios", "dmos", "auto":
		return nil
	default:
		return fmt.Errorf("platform %s is invalid, must be 'ios', 'dmos', or 'auto'", platform)
	}
}

func validateTransport(transport string) error {
	if transport != "telnet" && transport != "ssh" {
		return fmt.Errorf("transport %s is invalid, must be 'telnet' or 'ssh'", transport)
	}
	return nil
}

// Load loads and validates the provider inventory from a YAML file
func Load(yamlFile string) (*Inventory, error) {
	data, err := os.ReadFile(yamlFile)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read YAML file %s", yamlFile)
	}
	return Parse(data)
}

// Parse decodes an inventory document, merges the global defaults into every
// switch and validates the result
func Parse(data []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}

	primaryPlatform := inv.Platform
	if primaryPlatform == "" {
		primaryPlatform = inv.LegacyVendor
	}
	inv.Platform = strings.ToLower(strings.TrimSpace(primaryPlatform))
	if inv.Platform == "" {
		inv.Platform = "ios"
	}
	if err := validatePlatform(inv.Platform); err != nil {
		return nil, err
	}

	inv.Transport = strings.ToLower(strings.TrimSpace(inv.Transport))
	if inv.Transport == "" {
		inv.Transport = "telnet"
	}
	if err := validateTransport(inv.Transport); err != nil {
		return nil, err
	}

	applyDefaults(&inv)
	logger.Debug("Global values: Platform=%s, Transport=%s, Listen=%s, Keepalive=%s, CheckInterval=%s",
		inv.Platform, inv.Transport, inv.Listen, inv.Keepalive, inv.CheckInterval)

	if len(inv.Switches) == 0 {
		return nil, fmt.Errorf("no switches defined in the YAML configuration")
	}

	seen := make(map[string]bool, len(inv.Switches))
	for i, sw := range inv.Switches {
		sw.Target = strings.TrimSpace(sw.Target)
		if sw.Target == "" {
			return nil, fmt.Errorf("target is required for switch %d", i)
		}
		if seen[sw.Target] {
			return nil, fmt.Errorf("switch %s is defined more than once", sw.Target)
		}
		seen[sw.Target] = true

		sw.Transport = strings.ToLower(strings.TrimSpace(sw.Transport))
		if sw.Transport == "" {
			sw.Transport = inv.Transport
			logger.Debug("No transport defined for switch %s, using global %s", sw.Target, inv.Transport)
		}
		if err := validateTransport(sw.Transport); err != nil {
			return nil, fmt.Errorf("invalid transport for switch %s: %w", sw.Target, err)
		}

		rawPlatform := sw.Platform
		if rawPlatform == "" {
			rawPlatform = sw.LegacyPlatform
		}
		sw.Platform = strings.ToLower(strings.TrimSpace(rawPlatform))
		if sw.Platform == "" {
			sw.Platform = inv.Platform
			logger.Debug("No platform defined for switch %s, using global %s", sw.Target, inv.Platform)
		}
		if err := validatePlatform(sw.Platform); err != nil {
			return nil, fmt.Errorf("invalid platform for switch %s: %w", sw.Target, err)
		}

		if sw.Port < 0 || sw.Port > 65535 {
			return nil, fmt.Errorf("port %d is invalid for switch %s", sw.Port, sw.Target)
		}

		if sw.Username == "" {
			sw.Username = inv.Username
		}
		if sw.Password == "" {
			sw.Password = inv.Password
		}
		if sw.EnablePassword == "" {
			sw.EnablePassword = inv.EnablePassword
		}
		if sw.Username == "" {
			return nil, fmt.Errorf("username is required for switch %s", sw.Target)
		}
		if sw.Password == "" {
			return nil, fmt.Errorf("password is required for switch %s", sw.Target)
		}

		logger.Debug("Final configuration for switch %s: Platform=%s, Transport=%s, Address=%s",
			sw.Target, sw.Platform, sw.Transport, sw.Address())
		inv.Switches[i] = sw
	}

	return &inv, nil
}

func applyDefaults(inv *Inventory) {
	if inv.Listen == "" {
		inv.Listen = DefaultListen
	}
	if inv.AMQP.Enabled() && inv.AMQP.RequestQueue == "" {
		inv.AMQP.RequestQueue = DefaultRequestQueue
	}
	if inv.Keepalive <= 0 {
		inv.Keepalive = DefaultKeepalive
	}
	if inv.CheckInterval <= 0 {
		inv.CheckInterval = DefaultCheckInterval
	}
	if inv.SNMP.Listen == "" {
		inv.SNMP.Listen = DefaultTrapListen
	}
	if inv.SNMP.Community == "" {
		inv.SNMP.Community = DefaultTrapCommunity
	}
	if inv.SNMP.Debounce <= 0 {
		inv.SNMP.Debounce = DefaultTrapDebounce
	}
}
