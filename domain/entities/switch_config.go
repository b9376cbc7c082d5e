package entities

import (
	"net"
	"strconv"
	"strings"
)

// SwitchConfig defines the inventory entry for a single switch polled by the provider
type SwitchConfig struct {
	Target         string `yaml:"target"`
	Transport      string `yaml:"transport"`
	Port           int    `yaml:"port"`
	Platform       string `yaml:"platform"`
	LegacyPlatform string `yaml:"vendor"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	EnablePassword string `yaml:"enable_password"`
}

// PlatformID returns the normalized platform, falling back to the legacy vendor key
func (sc SwitchConfig) PlatformID() string {
	platform := strings.ToLower(strings.TrimSpace(sc.Platform))
	if platform == "" {
		platform = strings.ToLower(strings.TrimSpace(sc.LegacyPlatform))
	}
	if platform == "" {
		return "ios"
	}
	return platform
}

// Address returns host:port for the configured transport
func (sc SwitchConfig) Address() string {
	port := sc.Port
	if port == 0 {
		if sc.Transport == "ssh" {
			port = 22
		} else {
			port = 23
		}
	}
	return net.JoinHostPort(sc.Target, strconv.Itoa(port))
}
