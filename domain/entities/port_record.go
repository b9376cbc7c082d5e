package entities

import (
	"errors"
	"fmt"
)

// ErrPortParse marks a port whose raw text could not be normalized
var ErrPortParse = errors.New("port parse error")

// PortRecord is the normalized view of one switch port
type PortRecord struct {
	Description  *string  `json:"description,omitempty"`
	Config       []string `json:"config"`
	ACLName      *string  `json:"acl_name,omitempty"`
	ACL          *string  `json:"acl,omitempty"`
	VLAN         *string  `json:"vlan,omitempty"`
	Shutdown     *string  `json:"shutdown,omitempty"`
	Speed        *string  `json:"speed,omitempty"`
	StormControl *string  `json:"storm_control,omitempty"`
	Other        []string `json:"other"`
}

// IsShutdown reports whether the port carries a shutdown directive
func (p PortRecord) IsShutdown() bool {
	return p.Shutdown != nil
}

// PortError records a port omitted from a switch record
type PortError struct {
	Switch string
	Port   string
	Err    error
}

func (e PortError) Error() string {
	return fmt.Sprintf("switch %s port %q: %v", e.Switch, e.Port, e.Err)
}

func (e PortError) Unwrap() error {
	return e.Err
}

// MarshalText lets omitted ports travel in JSON output with their reason
func (e PortError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// SwitchRecord groups the normalized ports of one switch with its ACL table
type SwitchRecord struct {
	Ports   map[string]PortRecord `json:"ports"`
	ACLs    map[string]string     `json:"acls"`
	Omitted []PortError           `json:"omitted,omitempty"`
}

// NormalizedResult maps a switch IP to its normalized record
type NormalizedResult map[string]SwitchRecord

// PortCount returns the number of normalized ports across all switches
func (r NormalizedResult) PortCount() int {
	total := 0
	for _, sw := range r {
		total += len(sw.Ports)
	}
	return total
}

// OmittedCount returns the number of ports dropped by parse errors
func (r NormalizedResult) OmittedCount() int {
	total := 0
	for _, sw := range r {
		total += len(sw.Omitted)
	}
	return total
}
