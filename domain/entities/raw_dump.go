package entities

// RawSwitchDump is the unparsed configuration of one switch as held by the provider.
// Port text is the interface body, one directive per line, each line terminated by "\n".
type RawSwitchDump struct {
	Ports    map[string]string `json:"port"`
	ACLs     map[string]string `json:"acl"`
	PortACLs map[string]string `json:"port_acl,omitempty"`
}

// RawDocument maps a switch IP to its raw dump
type RawDocument map[string]RawSwitchDump

// NewRawSwitchDump returns a dump with initialized maps
func NewRawSwitchDump() RawSwitchDump {
	return RawSwitchDump{
		Ports:    make(map[string]string),
		ACLs:     make(map[string]string),
		PortACLs: make(map[string]string),
	}
}
