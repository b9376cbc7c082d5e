package services

import (
	"strings"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// Directive keywords promoted into named PortRecord fields
const (
	DirectiveVLAN         = "vlan"
	DirectiveShutdown     = "shutdown"
	DirectiveSpeed        = "speed"
	DirectiveStormControl = "storm-control"
)

// matchValued matches "keyword <value>" and returns the trimmed value
func matchValued(line, keyword string) (string, bool) {
	if !strings.HasPrefix(line, keyword+" ") {
		return "", false
	}
	value := strings.TrimSpace(line[len(keyword)+1:])
	return value, value != ""
}

// classifyLine maps a trimmed configuration line to the field it sets
func classifyLine(line string) (string, string, bool) {
	if line == DirectiveShutdown || strings.HasPrefix(line, DirectiveShutdown+" ") {
		return DirectiveShutdown, line, true
	}
	for _, keyword := range []string{DirectiveVLAN, DirectiveSpeed, DirectiveStormControl} {
		if value, ok := matchValued(line, keyword); ok {
			return keyword, value, true
		}
	}
	return "", "", false
}

// PromoteAttributes turns an extracted port into a record. Recognized directives fill
// their field (last occurrence wins), description lines are skipped, and everything
// else lands in Other in original order.
func PromoteAttributes(draft PortDraft) entities.PortRecord {
	record := entities.PortRecord{
		Description: draft.Description,
		Config:      append([]string{}, draft.Config...),
		Other:       []string{},
	}
	for _, line := range draft.Config {
		if isDescriptionDirective(line) {
			continue
		}
		field, value, ok := classifyLine(strings.TrimSpace(line))
		if !ok {
			record.Other = append(record.Other, line)
			continue
		}
		v := value
		switch field {
		case DirectiveVLAN:
			record.VLAN = &v
		case DirectiveShutdown:
			record.Shutdown = &v
		case DirectiveSpeed:
			record.Speed = &v
		case DirectiveStormControl:
			record.StormControl = &v
		}
	}
	return record
}

// MergeSwitch promotes attributes for every extracted port, attaches the switch ACL
// table and resolves explicit port to ACL bindings.
func MergeSwitch(switchIP string, drafts map[string]PortDraft, dump entities.RawSwitchDump) entities.SwitchRecord {
	record := entities.SwitchRecord{
		Ports: make(map[string]entities.PortRecord, len(drafts)),
		ACLs:  make(map[string]string, len(dump.ACLs)),
	}
	for name, rule := range dump.ACLs {
		record.ACLs[name] = rule
	}

	for name, draft := range drafts {
		port := PromoteAttributes(draft)
		if aclName := dump.PortACLs[name]; aclName != "" {
			n := aclName
			port.ACLName = &n
			if rule, ok := dump.ACLs[aclName]; ok {
				r := rule
				port.ACL = &r
			} else {
				logger.Debug("Switch %s port %s references unknown ACL %s", switchIP, name, aclName)
			}
		}
		record.Ports[name] = port
	}
	return record
}
