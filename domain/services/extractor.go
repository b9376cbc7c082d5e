package services

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
)

const descriptionToken = "description "

// PortDraft is a port after line extraction, before attribute promotion
type PortDraft struct {
	Description *string
	Config      []string
}

// SplitLines splits raw port text on line feeds. The terminator of the final line
// is not a separator, and a carriage return ending a line is dropped.
func SplitLines(raw string) []string {
	lines := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// TrimTrailingBlank drops the last element when it is the empty artifact of a final line terminator.
// Empty lines elsewhere are kept.
func TrimTrailingBlank(lines []string) []string {
	if n := len(lines); n > 0 && lines[n-1] == "" {
		return lines[:n-1]
	}
	return lines
}

func isDescriptionDirective(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "description" || strings.HasPrefix(trimmed, descriptionToken)
}

// ExtractDescription returns the text following the first "description " token of the
// first description directive. Later description lines do not change the value.
func ExtractDescription(lines []string) *string {
	for _, line := range lines {
		if !isDescriptionDirective(line) {
			continue
		}
		value := ""
		if idx := strings.Index(line, descriptionToken); idx >= 0 {
			value = line[idx+len(descriptionToken):]
		}
		return &value
	}
	return nil
}

// ValidatePort rejects port entries that cannot be normalized
func ValidatePort(name, raw string) error {
	if strings.TrimSpace(name) == "" {
		return errors.WithMessage(entities.ErrPortParse, "empty port name")
	}
	if !utf8.ValidString(raw) {
		return errors.WithMessage(entities.ErrPortParse, "configuration is not valid UTF-8")
	}
	if strings.IndexByte(raw, 0) >= 0 {
		return errors.WithMessage(entities.ErrPortParse, "configuration contains a NUL byte")
	}
	return nil
}

// ExtractPort splits one port's raw text and pulls its description
func ExtractPort(raw string) PortDraft {
	lines := SplitLines(raw)
	return PortDraft{
		Description: ExtractDescription(lines),
		Config:      TrimTrailingBlank(lines),
	}
}

// ExtractPorts extracts every port of a switch dump. Ports failing validation are
// left out of the draft map and returned as PortErrors in port-name order.
func ExtractPorts(switchIP string, dump entities.RawSwitchDump) (map[string]PortDraft, []entities.PortError) {
	names := make([]string, 0, len(dump.Ports))
	for name := range dump.Ports {
		names = append(names, name)
	}
	sort.Strings(names)

	drafts := make(map[string]PortDraft, len(names))
	var perrs []entities.PortError
	for _, name := range names {
		raw := dump.Ports[name]
		if err := ValidatePort(name, raw); err != nil {
			perrs = append(perrs, entities.PortError{Switch: switchIP, Port: name, Err: err})
			continue
		}
		drafts[name] = ExtractPort(raw)
	}
	return drafts, perrs
}
