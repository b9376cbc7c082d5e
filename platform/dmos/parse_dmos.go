package dmos

import (
	"strings"

	"github.com/carlosrabelo/cscc/platform/runcfg"
)

var (
	cmdErrorHints = []string{"unknown command", "invalid", "incomplete", "syntax error"}

	runningConfig = runcfg.Dialect{
		InterfacePrefix: "interface ",
		ACLPrefixes:     []string{"access-list "},
		BindingKeywords: []string{"access-group", "ip access-group"},
	}
)

// isDmOSCommandError inspects only the first non-empty line, where DmOS reports CLI errors.
func isDmOSCommandError(output string) bool {
	var first string
	for _, line := range strings.Split(output, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			first = strings.ToLower(trimmed)
			break
		}
	}
	if strings.HasPrefix(first, "interface ") || strings.HasPrefix(first, "!") {
		return false
	}
	for _, keyword := range cmdErrorHints {
		if strings.Contains(first, keyword) {
			return true
		}
	}
	return false
}
