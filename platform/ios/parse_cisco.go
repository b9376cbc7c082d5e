package ios

import (
	"strings"

	"github.com/carlosrabelo/cscc/platform/runcfg"
)

var (
	commandErrHints = []string{
		"invalid input",
		"unknown command",
		"incomplete command",
		"ambiguous command",
		"unrecognized command",
		"invalid command",
		"syntax error",
		"cannot find command",
	}

	runningConfig = runcfg.Dialect{
		InterfacePrefix: "interface ",
		ACLPrefixes:     []string{"ip access-list ", "ipv6 access-list ", "mac access-list "},
		BindingKeywords: []string{"ip access-group", "ipv6 traffic-filter", "mac access-group"},
	}
)

// isIOSCommandError checks the leading "%" lines of the output for a CLI error marker.
func isIOSCommandError(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "^"):
			continue
		case !strings.HasPrefix(trimmed, "%"):
			return false
		}
		lower := strings.ToLower(trimmed)
		for _, keyword := range commandErrHints {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
	}
	return false
}
