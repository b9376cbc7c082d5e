// Package runcfg splits running-config output into interface and ACL blocks.
package runcfg

import (
	"strings"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// Dialect describes which top-level lines open the blocks of interest
type Dialect struct {
	InterfacePrefix string
	ACLPrefixes     []string
	BindingKeywords []string
}

// Block is one top-level section with its indented body
type Block struct {
	Header string
	Body   []string
}

// Text renders the body with one indentation unit stripped, every line terminated by a line feed
func (b Block) Text() string {
	var builder strings.Builder
	for _, line := range b.Body {
		builder.WriteString(line)
		builder.WriteByte('\n')
	}
	return builder.String()
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// Split scans output for top-level lines accepted by opens and gathers the indented
// lines that follow each of them. The first child's indentation is the unit stripped
// from every line of that block. Bang separators are dropped.
func Split(output string, opens func(header string) bool) []Block {
	var blocks []Block
	var current *Block
	unit := ""

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if !isIndented(line) {
			current = nil
			if opens(line) {
				blocks = append(blocks, Block{Header: strings.TrimSpace(line)})
				current = &blocks[len(blocks)-1]
				unit = ""
			}
			continue
		}
		if current == nil || strings.TrimSpace(line) == "!" {
			continue
		}
		if unit == "" {
			unit = leadingWhitespace(line)
		}
		current.Body = append(current.Body, strings.TrimPrefix(line, unit))
	}
	return blocks
}

// headerName returns the text after prefix, or the last token when lastToken is set
func headerName(header, prefix string, lastToken bool) string {
	if lastToken {
		fields := strings.Fields(header)
		if len(fields) == 0 {
			return ""
		}
		return fields[len(fields)-1]
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// BoundACL returns the ACL name an interface body applies, if any
func (d Dialect) BoundACL(body []string) string {
	for _, line := range body {
		fields := strings.Fields(line)
		for _, keyword := range d.BindingKeywords {
			kw := strings.Fields(keyword)
			if len(fields) <= len(kw) {
				continue
			}
			matched := true
			for i := range kw {
				if fields[i] != kw[i] {
					matched = false
					break
				}
			}
			if matched {
				return fields[len(kw)]
			}
		}
	}
	return ""
}

func (d Dialect) aclPrefix(header string) (string, bool) {
	for _, prefix := range d.ACLPrefixes {
		if strings.HasPrefix(header, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// Parse turns running-config output into a raw switch dump. Interface blocks become
// ports, ACL blocks become the ACL table keyed by the last header token, and
// access-group lines fill the port to ACL bindings.
func (d Dialect) Parse(output string) entities.RawSwitchDump {
	dump := entities.NewRawSwitchDump()
	blocks := Split(output, func(header string) bool {
		if strings.HasPrefix(header, d.InterfacePrefix) {
			return true
		}
		_, ok := d.aclPrefix(header)
		return ok
	})

	for _, block := range blocks {
		if strings.HasPrefix(block.Header, d.InterfacePrefix) {
			name := headerName(block.Header, d.InterfacePrefix, false)
			dump.Ports[name] = block.Text()
			if acl := d.BoundACL(block.Body); acl != "" {
				dump.PortACLs[name] = acl
			}
			continue
		}
		prefix, _ := d.aclPrefix(block.Header)
		dump.ACLs[headerName(block.Header, prefix, true)] = block.Text()
	}
	return dump
}
