package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/carlosrabelo/cscc/domain/entities"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func render(w io.Writer, result entities.NormalizedResult, format string) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderTables(w, result)
	return nil
}

func renderTables(w io.Writer, result entities.NormalizedResult) {
	if len(result) == 0 {
		fmt.Fprintln(w, "No switches returned by the provider")
		return
	}
	for _, ip := range sortedKeys(result) {
		record := result[ip]
		fmt.Fprintf(w, "Switch %s: %d ports, %d ACLs\n", ip, len(record.Ports), len(record.ACLs))

		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Port", "Description", "VLAN", "Shutdown", "Speed", "Storm-Control", "ACL", "Other"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetAutoWrapText(false)
		for _, name := range sortedKeys(record.Ports) {
			port := record.Ports[name]
			table.Append([]string{
				name,
				value(port.Description),
				value(port.VLAN),
				yesNo(port.IsShutdown()),
				value(port.Speed),
				value(port.StormControl),
				value(port.ACLName),
				strings.Join(port.Other, "\n"),
			})
		}
		table.Render()

		if len(record.ACLs) > 0 {
			acls := tablewriter.NewWriter(w)
			acls.SetHeader([]string{"ACL", "Rules"})
			acls.SetAlignment(tablewriter.ALIGN_LEFT)
			acls.SetAutoWrapText(false)
			for _, name := range sortedKeys(record.ACLs) {
				acls.Append([]string{name, strings.TrimRight(record.ACLs[name], "\n")})
			}
			acls.Render()
		}
		for _, perr := range record.Omitted {
			fmt.Fprintf(w, "Omitted port %q: %v\n", perr.Port, perr.Err)
		}
	}
}

func value(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
