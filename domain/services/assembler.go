package services

import (
	"github.com/carlosrabelo/cscc/domain/entities"
)

// Assemble folds per-switch records into the normalized result. Every switch keeps
// an entry, with empty maps when it had no ports or ACLs.
func Assemble(records map[string]entities.SwitchRecord) entities.NormalizedResult {
	result := make(entities.NormalizedResult, len(records))
	for ip, record := range records {
		if record.Ports == nil {
			record.Ports = make(map[string]entities.PortRecord)
		}
		if record.ACLs == nil {
			record.ACLs = make(map[string]string)
		}
		result[ip] = record
	}
	return result
}
