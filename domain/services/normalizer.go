package services

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// Normalizer runs the extraction, merge and assembly stages over a raw document
type Normalizer struct {
	workers  int
	reporter ports.PortErrorReporter
}

// NewNormalizer creates a normalizer processing up to workers switches at once.
// A non-positive worker count uses GOMAXPROCS.
func NewNormalizer(workers int, reporter ports.PortErrorReporter) *Normalizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Normalizer{workers: workers, reporter: reporter}
}

// NormalizeSwitch normalizes a single switch dump. Bad ports are omitted and reported.
func (n *Normalizer) NormalizeSwitch(switchIP string, dump entities.RawSwitchDump) entities.SwitchRecord {
	drafts, perrs := ExtractPorts(switchIP, dump)
	record := MergeSwitch(switchIP, drafts, dump)
	record.Omitted = perrs
	for _, perr := range perrs {
		logger.Warn("Omitting port: %v", perr)
		if n.reporter != nil {
			n.reporter.ReportPortError(perr)
		}
	}
	logger.Debug("Switch %s normalized: %d ports, %d ACLs, %d omitted", switchIP, len(record.Ports), len(record.ACLs), len(perrs))
	return record
}

// Normalize fans the switches of doc out to the worker pool and assembles the result
func (n *Normalizer) Normalize(ctx context.Context, doc entities.RawDocument) (entities.NormalizedResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	var mu sync.Mutex
	records := make(map[string]entities.SwitchRecord, len(doc))
	for ip, dump := range doc {
		ip, dump := ip, dump
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			record := n.NormalizeSwitch(ip, dump)
			mu.Lock()
			records[ip] = record
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Assemble(records), nil
}
