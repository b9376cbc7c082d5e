package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/domain/services"
)

// ConfigViewService orchestrates fetching raw dumps and normalizing them
type ConfigViewService struct {
	fetcher    ports.ConfigFetcher
	normalizer *services.Normalizer
}

// NewConfigViewService creates a new instance of the configuration view service
func NewConfigViewService(fetcher ports.ConfigFetcher, normalizer *services.Normalizer) *ConfigViewService {
	return &ConfigViewService{
		fetcher:    fetcher,
		normalizer: normalizer,
	}
}

// Show fetches the configuration of every switch and returns the normalized view.
// A fetch failure yields no partial result.
func (s *ConfigViewService) Show(ctx context.Context) (entities.NormalizedResult, error) {
	doc, err := s.fetcher.FetchAllConfig(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.normalizer.Normalize(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "normalization aborted")
	}
	return result, nil
}

// ShowSwitch asks the provider for a fresh dump of one switch and normalizes it
func (s *ConfigViewService) ShowSwitch(ctx context.Context, switchIP string) (entities.NormalizedResult, error) {
	dump, err := s.fetcher.FetchSwitchConfig(ctx, switchIP)
	if err != nil {
		return nil, err
	}
	record := s.normalizer.NormalizeSwitch(switchIP, dump)
	return services.Assemble(map[string]entities.SwitchRecord{switchIP: record}), nil
}
