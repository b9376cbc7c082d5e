package ports

import (
	"context"

	"github.com/carlosrabelo/cscc/domain/entities"
)

// ConfigProvider performs one request/reply exchange with the configuration provider
// and returns the raw reply payload. Implementations allow a single outstanding query.
type ConfigProvider interface {
	Query(ctx context.Context, q entities.Query) ([]byte, error)
	Close() error
}

// ConfigFetcher issues typed queries and decodes the provider's raw document
type ConfigFetcher interface {
	FetchAllConfig(ctx context.Context) (entities.RawDocument, error)
	FetchSwitchConfig(ctx context.Context, switchIP string) (entities.RawSwitchDump, error)
}

// PortErrorReporter receives ports omitted during normalization
type PortErrorReporter interface {
	ReportPortError(perr entities.PortError)
}
