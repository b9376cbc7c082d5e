package provider

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/ports"
	"github.com/carlosrabelo/cscc/infrastructure/logger"
)

// RequestObserver is told the outcome of every fetch
type RequestObserver interface {
	ObserveRequest(query string, err error)
}

// Fetcher issues queries through a ConfigProvider and decodes the typed documents
type Fetcher struct {
	provider ports.ConfigProvider
	observer RequestObserver
}

// NewFetcher creates a fetcher; observer may be nil
func NewFetcher(provider ports.ConfigProvider, observer RequestObserver) *Fetcher {
	return &Fetcher{provider: provider, observer: observer}
}

var _ ports.ConfigFetcher = (*Fetcher)(nil)

// FetchAllConfig retrieves the raw dump of every switch
func (f *Fetcher) FetchAllConfig(ctx context.Context) (entities.RawDocument, error) {
	q := entities.Query{Type: entities.QueryShowAllConfig}
	result, err := f.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	doc, err := DecodeDocument(result)
	if err != nil {
		return nil, f.observe(q, &FetchError{Query: q.Type, Kind: ErrMalformedResponse, Err: err})
	}
	for ip := range doc {
		if strings.TrimSpace(ip) == "" {
			return nil, f.observe(q, &FetchError{Query: q.Type, Kind: ErrMalformedResponse, Err: errors.New("empty switch address")})
		}
	}
	logger.Debug("Fetched configuration of %d switches", len(doc))
	return doc, f.observe(q, nil)
}

// FetchSwitchConfig retrieves a freshly collected dump of one switch
func (f *Fetcher) FetchSwitchConfig(ctx context.Context, switchIP string) (entities.RawSwitchDump, error) {
	q := entities.Query{Type: entities.QueryShowConfig, SwitchIP: switchIP}
	result, err := f.fetch(ctx, q)
	if err != nil {
		return entities.RawSwitchDump{}, err
	}
	dump, err := DecodeSwitchDump(result)
	if err != nil {
		return entities.RawSwitchDump{}, f.observe(q, &FetchError{Query: q.Type, Kind: ErrMalformedResponse, Err: err})
	}
	return dump, f.observe(q, nil)
}

// Raw performs a query and returns the undecoded result string
func (f *Fetcher) Raw(ctx context.Context, q entities.Query) (string, error) {
	result, err := f.fetch(ctx, q)
	if err != nil {
		return "", err
	}
	return result, f.observe(q, nil)
}

func (f *Fetcher) fetch(ctx context.Context, q entities.Query) (string, error) {
	body, err := f.provider.Query(ctx, q)
	if err != nil {
		return "", f.observe(q, &FetchError{Query: q.Type, Kind: ErrUnreachable, Err: err})
	}
	reply, err := DecodeReply(body)
	if err != nil {
		return "", f.observe(q, &FetchError{
			Query: q.Type,
			Kind:  ErrMalformedResponse,
			Err:   &TransportError{Op: "decode", Kind: ErrMalformedReply, Err: err},
		})
	}
	if reply.Error != nil {
		return "", f.observe(q, &FetchError{Query: q.Type, Kind: reply.Error.Kind(), Err: reply.Error})
	}
	return *reply.Result, nil
}

func (f *Fetcher) observe(q entities.Query, err error) error {
	if f.observer != nil {
		f.observer.ObserveRequest(q.Type, err)
	}
	if err != nil {
		logger.Debug("Query %q failed: %v", q.Type, err)
	}
	return err
}
