package services

import (
	"context"
	"errors"
	"testing"

	"github.com/carlosrabelo/cscc/domain/entities"
	"github.com/carlosrabelo/cscc/domain/services"
)

// MockConfigFetcher implements the ConfigFetcher port for testing
type MockConfigFetcher struct {
	doc         entities.RawDocument
	dump        entities.RawSwitchDump
	err         error
	allCalls    int
	switchCalls []string
}

func (m *MockConfigFetcher) FetchAllConfig(ctx context.Context) (entities.RawDocument, error) {
	m.allCalls++
	return m.doc, m.err
}

func (m *MockConfigFetcher) FetchSwitchConfig(ctx context.Context, switchIP string) (entities.RawSwitchDump, error) {
	m.switchCalls = append(m.switchCalls, switchIP)
	return m.dump, m.err
}

func TestNewConfigViewService(t *testing.T) {
	fetcher := &MockConfigFetcher{}
	service := NewConfigViewService(fetcher, services.NewNormalizer(1, nil))

	if service == nil {
		t.Fatal("Expected service to be created")
	}
	if service.fetcher != fetcher {
		t.Error("Expected fetcher to be stored")
	}
}

func TestShow(t *testing.T) {
	fetcher := &MockConfigFetcher{doc: entities.RawDocument{
		"10.0.0.1": {
			Ports: map[string]string{"Gi1/0/1": "description uplink to core\nvlan 10\nshutdown\n"},
			ACLs:  map[string]string{},
		},
		"10.0.0.2": {},
	}}
	service := NewConfigViewService(fetcher, services.NewNormalizer(2, nil))

	result, err := service.Show(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if fetcher.allCalls != 1 {
		t.Errorf("Expected 1 fetch, got %d", fetcher.allCalls)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 switches, got %d", len(result))
	}
	port := result["10.0.0.1"].Ports["Gi1/0/1"]
	if port.Description == nil || *port.Description != "uplink to core" {
		t.Errorf("Unexpected description: %v", port.Description)
	}
	if port.VLAN == nil || *port.VLAN != "10" {
		t.Errorf("Unexpected vlan: %v", port.VLAN)
	}
	if !port.IsShutdown() {
		t.Error("Expected port to be shut down")
	}
	if result["10.0.0.2"].Ports == nil {
		t.Error("Expected empty port map for switch without ports")
	}
}

func TestShow_FetchError(t *testing.T) {
	fetchErr := errors.New("provider unreachable")
	service := NewConfigViewService(&MockConfigFetcher{err: fetchErr}, services.NewNormalizer(1, nil))

	result, err := service.Show(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Errorf("Expected fetch error, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected no partial result, got %v", result)
	}
}

func TestShow_Canceled(t *testing.T) {
	fetcher := &MockConfigFetcher{doc: entities.RawDocument{"10.0.0.1": {}}}
	service := NewConfigViewService(fetcher, services.NewNormalizer(1, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := service.Show(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestShowSwitch(t *testing.T) {
	fetcher := &MockConfigFetcher{dump: entities.RawSwitchDump{
		Ports:    map[string]string{"Gi1/0/2": "ip access-group GUEST in\nspeed 100\n"},
		ACLs:     map[string]string{"GUEST": "deny ip any 10.0.0.0 0.255.255.255\n"},
		PortACLs: map[string]string{"Gi1/0/2": "GUEST"},
	}}
	service := NewConfigViewService(fetcher, services.NewNormalizer(1, nil))

	result, err := service.ShowSwitch(context.Background(), "10.0.0.9")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(fetcher.switchCalls) != 1 || fetcher.switchCalls[0] != "10.0.0.9" {
		t.Errorf("Unexpected switch fetches: %v", fetcher.switchCalls)
	}
	port, ok := result["10.0.0.9"].Ports["Gi1/0/2"]
	if !ok {
		t.Fatal("Expected port Gi1/0/2")
	}
	if port.ACLName == nil || *port.ACLName != "GUEST" {
		t.Errorf("Unexpected ACL name: %v", port.ACLName)
	}
	if port.ACL == nil {
		t.Error("Expected ACL body to be joined")
	}
	if port.Speed == nil || *port.Speed != "100" {
		t.Errorf("Unexpected speed: %v", port.Speed)
	}
}

func TestShowSwitch_FetchError(t *testing.T) {
	fetchErr := errors.New("unknown switch")
	service := NewConfigViewService(&MockConfigFetcher{err: fetchErr}, services.NewNormalizer(1, nil))

	if _, err := service.ShowSwitch(context.Background(), "10.9.9.9"); !errors.Is(err, fetchErr) {
		t.Errorf("Expected fetch error, got %v", err)
	}
}
